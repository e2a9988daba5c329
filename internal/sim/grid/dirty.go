package grid

import "sort"

// markDirty records the location in every player's updated set, including the
// global observer at index 0. Locations an object just left may sit outside
// the map bounds; observers diff against their own last frame.
func (g *Grid) markDirty(location Location) {
	for i := range g.updatedLocations {
		g.updatedLocations[i][location] = struct{}{}
	}
}

// InvalidateLocation marks a location dirty without any object mutation, for
// appearance changes observers would otherwise miss. Returns false if the
// location is outside the map.
func (g *Grid) InvalidateLocation(location Location) bool {
	if !g.Contains(location) {
		return false
	}
	g.markDirty(location)
	return true
}

// UpdatedLocations lists the locations dirtied since the player's last purge,
// sorted row-major for stable output. Index 0 is the global observer.
func (g *Grid) UpdatedLocations(playerID uint32) []Location {
	if int(playerID) >= len(g.updatedLocations) {
		return nil
	}
	set := g.updatedLocations[playerID]
	locations := make([]Location, 0, len(set))
	for location := range set {
		locations = append(locations, location)
	}
	sort.Slice(locations, func(i, j int) bool {
		if locations[i].Y != locations[j].Y {
			return locations[i].Y < locations[j].Y
		}
		return locations[i].X < locations[j].X
	})
	return locations
}

// PurgeUpdatedLocations clears a player's dirty set. The grid never purges on
// its own; the observer owns the purge cadence.
func (g *Grid) PurgeUpdatedLocations(playerID uint32) {
	if int(playerID) >= len(g.updatedLocations) {
		return
	}
	g.updatedLocations[playerID] = map[Location]struct{}{}
}
