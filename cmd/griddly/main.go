package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"griddly.ai/internal/persistence/eventlog"
	"griddly.ai/internal/persistence/indexdb"
	"griddly.ai/internal/sim/gdy"
	"griddly.ai/internal/sim/grid"
	"griddly.ai/internal/sim/level"
	"griddly.ai/internal/sim/tuning"
)

var stepVectors = []grid.Location{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}

func main() {
	var (
		gamePath   = flag.String("game", "", "game definition yaml")
		levelPath  = flag.String("level", "", "level map yaml")
		tuningPath = flag.String("tuning", "", "tuning yaml (optional)")
		seed       = flag.Uint("seed", 0, "override tuning seed")
		ticks      = flag.Int("ticks", 0, "override tuning tick limit")
		eventsDir  = flag.String("events", "", "override event log dir")
		dbPath     = flag.String("db", "", "override index db path")
	)
	flag.Parse()

	if *gamePath == "" || *levelPath == "" {
		fmt.Fprintln(os.Stderr, "missing -game or -level")
		os.Exit(2)
	}

	tun := tuning.Default()
	if *tuningPath != "" {
		var err error
		if tun, err = tuning.Load(*tuningPath); err != nil {
			log.Fatalf("load tuning: %v", err)
		}
	}
	if *seed != 0 {
		tun.Seed = uint32(*seed)
	}
	if *ticks != 0 {
		tun.TickLimit = *ticks
	}
	if *eventsDir != "" {
		tun.EventLogDir = *eventsDir
	}
	if *dbPath != "" {
		tun.IndexDBPath = *dbPath
	}

	doc, err := gdy.Load(*gamePath)
	if err != nil {
		log.Fatalf("load game: %v", err)
	}
	game, err := gdy.Compile(doc)
	if err != nil {
		log.Fatalf("compile game: %v", err)
	}
	lvl, err := level.LoadMap(*levelPath, game)
	if err != nil {
		log.Fatalf("load level: %v", err)
	}

	g := grid.New()
	if err := game.Configure(g); err != nil {
		log.Fatalf("configure: %v", err)
	}
	g.SeedRandomGenerator(tun.Seed)
	g.EnableHistory(tun.HistoryEnabled)
	if err := lvl.Generate(g); err != nil {
		log.Fatalf("generate level: %v", err)
	}

	startedAt := time.Now().UTC()
	episodeID := fmt.Sprintf("%s-%d", startedAt.Format("20060102T150405"), tun.Seed)

	var events *eventlog.Writer
	if tun.EventLogDir != "" {
		if events, err = eventlog.NewWriter(tun.EventLogDir, episodeID); err != nil {
			log.Fatalf("open event log: %v", err)
		}
		defer events.Close()
	}
	var index *indexdb.SQLiteIndex
	if tun.IndexDBPath != "" {
		if index, err = indexdb.OpenSQLite(tun.IndexDBPath); err != nil {
			log.Fatalf("open index db: %v", err)
		}
		defer index.Close()
	}

	flushHistory := func() {
		history := g.History()
		if len(history) == 0 {
			return
		}
		if events != nil {
			if err := events.WriteEvents(history); err != nil {
				log.Printf("event log write: %v", err)
			}
		}
		if index != nil {
			index.RecordEvents(episodeID, history)
		}
		g.PurgeHistory()
	}
	recordEpisode := func(totalReward int64) {
		if index == nil {
			return
		}
		index.RecordEpisode(indexdb.EpisodeRow{
			EpisodeID:   episodeID,
			Game:        game.Name(),
			GameDigest:  game.Digest(),
			Level:       lvl.Name(),
			Seed:        tun.Seed,
			Width:       g.Width(),
			Height:      g.Height(),
			Players:     g.PlayerCount(),
			Ticks:       *g.TickCount(),
			TotalReward: totalReward,
			StartedAt:   startedAt.Format(time.RFC3339),
		})
	}

	// A random policy keeps every avatar busy so an episode exercises the
	// full action surface without any player attached.
	policy := rand.New(rand.NewSource(int64(tun.Seed) + 1))
	var totalReward int64

	log.Printf("episode %s: game=%s level=%s %dx%d players=%d seed=%d",
		episodeID, game.Name(), lvl.Name(), g.Width(), g.Height(), g.PlayerCount(), tun.Seed)

	for step := 0; tun.TickLimit == 0 || step < tun.TickLimit; step++ {
		for playerID := uint32(1); playerID <= g.PlayerCount(); playerID++ {
			avatar, ok := g.PlayerAvatarObjects()[playerID]
			if !ok {
				continue
			}
			actionNames := avatar.AvailableActionNames()
			if len(actionNames) == 0 {
				continue
			}
			name := actionNames[policy.Intn(len(actionNames))]
			vector := stepVectors[policy.Intn(len(stepVectors))]
			rewards := g.PerformActions(playerID, []grid.Action{game.NewAction(name, avatar, vector)})
			for _, r := range rewards {
				totalReward += int64(r)
			}
		}
		for _, r := range g.Update() {
			totalReward += int64(r)
		}
		if tun.HistoryEnabled && (step+1)%tun.HistoryFlushTicks == 0 {
			flushHistory()
			recordEpisode(totalReward)
		}
	}

	flushHistory()
	recordEpisode(totalReward)
	log.Printf("episode %s: done ticks=%d total_reward=%d", episodeID, *g.TickCount(), totalReward)
}
