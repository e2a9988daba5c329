package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the engine knobs for an episode run. Everything here is
// operator configuration; game semantics live in the definition document.
type Tuning struct {
	Seed uint32 `yaml:"seed"`

	// TickLimit bounds an episode; 0 means run until stopped.
	TickLimit int `yaml:"tick_limit"`

	HistoryEnabled bool `yaml:"history_enabled"`
	// HistoryFlushTicks controls how often recorded events are handed to the
	// sinks and purged.
	HistoryFlushTicks int `yaml:"history_flush_ticks"`

	EventLogDir string `yaml:"event_log_dir"`
	IndexDBPath string `yaml:"index_db_path"`
}

func Default() Tuning {
	return Tuning{
		Seed:              0,
		TickLimit:         1000,
		HistoryEnabled:    true,
		HistoryFlushTicks: 100,
	}
}

func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if t.HistoryFlushTicks <= 0 {
		t.HistoryFlushTicks = 100
	}
	return t, nil
}
