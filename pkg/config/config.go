// Package config centralizes the policy knobs spec.md's Open Questions
// (§9) leave unresolved — history capacity, coalesce window, causal-hole
// timeout, autosave cadence, snapshot cadence, and the resource store's
// maximum blob size — behind a single viper-backed Config struct, the way
// the teacher's pkg/config.ConfigLoader layers a YAML file with
// environment-variable overrides.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/wdcollab/wdcore/pkg/autosave"
	"github.com/wdcollab/wdcore/pkg/history"
	"github.com/wdcollab/wdcore/pkg/resource"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

// HistoryConfig bounds the undo/redo ring (spec.md §4.3).
type HistoryConfig struct {
	Capacity       int           `mapstructure:"capacity"`
	CoalesceWindow time.Duration `mapstructure:"coalesce_window"`
}

// CRDTConfig tunes the collaboration core (spec.md §4.4, §5).
type CRDTConfig struct {
	// CausalHoleTimeout is how long a buffered remote operation may wait
	// on a missing causal prerequisite before Engine.CheckStaleHoles
	// reports it, rather than buffering silently forever.
	CausalHoleTimeout time.Duration `mapstructure:"causal_hole_timeout"`
	// BroadcastRate and BroadcastBurst bound per-subscriber transport
	// fan-out (pkg/transport.Broadcaster).
	BroadcastRate  float64 `mapstructure:"broadcast_rate"`
	BroadcastBurst int     `mapstructure:"broadcast_burst"`
}

// AutosaveConfig tunes the debounced background snapshot loop (spec.md
// §4.7).
type AutosaveConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	Debounce  time.Duration `mapstructure:"debounce"`
	Retention time.Duration `mapstructure:"retention"`
}

// SnapshotConfig tunes how often the document owner task asks pkg/opstore
// to durably checkpoint the CRDT state, bounding how much of the
// operation log a reconnecting replica has to replay (spec.md §4.4
// "Snapshots").
type SnapshotConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// ResourceConfig tunes the content-addressed blob store (spec.md §4.8).
type ResourceConfig struct {
	MaxBlobSize int `mapstructure:"max_blob_size"`
}

// Config is the complete set of policy knobs this core reads at startup.
// Every field has a default; nothing here is required for the zero value
// to be usable.
type Config struct {
	History  HistoryConfig  `mapstructure:"history"`
	CRDT     CRDTConfig     `mapstructure:"crdt"`
	Autosave AutosaveConfig `mapstructure:"autosave"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Resource ResourceConfig `mapstructure:"resource"`
}

// Default is the configuration this core runs with absent any file or
// environment override, matching the defaults the individual packages
// already fall back to on their own (history.DefaultCapacity,
// autosave.DefaultInterval, resource.DefaultMaxSize, ...) so that Load
// with no sources behaves identically to constructing each package
// directly with no Config at all.
func Default() Config {
	return Config{
		History: HistoryConfig{
			Capacity:       history.DefaultCapacity,
			CoalesceWindow: history.DefaultCoalesceWindow,
		},
		CRDT: CRDTConfig{
			CausalHoleTimeout: 30 * time.Second,
			BroadcastRate:     200,
			BroadcastBurst:    400,
		},
		Autosave: AutosaveConfig{
			Interval:  autosave.DefaultInterval,
			Debounce:  autosave.DefaultDebounce,
			Retention: autosave.DefaultRetention,
		},
		Snapshot: SnapshotConfig{
			Interval: 2 * time.Minute,
		},
		Resource: ResourceConfig{
			MaxBlobSize: resource.DefaultMaxSize,
		},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvPrefix("WDCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	defaults := Default()
	v.SetDefault("history.capacity", defaults.History.Capacity)
	v.SetDefault("history.coalesce_window", defaults.History.CoalesceWindow)
	v.SetDefault("crdt.causal_hole_timeout", defaults.CRDT.CausalHoleTimeout)
	v.SetDefault("crdt.broadcast_rate", defaults.CRDT.BroadcastRate)
	v.SetDefault("crdt.broadcast_burst", defaults.CRDT.BroadcastBurst)
	v.SetDefault("autosave.interval", defaults.Autosave.Interval)
	v.SetDefault("autosave.debounce", defaults.Autosave.Debounce)
	v.SetDefault("autosave.retention", defaults.Autosave.Retention)
	v.SetDefault("snapshot.interval", defaults.Snapshot.Interval)
	v.SetDefault("resource.max_blob_size", defaults.Resource.MaxBlobSize)
	return v
}

// Load reads configuration from an optional YAML file at path (skipped
// entirely if path is empty or the file does not exist) layered under
// WDCORE_-prefixed environment variable overrides (e.g.
// WDCORE_AUTOSAVE_INTERVAL=1m), the way the teacher's ConfigLoader layers
// a base file under environment variables.
func Load(path string) (Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return Config{}, wderrors.New(wderrors.KindIO, "config.Load", err.Error())
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, wderrors.New(wderrors.KindSerialization, "config.Load", err.Error())
	}
	return cfg, nil
}
