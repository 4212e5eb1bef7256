// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Configuration file watching. Only settings that are safe to change on a
// running driver are applied; endpoints need a restart.

package control

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch loads path and calls fn with every subsequently valid version of the
// file. Invalid edits are reported to onErr and otherwise ignored.
func Watch(path string, fn func(*Config), onErr func(error)) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	v.OnConfigChange(func(fsnotify.Event) {
		next, err := decode(v)
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		fn(next)
	})
	v.WatchConfig()
	return cfg, nil
}

// WatchLogLevel returns a reload hook that applies log.level changes.
func WatchLogLevel(level zap.AtomicLevel, log *zap.Logger) func(*Config) {
	return func(c *Config) {
		next := ParseLevel(c.Log.Level)
		if next != level.Level() {
			level.SetLevel(next)
			log.Info("log level changed", zap.Stringer("level", next))
		}
	}
}
