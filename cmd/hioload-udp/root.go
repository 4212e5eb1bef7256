// File: cmd/hioload-udp/root.go
// Author: momentics <momentics@gmail.com>

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/momentics/hioload-udp/control"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "hioload-udp",
	Short:         "UDP channel transport tool",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ./hioload-udp.yaml)")
}

// loadRuntime loads configuration and builds the logger.
func loadRuntime() (*control.Config, *zap.Logger, zap.AtomicLevel, error) {
	cfg, err := control.Load(configPath)
	if err != nil {
		return nil, nil, zap.AtomicLevel{}, err
	}
	log, level, err := control.SetupLogger(cfg.Log)
	if err != nil {
		return nil, nil, zap.AtomicLevel{}, err
	}
	return cfg, log, level, nil
}
