// File: cmd/hioload-udp/caps.go
// Author: momentics <momentics@gmail.com>

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-udp/control"
	"github.com/momentics/hioload-udp/transport/udp"
)

var capsCmd = &cobra.Command{
	Use:   "caps",
	Short: "Print detected datagram I/O capabilities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dp := control.NewDebugProbes()
		control.RegisterPlatformProbes(dp, udp.DetectCapabilities())
		state := dp.DumpState()
		for _, k := range dp.Names() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-22s %v\n", k, state[k])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(capsCmd)
}
