// File: cmd/hioload-udp/main.go
// Author: momentics <momentics@gmail.com>
//
// Operator tool for the UDP channel transport: capability report, receive
// loop and batch sender.

package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
