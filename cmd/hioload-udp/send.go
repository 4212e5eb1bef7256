// File: cmd/hioload-udp/send.go
// Author: momentics <momentics@gmail.com>

package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eapache/queue"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/momentics/hioload-udp/transport/udp"
)

var (
	sendBind   string
	sendCount  int
	sendSize   int
	sendTTL    uint8
	sendScalar bool
)

var sendCmd = &cobra.Command{
	Use:   "send <destination>",
	Short: "Send a burst of sequenced datagrams",
	Long: `Queue --count datagrams of --size bytes, each starting with a big-endian
sequence number, and drain the queue through batch sends. Datagrams the socket
does not accept stay queued and are retried after the idle interval.

Examples:
  hioload-udp send 127.0.0.1:40123 --count 100000
  hioload-udp send 239.1.1.1:40456 --ttl 4`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVar(&sendBind, "bind", "", "local bind address (default: wildcard of the destination family)")
	sendCmd.Flags().IntVar(&sendCount, "count", 1000, "number of datagrams")
	sendCmd.Flags().IntVar(&sendSize, "size", 64, "datagram size in bytes")
	sendCmd.Flags().Uint8Var(&sendTTL, "ttl", 0, "multicast TTL (0 keeps the OS default)")
	sendCmd.Flags().BoolVar(&sendScalar, "scalar", false, "disable sendmmsg")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, log, _, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	dst, err := udp.ParseBindAddress(args[0])
	if err != nil {
		return err
	}
	bindStr := sendBind
	if bindStr == "" {
		bindStr = "0.0.0.0:0"
		if dst.Is6() {
			bindStr = "[::]:0"
		}
	}
	bind, err := udp.ParseBindAddress(bindStr)
	if err != nil {
		return err
	}
	if bind.IsMulticast() {
		return fmt.Errorf("bind address %s must be unicast", bind)
	}

	t, err := udp.Open(udp.Config{Bind: bind, TTL: sendTTL},
		udp.WithLogger(log.Named("udp")),
		udp.WithVectorIO(!sendScalar),
	)
	if err != nil {
		return err
	}
	defer func() { _ = t.Close() }()

	backlog := queue.New()
	for i := 0; i < sendCount; i++ {
		p := make([]byte, max(sendSize, 8))
		binary.BigEndian.PutUint64(p, uint64(i))
		backlog.Add(p)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch := udp.NewBatch(cfg.Poll.BatchSize, 0)
	idle := time.Duration(cfg.Poll.IdleSleepMicros) * time.Microsecond
	start := time.Now()
	sent, stalls := 0, 0
	for backlog.Length() > 0 && ctx.Err() == nil {
		n := min(backlog.Length(), batch.Cap())
		for i := 0; i < n; i++ {
			batch.SetMessage(i, backlog.Get(i).([]byte), dst.AddrPort())
		}
		k, err := t.SendBatch(batch, n)
		if err != nil {
			return fmt.Errorf("after %d datagrams: %w", sent, err)
		}
		for i := 0; i < k; i++ {
			backlog.Remove()
		}
		sent += k
		if k == 0 {
			stalls++
			time.Sleep(idle)
		}
	}

	elapsed := time.Since(start)
	log.Info("send complete",
		zap.String("to", dst.String()),
		zap.Int("sent", sent),
		zap.Int("pending", backlog.Length()),
		zap.Int("stalls", stalls),
		zap.String("io", t.IOStrategy()),
		zap.Duration("elapsed", elapsed),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "sent %d datagrams to %s in %s\n", sent, dst, elapsed)
	return nil
}
