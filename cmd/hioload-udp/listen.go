// File: cmd/hioload-udp/listen.go
// Author: momentics <momentics@gmail.com>

package main

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/momentics/hioload-udp/affinity"
	"github.com/momentics/hioload-udp/control"
	"github.com/momentics/hioload-udp/pool"
	"github.com/momentics/hioload-udp/transport/udp"
	"github.com/momentics/hioload-udp/transport/udp/interceptors"
)

var (
	listenLoss  int
	listenStats time.Duration
)

var listenCmd = &cobra.Command{
	Use:   "listen [bind-address...]",
	Short: "Receive datagrams on the configured endpoints",
	Long: `Open every configured endpoint (plus any bind addresses given as
arguments) and poll them from one pinned thread until interrupted.

Multicast group addresses are joined; unicast addresses are bound directly.

Examples:
  hioload-udp listen 127.0.0.1:40123
  hioload-udp listen 239.1.1.1:40456 --loss 10`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.Flags().IntVar(&listenLoss, "loss", 0, "drop every Nth datagram (0 disables)")
	listenCmd.Flags().DurationVar(&listenStats, "stats", 5*time.Second, "statistics log interval")
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, log, level, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if configPath != "" {
		onErr := func(err error) { log.Warn("config reload rejected", zap.Error(err)) }
		if _, err := control.Watch(configPath, control.WatchLogLevel(level, log), onErr); err != nil {
			return err
		}
	}

	endpoints := cfg.Endpoints
	for _, a := range args {
		endpoints = append(endpoints, control.EndpointConfig{Name: a, Bind: a})
	}
	if len(endpoints) == 0 {
		return fmt.Errorf("no endpoints: pass a bind address or configure endpoints")
	}

	reg := control.NewMetricsRegistry()
	probes := control.NewDebugProbes()
	control.RegisterPlatformProbes(probes, udp.DetectCapabilities())

	ics := []udp.Interceptor{interceptors.NewCounting(reg)}
	if listenLoss > 0 {
		loss, err := interceptors.NewLoss(listenLoss)
		if err != nil {
			return err
		}
		ics = append(ics, loss)
	}
	dp, err := udp.NewDataPaths(traceDatagram(log), ics...)
	if err != nil {
		return err
	}

	transports := make([]*udp.ChannelTransport, 0, len(endpoints))
	defer func() {
		for _, t := range transports {
			_ = t.Close()
		}
	}()
	for _, ep := range endpoints {
		tc, err := transportConfig(ep)
		if err != nil {
			return err
		}
		t, err := udp.Open(tc,
			udp.WithLogger(log.Named("udp")),
			udp.WithVectorIO(!ep.ScalarIO),
			udp.WithDataPaths(dp),
		)
		if err != nil {
			return fmt.Errorf("endpoint %s: %w", ep.Name, err)
		}
		transports = append(transports, t)
		t.RegisterProbes(probes)
		local, _ := t.BoundAddress()
		log.Info("endpoint open",
			zap.String("name", ep.Name),
			zap.Stringer("id", t.ID()),
			zap.String("local", local),
			zap.String("io", t.IOStrategy()),
		)
	}

	slab, err := pool.NewSlab(cfg.Poll.BatchSize, cfg.Poll.BufferSize)
	if err != nil {
		return err
	}
	defer func() { _ = slab.Close() }()
	batch := udp.NewBatchFromBuffers(slab.Buffers())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return pollLoop(ctx, cfg.Poll, transports, batch, log, probes, reg)
}

// traceDatagram is the terminal receive function; it only logs at debug.
func traceDatagram(log *zap.Logger) udp.RecvFunc {
	return func(_ *udp.DataPaths, t *udp.ChannelTransport, _, _, _ any, payload []byte, from netip.AddrPort, ts *udp.Timestamp) {
		if ce := log.Check(zap.DebugLevel, "datagram"); ce != nil {
			fields := []zap.Field{
				zap.Stringer("id", t.ID()),
				zap.Stringer("from", from),
				zap.Int("len", len(payload)),
			}
			if ts != nil {
				fields = append(fields, zap.Time("rx", ts.Time()))
			}
			ce.Write(fields...)
		}
	}
}

// pollLoop drives every transport from the calling goroutine until ctx is
// done. An empty pass parks for the configured idle time.
func pollLoop(ctx context.Context, pc control.PollConfig, ts []*udp.ChannelTransport, batch *udp.Batch, log *zap.Logger, probes *control.DebugProbes, reg *control.MetricsRegistry) error {
	if pc.CPU >= 0 {
		var pinner affinity.ThreadPinner
		if err := pinner.Pin(pc.CPU); err != nil {
			log.Warn("poll thread not pinned", zap.Int("cpu", pc.CPU), zap.Error(err))
		} else {
			defer pinner.Unpin()
		}
	}

	idle := time.Duration(pc.IdleSleepMicros) * time.Microsecond
	ticker := time.NewTicker(listenStats)
	defer ticker.Stop()

	var bytes int64
	for {
		select {
		case <-ctx.Done():
			log.Info("listener stopping", zap.Int64("bytes", bytes))
			return nil
		case <-ticker.C:
			log.Info("stats", zap.Any("probes", probes.DumpState()), zap.Any("metrics", reg.GetSnapshot()))
		default:
		}

		work := 0
		for _, t := range ts {
			n, err := t.RecvBatch(batch, &bytes, nil, nil)
			if err != nil {
				return fmt.Errorf("transport %s: %w", t.ID(), err)
			}
			work += n
		}
		if work == 0 && idle > 0 {
			time.Sleep(idle)
		}
	}
}
