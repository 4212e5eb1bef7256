package control_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/control"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hioload-udp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const sampleConfig = `
log:
  level: warn
  format: json
poll:
  batch_size: 32
  cpu: 2
endpoints:
  - name: market-data
    bind: 239.1.1.1:40456
    interface: 10.0.0.5
    ttl: 4
    timestamps: true
    scalar_io: true
    affinity: sender
  - bind: 127.0.0.1:40123
`

func TestLoadFile(t *testing.T) {
	cfg, err := control.Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"stderr"}, cfg.Log.Outputs)
	assert.Equal(t, control.PollConfig{BatchSize: 32, BufferSize: 1500, CPU: 2, IdleSleepMicros: 50}, cfg.Poll)

	want := []control.EndpointConfig{
		{
			Name:       "market-data",
			Bind:       "239.1.1.1:40456",
			Interface:  "10.0.0.5",
			TTL:        4,
			Timestamps: true,
			ScalarIO:   true,
			Affinity:   "sender",
		},
		{Name: "127.0.0.1:40123", Bind: "127.0.0.1:40123"},
	}
	if diff := cmp.Diff(want, cfg.Endpoints); diff != "" {
		t.Errorf("endpoints mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv(control.EnvPrefix+"_CONFIG", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cfg, err := control.Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(control.Default(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv(control.EnvPrefix+"_LOG_LEVEL", "debug")
	t.Setenv(control.EnvPrefix+"_POLL_BATCH_SIZE", "64")
	cfg, err := control.Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 64, cfg.Poll.BatchSize)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"level":    "log:\n  level: loud\n",
		"batch":    "poll:\n  batch_size: 0\n",
		"bind":     "endpoints:\n  - name: x\n",
		"affinity": "endpoints:\n  - bind: 127.0.0.1:1\n    affinity: everywhere\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := control.Load(writeConfig(t, body))
			assert.ErrorIs(t, err, api.ErrInvalidArgument)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := control.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseAffinity(t *testing.T) {
	for in, want := range map[string]api.Affinity{
		"":          api.AffinityReceiver,
		"receiver":  api.AffinityReceiver,
		" Sender ":  api.AffinitySender,
		"CONDUCTOR": api.AffinityConductor,
	} {
		got, err := control.ParseAffinity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := control.ParseAffinity("gpu")
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}
