package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/penwyp/go-kiln-monitor/internal/config"
)

func TestServeFlagDefaults(t *testing.T) {
	tests := []struct {
		flag     string
		expected string
	}{
		{"addr", ":8080"},
		{"db", ""},
		{"seed", "42"},
		{"log-level", "info"},
		{"log-format", "json"},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f := serveCmd.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.expected, f.DefValue)
		})
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	v, err := config.LoadConfig("")
	require.NoError(t, err)
	v.Set("server.addr", "127.0.0.1:0")
	v.Set("server.db_path", ":memory:")
	cfg, err := config.Load(v)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, v, cfg, zap.NewNop()) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func TestServeBadStorePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	v := viper.New()
	config.SetDefaults(v)
	v.Set("server.db_path", filepath.Join(blocker, "kiln.db"))
	cfg, err := config.Load(v)
	require.NoError(t, err)

	err = serve(context.Background(), v, cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create server")
}
