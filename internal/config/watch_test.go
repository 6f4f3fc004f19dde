package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricelab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("watch:\n  symbols: [CVX]\n"), 0o644))

	updates := make(chan *Config, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := &Watcher{Path: path}
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx, func(c *Config) {
		select {
		case updates <- c:
		default:
		}
	}) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("watch:\n  symbols: [CVX, XOM]\n"), 0o644))

	// a write may surface as several events, the last one carries the full file
	deadline := time.After(5 * time.Second)
	for found := false; !found; {
		select {
		case cfg := <-updates:
			found = len(cfg.Watch.Symbols) == 2
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestWatcher_SkipsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricelab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hmm:\n  covariance_type: tied\n"), 0o644))

	called := false
	w := &Watcher{Path: path}
	w.reload(func(*Config) { called = true })
	assert.False(t, called)
}
