package config

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := writeConfig(t, "server:\n  listen_address: \"127.0.0.1:1111\"\n")

	w := NewWatcher(path, 20*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())

	reloaded := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(cfg *Config) { reloaded <- cfg })
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("server:\n  listen_address: \"127.0.0.1:2222\"\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Server.ListenAddress != "127.0.0.1:2222" {
			t.Errorf("expected reloaded listen address, got %q", cfg.Server.ListenAddress)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned error: %v", err)
	}
}

func TestWatcher_IgnoresInvalidFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := writeConfig(t, "server:\n  listen_address: \"127.0.0.1:1111\"\n")

	w := NewWatcher(path, 20*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())

	reloaded := make(chan *Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(cfg *Config) { reloaded <- cfg })
	}()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("storage:\n  backend: nope\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		t.Errorf("expected invalid config to be ignored, got %+v", cfg.Storage)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	<-done
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher("/nonexistent/dir/config.yaml", 0, nil)
	if err := w.Watch(context.Background(), func(*Config) {}); err == nil {
		t.Error("expected error for missing directory")
	}
}
