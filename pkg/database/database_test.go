package database_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/JaimeStill/medsign/pkg/database"
	"github.com/JaimeStill/medsign/pkg/lifecycle"
)

func TestStartUnreachableDatabase(t *testing.T) {
	cfg := database.Config{User: "medsign", Port: 1, ConnTimeout: "500ms"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	sys, err := database.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sys.Connection().Close()

	if got := sys.Connection().Stats().MaxOpenConnections; got != 25 {
		t.Errorf("max open conns = %d, want 25", got)
	}

	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	err = lc.WaitForStartup()
	if !errors.Is(err, database.ErrNotReady) {
		t.Errorf("WaitForStartup() = %v, want ErrNotReady", err)
	}
	if lc.Ready() {
		t.Error("coordinator should not be ready with an unreachable database")
	}
}
