package scripting

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsChangedScript(t *testing.T) {
	dir := t.TempDir()
	watched := writeScript(t, dir, "main.star", "x = 1\n")
	other := writeScript(t, dir, "other.txt", "ignored\n")

	w, err := NewWatcher([]string{watched}, zerolog.Nop(), 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(path string) { changed <- path })
	}()

	require.NoError(t, os.WriteFile(other, []byte("still ignored\n"), 0o644))
	require.NoError(t, os.WriteFile(watched, []byte("x = 2\n"), 0o644))

	select {
	case path := <-changed:
		want, _ := filepath.Abs(watched)
		require.Equal(t, want, path)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
