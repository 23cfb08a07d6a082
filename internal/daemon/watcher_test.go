package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/1broseidon/spanwin/internal/logging"
)

func TestWatcher_CoalescesChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	watched := filepath.Join(dir, "config.yaml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(watched, []byte("fullscreen: false\n"), 0o644))

	w, err := NewWatcher(50*time.Millisecond, logging.Discard())
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.SetFiles(watched, ""))

	changes := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, func() { changes <- struct{}{} })

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(watched, []byte("fullscreen: true\n"), 0o644))
	}

	select {
	case <-changes:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a change notification")
	}

	select {
	case <-changes:
		t.Fatal("expected writes to be coalesced into one notification")
	case <-time.After(300 * time.Millisecond):
	}
}
