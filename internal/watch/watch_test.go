package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"archdocs/internal/index"
	"archdocs/internal/logging"
	"archdocs/internal/source"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
	done  chan struct{}
}

func newCountingRefresher() *countingRefresher {
	return &countingRefresher{done: make(chan struct{}, 16)}
}

func (r *countingRefresher) Refresh(context.Context) (index.Stats, error) {
	r.calls.Add(1)
	r.done <- struct{}{}
	return index.Stats{Documents: 1}, r.err
}

func (r *countingRefresher) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for refresh")
	}
}

func startWatcher(t *testing.T, root string, r Refresher) *Watcher {
	t.Helper()

	w, err := New(root, r, Options{Debounce: 100 * time.Millisecond}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		_ = w.Close()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("Run did not return")
		}
	})
	return w
}

func TestWatcher_RefreshesOnMarkdownChange(t *testing.T) {
	root := t.TempDir()
	r := newCountingRefresher()
	startWatcher(t, root, r)

	require.NoError(t, os.WriteFile(filepath.Join(root, "adr.md"), []byte("# ADR"), 0o644))
	r.wait(t)
	assert.EqualValues(t, 1, r.calls.Load())
}

func TestWatcher_Debounces(t *testing.T) {
	root := t.TempDir()
	r := newCountingRefresher()
	startWatcher(t, root, r)

	for _, name := range []string{"a.md", "b.md", "c.md", "d.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("# x"), 0o644))
	}
	r.wait(t)

	time.Sleep(400 * time.Millisecond)
	assert.EqualValues(t, 1, r.calls.Load())
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	r := newCountingRefresher()
	startWatcher(t, root, r)

	sub := filepath.Join(root, "ADRs")
	require.NoError(t, os.Mkdir(sub, 0o755))
	r.wait(t)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "adr-001.md"), []byte("# ADR"), 0o644))
	r.wait(t)
	assert.GreaterOrEqual(t, r.calls.Load(), int32(2))
}

func TestWatcher_WatchesExistingSubdirectories(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "StyleGuides", "go")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	r := newCountingRefresher()
	startWatcher(t, root, r)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "naming.md"), []byte("# Naming"), 0o644))
	r.wait(t)
}

func TestWatcher_RefreshErrorKeepsRunning(t *testing.T) {
	root := t.TempDir()
	r := newCountingRefresher()
	r.err = errors.New("scan failed")
	startWatcher(t, root, r)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# a"), 0o644))
	r.wait(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.md"), []byte("# b"), 0o644))
	r.wait(t)
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	w, err := New(t.TempDir(), newCountingRefresher(), Options{}, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, w.Run(ctx))
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), newCountingRefresher(), Options{}, nil)
	assert.Error(t, err)
}

func TestWatcher_HandleEvent(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "ADRs")
	require.NoError(t, os.Mkdir(dir, 0o755))
	skipped := filepath.Join(root, "node_modules")
	require.NoError(t, os.Mkdir(skipped, 0o755))

	logger, _ := logging.NewTestLogger()
	w, err := New(root, newCountingRefresher(), Options{}, logger)
	require.NoError(t, err)
	defer w.Close()

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"markdown create", filepath.Join(root, "a.md"), fsnotify.Create, true},
		{"markdown write", filepath.Join(root, "a.md"), fsnotify.Write, true},
		{"markdown remove", filepath.Join(root, "a.md"), fsnotify.Remove, true},
		{"uppercase extension", filepath.Join(root, "A.MD"), fsnotify.Write, true},
		{"chmod only", filepath.Join(root, "a.md"), fsnotify.Chmod, false},
		{"other file", filepath.Join(root, "notes.txt"), fsnotify.Write, false},
		{"other file removed", filepath.Join(root, "notes.txt"), fsnotify.Remove, false},
		{"hidden file", filepath.Join(root, ".draft.md"), fsnotify.Write, false},
		{"directory created", dir, fsnotify.Create, true},
		{"skipped directory created", skipped, fsnotify.Create, false},
		{"directory removed", filepath.Join(root, "Old"), fsnotify.Remove, true},
		{"directory renamed", filepath.Join(root, "Old"), fsnotify.Rename, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.handleEvent(fsnotify.Event{Name: tt.path, Op: tt.op})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForSource(t *testing.T) {
	root := t.TempDir()
	local, err := source.NewLocalSource(root, nil, 0, nil)
	require.NoError(t, err)
	defer local.Close()

	w, err := ForSource(local, newCountingRefresher(), Options{}, nil)
	require.NoError(t, err)
	_ = w.Close()

	_, err = ForSource(remoteSource{}, newCountingRefresher(), Options{}, nil)
	assert.ErrorIs(t, err, ErrNotWatchable)
}

type remoteSource struct{}

func (remoteSource) List(context.Context, string) ([]source.Entry, error) { return nil, nil }
func (remoteSource) Fetch(context.Context, string) (string, error) { return "", nil }
func (remoteSource) Describe() string { return "github:acme/docs" }
