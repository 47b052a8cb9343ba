package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerCreateTriggersOnce(t *testing.T) {
	root := t.TempDir()
	var calls atomic.Int32

	w, err := New(root, []string{"node_modules", ".output", "package.json"}, 50*time.Millisecond,
		func() { calls.Add(1) }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Close()

	require.NoError(t, os.Mkdir(filepath.Join(root, "node_modules"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".output"), 0o755))

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "burst should be coalesced")
}

func TestNonMarkerIgnored(t *testing.T) {
	root := t.TempDir()
	var calls atomic.Int32

	w, err := New(root, []string{"node_modules"}, 20*time.Millisecond, func() { calls.Add(1) }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("hi"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestIsMarkerEvent(t *testing.T) {
	w, err := New("/srv/app", []string{"dist/client", "package.json"}, 0, func() {}, nil)
	require.NoError(t, err)
	defer w.Close()

	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "/srv/app/package.json", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/srv/app/package.json", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "/srv/app/dist", Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: "/srv/app/package.json", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "/srv/app/src", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, w.isMarkerEvent(tt.event), "%s %s", tt.event.Op, tt.event.Name)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), []string{"x"}, 0, func() {}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
