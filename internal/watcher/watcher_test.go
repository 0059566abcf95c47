package watcher_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tenancy/internal/config"
	"github.com/MrSnakeDoc/tenancy/internal/domain"
	"github.com/MrSnakeDoc/tenancy/internal/fsys"
	"github.com/MrSnakeDoc/tenancy/internal/watcher"
)

func installedService(t *testing.T) *domain.Service {
	t.Helper()
	cfg, err := config.ParseGlobal([]byte("services:\n  shop: {}\n"), t.TempDir())
	require.NoError(t, err)

	cat := domain.NewCatalog(cfg, fsys.NewOS())
	svc, ok := cat.Lookup("shop")
	require.True(t, ok)
	require.NoError(t, svc.EnsureDirectoriesExisting())
	require.NoError(t, svc.EnsureFilesExisting())
	return svc
}

func startWatcher(t *testing.T, svc *domain.Service) *atomic.Int32 {
	t.Helper()
	var calls atomic.Int32
	w, err := watcher.New(watcher.Config{
		Services:    []*domain.Service{svc},
		DebounceDur: 50 * time.Millisecond,
		OnChange:    func() { calls.Add(1) },
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	w.Start(ctx)
	return &calls
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	svc := installedService(t)
	calls := startWatcher(t, svc)

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(svc.RoutesFile(), []byte(fmt.Sprintf("routes: [] # %d\n", i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcher_ServiceConfigChange(t *testing.T) {
	svc := installedService(t)
	calls := startWatcher(t, svc)

	require.NoError(t, os.WriteFile(svc.ServiceConfigFile(), []byte("providers: []\n"), 0o644))

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	svc := installedService(t)
	other := filepath.Join(filepath.Dir(svc.RoutesFile()), "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("initial"), 0o644))

	calls := startWatcher(t, svc)
	require.NoError(t, os.WriteFile(other, []byte("changed"), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestWatcher_PicksUpInstalledService(t *testing.T) {
	cfg, err := config.ParseGlobal([]byte("services:\n  shop: {}\n"), t.TempDir())
	require.NoError(t, err)
	svc, ok := domain.NewCatalog(cfg, fsys.NewOS()).Lookup("shop")
	require.True(t, ok)

	calls := startWatcher(t, svc)

	require.NoError(t, svc.EnsureDirectoriesExisting())
	require.NoError(t, svc.EnsureFilesExisting())
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	before := calls.Load()
	require.NoError(t, os.WriteFile(svc.RoutesFile(), []byte("routes: []\n"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() == before+1 }, 2*time.Second, 10*time.Millisecond)
}

func TestNew_RequiresCallback(t *testing.T) {
	_, err := watcher.New(watcher.Config{}, nil)
	require.Error(t, err)
}
