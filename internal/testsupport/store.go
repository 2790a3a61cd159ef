package testsupport

import (
	"testing"

	"github.com/cstroie/XRayVision-sub000/internal/config"
	"github.com/cstroie/XRayVision-sub000/internal/reports"
)

// MustOpenStore opens a history store under the config's log directory and
// closes it when the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *reports.Store {
	t.Helper()
	store, err := reports.Open(cfg.Paths.LogDir)
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
