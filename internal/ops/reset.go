package ops

import (
	"fmt"
	"os"

	"github.com/jobman-sh/jobman/internal/config"
	"github.com/jobman-sh/jobman/internal/store"
)

// Reset wipes all jobman state on this host's storage path: the store file,
// every log directory, and the supervisor logs. The schema is recreated
// empty so the next operation starts clean.
func Reset(cfg *config.Config, hostID string) error {
	if err := store.Destroy(cfg.DBPath); err != nil {
		return fmt.Errorf("failed to remove store: %w", err)
	}
	for _, dir := range []string{cfg.StdioPath, cfg.LogPath} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}

	st, err := store.Open(cfg.DBPath, hostID)
	if err != nil {
		return fmt.Errorf("failed to recreate store: %w", err)
	}
	return st.Close()
}
