package services

import (
	"mime/multipart"

	"github.com/appcontrol-api/logging"
	"github.com/appcontrol-api/metrics"
	"github.com/appcontrol-api/storage"
)

// FileStore persists uploaded files; *storage.LocalStore implements it
type FileStore interface {
	Save(purpose storage.Purpose, header *multipart.FileHeader, allowed []string) (*storage.Stored, error)
	Remove(url string) error
	Path(url string) (string, error)
}

// discard removes a file whose metadata never made it to the database or
// no longer references it. Failures are logged and counted as orphans.
func discard(store FileStore, url string) {
	if url == "" {
		return
	}
	if err := store.Remove(url); err != nil {
		metrics.RecordOrphanedFile()
		logging.Warn().Err(err).Str("file_url", url).Msg("Failed to remove stored file")
	}
}
