// Package storage persists uploaded blobs (profile pictures) outside the
// database and hands back an opaque external id per object.
package storage

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type FileStore interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (string, error)
	Delete(ctx context.Context, id string) error
}

// LogStore pretends to store files and only logs them, used in ENV=local.
type LogStore struct {
	logger *slog.Logger
}

func NewLogStore(logger *slog.Logger) *LogStore {
	return &LogStore{logger: logger}
}

func (s *LogStore) Upload(_ context.Context, data []byte, filename, contentType string) (string, error) {
	id := uuid.NewString()
	s.logger.Info("file upload (local dev)",
		"id", id, "filename", filename, "content_type", contentType, "size", len(data))
	return id, nil
}

func (s *LogStore) Delete(_ context.Context, id string) error {
	s.logger.Info("file delete (local dev)", "id", id)
	return nil
}
