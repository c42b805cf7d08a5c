package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/shared"
	"github.com/desertthunder/ambiencectl/internal/store"
)

// SaveRecorder implements dashboard.SaveRecorder using SaveHistoryRepository.
type SaveRecorder struct {
	repo *SaveHistoryRepository
	now  func() time.Time
}

// NewSaveRecorder creates a new SaveRecorder with the given repository
func NewSaveRecorder(repo *SaveHistoryRepository) *SaveRecorder {
	return &SaveRecorder{repo: repo, now: time.Now}
}

// RecordSave journals a save that was just sent.
func (a *SaveRecorder) RecordSave(ctx context.Context, snap store.Snapshot) error {
	rec := models.NewSaveRecord(snap.Mode, snap.Name, len(snap.Data))
	rec.SetSentAt(a.now())
	if err := a.repo.Create(rec); err != nil {
		return fmt.Errorf("failed to record save: %w", err)
	}
	return nil
}

// AcknowledgeSave marks the newest pending save of mode as acknowledged.
// Returns nil when nothing is pending, which happens when the save came from another client.
func (a *SaveRecorder) AcknowledgeSave(ctx context.Context, mode models.Mode) error {
	err := a.repo.Acknowledge(mode, a.now())
	if errors.Is(err, shared.ErrRecordNotFound) {
		return nil
	}
	return err
}
