package models

import (
	"fmt"
	"time"
)

// SaveRecord journals one outbound save and, once it arrives, its acknowledgment.
type SaveRecord struct {
	id             string
	mode           Mode
	playlist       string
	trackCount     int
	sentAt         time.Time
	acknowledgedAt *time.Time
}

var _ Model = (*SaveRecord)(nil)

// NewSaveRecord creates an unacknowledged record for a save sent now.
func NewSaveRecord(mode Mode, playlist string, trackCount int) *SaveRecord {
	return &SaveRecord{
		mode:       mode,
		playlist:   playlist,
		trackCount: trackCount,
		sentAt:     time.Now(),
	}
}

func (r *SaveRecord) ID() string                 { return r.id }
func (r *SaveRecord) Mode() Mode                 { return r.mode }
func (r *SaveRecord) Playlist() string           { return r.playlist }
func (r *SaveRecord) TrackCount() int            { return r.trackCount }
func (r *SaveRecord) SentAt() time.Time          { return r.sentAt }
func (r *SaveRecord) AcknowledgedAt() *time.Time { return r.acknowledgedAt }
func (r *SaveRecord) Acknowledged() bool         { return r.acknowledgedAt != nil }

func (r *SaveRecord) SetID(id string)               { r.id = id }
func (r *SaveRecord) SetSentAt(t time.Time)         { r.sentAt = t }
func (r *SaveRecord) SetAcknowledgedAt(t time.Time) { r.acknowledgedAt = &t }

// Validate checks the record names a playlist and has a sane track count.
func (r *SaveRecord) Validate() error {
	if r.playlist == "" {
		return fmt.Errorf("save record playlist is required")
	}
	if r.trackCount < 0 {
		return fmt.Errorf("save record track count must not be negative")
	}
	if r.mode == ModeAmbience && r.playlist != AmbienceName {
		return fmt.Errorf("ambience saves must target %q", AmbienceName)
	}
	return nil
}
