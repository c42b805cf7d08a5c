package models

import (
	"fmt"
	"strings"
	"time"
)

// EditModePreferenceKey stores the editor mode last used.
const EditModePreferenceKey = "edit-mode"

// Preference is a persisted, client-owned setting.
type Preference struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

var _ Model = (*Preference)(nil)

// ID returns the preference key.
func (p *Preference) ID() string { return p.Key }

// Validate requires a non-blank key.
func (p *Preference) Validate() error {
	if strings.TrimSpace(p.Key) == "" {
		return fmt.Errorf("preference key is required")
	}
	return nil
}
