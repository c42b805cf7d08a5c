package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/shared"
)

// PreferenceRepository stores client-owned settings as key/value pairs.
type PreferenceRepository struct {
	db *sql.DB
}

// NewPreferenceRepository creates a new PreferenceRepository with the given database connection
func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get retrieves a preference by key
func (r *PreferenceRepository) Get(key string) (*models.Preference, error) {
	query := `SELECT key, value, updated_at FROM preferences WHERE key = ?`

	p, err := r.scan(r.db.QueryRow(query, key))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: preference %q", shared.ErrRecordNotFound, key)
	}
	return p, err
}

// Set inserts or replaces a preference
func (r *PreferenceRepository) Set(key, value string) error {
	p := &models.Preference{Key: key, Value: value, UpdatedAt: time.Now()}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO preferences (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, p.Key, p.Value, p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}

// Delete removes a preference by key
func (r *PreferenceRepository) Delete(key string) error {
	result, err := r.db.Exec(`DELETE FROM preferences WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}
	return affectedOne(result, fmt.Errorf("%w: preference %q", shared.ErrRecordNotFound, key))
}

// List retrieves all preferences ordered by key
func (r *PreferenceRepository) List() ([]*models.Preference, error) {
	rows, err := r.db.Query(`SELECT key, value, updated_at FROM preferences ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	var prefs []*models.Preference
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return prefs, nil
}

// LoadTheme resolves the saved theme preset, falling back to the default when unset or unknown.
func (r *PreferenceRepository) LoadTheme() (models.Theme, error) {
	p, err := r.Get(models.ThemePreferenceKey)
	if err != nil {
		if errors.Is(err, shared.ErrRecordNotFound) {
			return models.ThemeOrDefault(models.DefaultThemeName), nil
		}
		return models.Theme{}, err
	}
	return models.ThemeOrDefault(p.Value), nil
}

// SaveTheme stores a theme preset name. Unknown presets are rejected.
func (r *PreferenceRepository) SaveTheme(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := models.LookupTheme(name); !ok {
		return fmt.Errorf("%w: unknown theme %q (available: %s)", shared.ErrInvalidInput, name, strings.Join(models.ThemeNames(), ", "))
	}
	return r.Set(models.ThemePreferenceKey, name)
}

// LoadMode returns the last saved edit mode, defaulting to music.
func (r *PreferenceRepository) LoadMode() models.Mode {
	p, err := r.Get(models.EditModePreferenceKey)
	if err != nil {
		return models.ModeMusic
	}
	mode, err := models.ParseMode(p.Value)
	if err != nil {
		return models.ModeMusic
	}
	return mode
}

// SaveMode stores the edit mode.
func (r *PreferenceRepository) SaveMode(mode models.Mode) error {
	return r.Set(models.EditModePreferenceKey, mode.String())
}

func (r *PreferenceRepository) scan(row rowScanner) (*models.Preference, error) {
	var p models.Preference
	if err := row.Scan(&p.Key, &p.Value, &p.UpdatedAt); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan preference: %w", err)
	}
	return &p, nil
}
