package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/shared"
)

// SaveHistoryRepository journals outbound saves.
type SaveHistoryRepository struct {
	db *sql.DB
}

// NewSaveHistoryRepository creates a new SaveHistoryRepository with the given database connection
func NewSaveHistoryRepository(db *sql.DB) *SaveHistoryRepository {
	return &SaveHistoryRepository{db: db}
}

const saveHistoryColumns = `id, mode, playlist, track_count, sent_at, acknowledged_at`

// Create inserts a new record with a generated ID
func (r *SaveHistoryRepository) Create(rec *models.SaveRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()
	rec.SetID(id)

	query := `
		INSERT INTO save_history (id, mode, playlist, track_count, sent_at, acknowledged_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var ackAt any
	if t := rec.AcknowledgedAt(); t != nil {
		ackAt = *t
	}

	if _, err := r.db.Exec(query, id, rec.Mode().String(), rec.Playlist(), rec.TrackCount(), rec.SentAt(), ackAt); err != nil {
		return fmt.Errorf("failed to insert save record: %w", err)
	}
	return nil
}

// Get retrieves a record by ID
func (r *SaveHistoryRepository) Get(id string) (*models.SaveRecord, error) {
	query := `SELECT ` + saveHistoryColumns + ` FROM save_history WHERE id = ?`

	rec, err := r.scan(r.db.QueryRow(query, id))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: save record %s", shared.ErrRecordNotFound, id)
	}
	return rec, err
}

// List retrieves the most recent records first. A limit of zero or less returns everything.
func (r *SaveHistoryRepository) List(limit int) ([]*models.SaveRecord, error) {
	query := `SELECT ` + saveHistoryColumns + ` FROM save_history ORDER BY sent_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query save history: %w", err)
	}
	defer rows.Close()

	var records []*models.SaveRecord
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

// Acknowledge marks the newest unacknowledged record for mode as acknowledged.
//
// Acknowledgments carry no request id, so they are matched to the most recent pending save of the same mode.
func (r *SaveHistoryRepository) Acknowledge(mode models.Mode, at time.Time) error {
	query := `
		UPDATE save_history
		SET acknowledged_at = ?
		WHERE id = (
			SELECT id FROM save_history
			WHERE mode = ? AND acknowledged_at IS NULL
			ORDER BY sent_at DESC, rowid DESC
			LIMIT 1
		)
	`

	result, err := r.db.Exec(query, at, mode.String())
	if err != nil {
		return fmt.Errorf("failed to acknowledge save: %w", err)
	}
	return affectedOne(result, fmt.Errorf("%w: no pending %s save", shared.ErrRecordNotFound, mode))
}

// Prune deletes records sent before cutoff and returns how many were removed.
func (r *SaveHistoryRepository) Prune(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM save_history WHERE sent_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune save history: %w", err)
	}
	return result.RowsAffected()
}

func (r *SaveHistoryRepository) scan(row rowScanner) (*models.SaveRecord, error) {
	var (
		id         string
		mode       string
		playlist   string
		trackCount int
		sentAt     time.Time
		ackAt      sql.NullTime
	)

	if err := row.Scan(&id, &mode, &playlist, &trackCount, &sentAt, &ackAt); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan save record: %w", err)
	}

	m, err := models.ParseMode(mode)
	if err != nil {
		return nil, fmt.Errorf("failed to scan save record: %w", err)
	}

	rec := models.NewSaveRecord(m, playlist, trackCount)
	rec.SetID(id)
	rec.SetSentAt(sentAt)
	if ackAt.Valid {
		rec.SetAcknowledgedAt(ackAt.Time)
	}
	return rec, nil
}
