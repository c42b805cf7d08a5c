package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/shared"
	"github.com/desertthunder/ambiencectl/internal/store"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestPreferenceRepository(t *testing.T) {
	t.Run("Set and Get", func(t *testing.T) {
		repo := NewPreferenceRepository(setupTestDB(t))

		if err := repo.Set("ai-theme", "blue"); err != nil {
			t.Fatalf("failed to set preference: %v", err)
		}

		p, err := repo.Get("ai-theme")
		if err != nil {
			t.Fatalf("failed to get preference: %v", err)
		}
		if p.Value != "blue" {
			t.Errorf("expected blue, got %s", p.Value)
		}
		if p.UpdatedAt.IsZero() {
			t.Error("expected updated_at to be set")
		}
	})

	t.Run("Set overwrites", func(t *testing.T) {
		repo := NewPreferenceRepository(setupTestDB(t))
		_ = repo.Set("k", "one")
		_ = repo.Set("k", "two")

		p, err := repo.Get("k")
		if err != nil {
			t.Fatalf("failed to get preference: %v", err)
		}
		if p.Value != "two" {
			t.Errorf("expected two, got %s", p.Value)
		}

		all, _ := repo.List()
		if len(all) != 1 {
			t.Errorf("expected a single row, got %d", len(all))
		}
	})

	t.Run("Set rejects blank key", func(t *testing.T) {
		repo := NewPreferenceRepository(setupTestDB(t))
		if err := repo.Set("  ", "x"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewPreferenceRepository(setupTestDB(t))
		if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewPreferenceRepository(setupTestDB(t))
		_ = repo.Set("k", "v")

		if err := repo.Delete("k"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if err := repo.Delete("k"); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound on second delete, got %v", err)
		}
	})

	t.Run("List is ordered by key", func(t *testing.T) {
		repo := NewPreferenceRepository(setupTestDB(t))
		_ = repo.Set("b", "2")
		_ = repo.Set("a", "1")

		prefs, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(prefs) != 2 || prefs[0].Key != "a" || prefs[1].Key != "b" {
			t.Errorf("unexpected order: %+v", prefs)
		}
	})

	t.Run("Theme", func(t *testing.T) {
		repo := NewPreferenceRepository(setupTestDB(t))

		theme, err := repo.LoadTheme()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if theme.Name != models.DefaultThemeName {
			t.Errorf("expected default theme, got %s", theme.Name)
		}

		if err := repo.SaveTheme(" Purple "); err != nil {
			t.Fatalf("failed to save theme: %v", err)
		}
		theme, _ = repo.LoadTheme()
		if theme.Name != "purple" {
			t.Errorf("expected purple, got %s", theme.Name)
		}

		if err := repo.SaveTheme("neon"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}

		_ = repo.Set(models.ThemePreferenceKey, "neon")
		theme, _ = repo.LoadTheme()
		if theme.Name != models.DefaultThemeName {
			t.Errorf("expected unknown stored preset to fall back, got %s", theme.Name)
		}
	})

	t.Run("Mode", func(t *testing.T) {
		repo := NewPreferenceRepository(setupTestDB(t))
		if repo.LoadMode() != models.ModeMusic {
			t.Error("expected music by default")
		}
		if err := repo.SaveMode(models.ModeAmbience); err != nil {
			t.Fatalf("failed to save mode: %v", err)
		}
		if repo.LoadMode() != models.ModeAmbience {
			t.Error("expected ambience")
		}
	})
}

func TestSaveHistoryRepository(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	newRecord := func(mode models.Mode, name string, count int, sentAt time.Time) *models.SaveRecord {
		rec := models.NewSaveRecord(mode, name, count)
		rec.SetSentAt(sentAt)
		return rec
	}

	t.Run("Create and Get", func(t *testing.T) {
		repo := NewSaveHistoryRepository(setupTestDB(t))
		rec := newRecord(models.ModeMusic, "Chill", 3, base)

		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create: %v", err)
		}
		if rec.ID() == "" {
			t.Fatal("expected ID to be set")
		}

		got, err := repo.Get(rec.ID())
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if got.Playlist() != "Chill" || got.TrackCount() != 3 || got.Mode() != models.ModeMusic {
			t.Errorf("unexpected record %+v", got)
		}
		if got.Acknowledged() {
			t.Error("expected record to be pending")
		}
	})

	t.Run("Create validates", func(t *testing.T) {
		repo := NewSaveHistoryRepository(setupTestDB(t))
		if err := repo.Create(newRecord(models.ModeAmbience, "Chill", 1, base)); err == nil {
			t.Error("expected validation error for non-ambience name in ambience mode")
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewSaveHistoryRepository(setupTestDB(t))
		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("List newest first with limit", func(t *testing.T) {
		repo := NewSaveHistoryRepository(setupTestDB(t))
		for i, name := range []string{"A", "B", "C"} {
			_ = repo.Create(newRecord(models.ModeMusic, name, i, base.Add(time.Duration(i)*time.Minute)))
		}

		all, err := repo.List(0)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 3 || all[0].Playlist() != "C" || all[2].Playlist() != "A" {
			t.Errorf("unexpected order")
		}

		two, _ := repo.List(2)
		if len(two) != 2 {
			t.Errorf("expected 2 records, got %d", len(two))
		}
	})

	t.Run("Acknowledge matches newest pending of the mode", func(t *testing.T) {
		repo := NewSaveHistoryRepository(setupTestDB(t))
		older := newRecord(models.ModeMusic, "A", 1, base)
		newer := newRecord(models.ModeMusic, "B", 1, base.Add(time.Minute))
		amb := newRecord(models.ModeAmbience, models.AmbienceName, 1, base.Add(2*time.Minute))
		for _, rec := range []*models.SaveRecord{older, newer, amb} {
			if err := repo.Create(rec); err != nil {
				t.Fatalf("failed to create: %v", err)
			}
		}

		if err := repo.Acknowledge(models.ModeMusic, base.Add(3*time.Minute)); err != nil {
			t.Fatalf("failed to acknowledge: %v", err)
		}

		gotNewer, _ := repo.Get(newer.ID())
		gotOlder, _ := repo.Get(older.ID())
		gotAmb, _ := repo.Get(amb.ID())
		if !gotNewer.Acknowledged() || gotOlder.Acknowledged() || gotAmb.Acknowledged() {
			t.Errorf("expected only the newest music save acknowledged")
		}

		_ = repo.Acknowledge(models.ModeMusic, base.Add(4*time.Minute))
		if err := repo.Acknowledge(models.ModeMusic, base.Add(5*time.Minute)); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound with nothing pending, got %v", err)
		}
	})

	t.Run("Prune", func(t *testing.T) {
		repo := NewSaveHistoryRepository(setupTestDB(t))
		_ = repo.Create(newRecord(models.ModeMusic, "old", 0, base.Add(-48*time.Hour)))
		_ = repo.Create(newRecord(models.ModeMusic, "new", 0, base))

		n, err := repo.Prune(base.Add(-time.Hour))
		if err != nil {
			t.Fatalf("failed to prune: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 pruned, got %d", n)
		}
		left, _ := repo.List(0)
		if len(left) != 1 || left[0].Playlist() != "new" {
			t.Errorf("unexpected remaining records")
		}
	})
}

func TestSaveRecorder(t *testing.T) {
	repo := NewSaveHistoryRepository(setupTestDB(t))
	rec := NewSaveRecorder(repo)
	ctx := context.Background()

	if err := rec.AcknowledgeSave(ctx, models.ModeMusic); err != nil {
		t.Errorf("expected ack without pending save to be ignored, got %v", err)
	}

	snap := store.Snapshot{Mode: models.ModeMusic, Name: "Chill", Data: models.Playlist{"http://a": "A", "http://b": "B"}}
	if err := rec.RecordSave(ctx, snap); err != nil {
		t.Fatalf("failed to record save: %v", err)
	}

	records, _ := repo.List(0)
	if len(records) != 1 || records[0].TrackCount() != 2 || records[0].Acknowledged() {
		t.Fatalf("unexpected records")
	}

	if err := rec.AcknowledgeSave(ctx, models.ModeMusic); err != nil {
		t.Fatalf("failed to acknowledge: %v", err)
	}
	records, _ = repo.List(0)
	if !records[0].Acknowledged() {
		t.Error("expected record to be acknowledged")
	}
}
