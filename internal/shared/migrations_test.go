package shared

import (
	"context"
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) != 3 {
			t.Fatalf("expected 3 migrations, got %d", len(migrations))
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		if migrations[0].Name != "create_songs" {
			t.Errorf("expected first migration name create_songs, got %q", migrations[0].Name)
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		applied, err := RunMigrations(ctx, db)
		if err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		if applied != 3 {
			t.Errorf("expected 3 applied migrations, got %d", applied)
		}

		if _, err := db.Exec("SELECT 1 FROM songs LIMIT 1"); err != nil {
			t.Errorf("songs table should exist after migrations: %v", err)
		}

		var chords int
		if err := db.QueryRow("SELECT COUNT(*) FROM chord_diagrams").Scan(&chords); err != nil {
			t.Fatalf("failed to count chord diagrams: %v", err)
		}
		if chords == 0 {
			t.Error("expected seeded chord diagrams")
		}

		if err := RollbackMigration(ctx, db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		version, err := CurrentVersion(ctx, db)
		if err != nil {
			t.Fatalf("failed to get current version: %v", err)
		}
		if version != 1 {
			t.Errorf("expected version 1 after rollback, got %d", version)
		}

		if err := db.QueryRow("SELECT COUNT(*) FROM chord_diagrams").Scan(&chords); err != nil {
			t.Fatalf("failed to count chord diagrams: %v", err)
		}
		if chords != 0 {
			t.Errorf("expected seed rollback to empty chord_diagrams, got %d rows", chords)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if _, err := RunMigrations(ctx, db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		applied, err := RunMigrations(ctx, db)
		if err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}
		if applied != 0 {
			t.Errorf("expected no migrations on second run, got %d", applied)
		}
	})

	t.Run("Rollback Empty", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RollbackMigration(ctx, db); err == nil {
			t.Error("expected error rolling back with nothing applied")
		}
	})
}
