package sqlitedb

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpenRunsMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merchanthaus.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, table := range []string{"leads", "merchant_applications", migrationTable} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s: %v", table, err)
		}
	}

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var applied int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ` + migrationTable).Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 2 {
		t.Fatalf("expected 2 recorded migrations, got %d", applied)
	}
}

func TestUpSection(t *testing.T) {
	got := upSection("-- +migrate Up\nCREATE TABLE a (id TEXT);\n-- +migrate Down\nDROP TABLE a;\n")
	if got != "\nCREATE TABLE a (id TEXT);\n" {
		t.Fatalf("unexpected up section %q", got)
	}
	if got := upSection("SELECT 1;"); got != "SELECT 1;" {
		t.Fatalf("expected whole file without markers, got %q", got)
	}
}

func TestMillisRoundTrip(t *testing.T) {
	ts := time.Date(2026, 4, 2, 15, 4, 5, 6_000_000, time.FixedZone("CST", -6*3600))
	if got := MillisToTime(TimeToMillis(ts)); !got.Equal(ts) {
		t.Fatalf("expected %v, got %v", ts, got)
	}
	if !MillisToTime(TimeToMillis(time.Time{})).IsZero() {
		t.Fatalf("zero time should survive")
	}
}
