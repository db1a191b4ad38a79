package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/vocab/internal/config"
)

func TestInit_Layout(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "nested", ".vocab")

	database, err := Init(baseDir)
	require.NoError(t, err)
	defer database.Close()

	assert.FileExists(t, filepath.Join(baseDir, "vocab.db"))
	assert.DirExists(t, filepath.Join(baseDir, "exports"))

	var journalMode string
	require.NoError(t, database.QueryRow("PRAGMA journal_mode;").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)
}

func TestInit_Schema(t *testing.T) {
	database, err := Init(t.TempDir())
	require.NoError(t, err)
	defer database.Close()

	objects := []struct {
		kind string
		name string
	}{
		{"table", "cards"},
		{"table", "review_log"},
		{"index", "idx_cards_due"},
		{"index", "idx_review_log_word"},
		{"index", "idx_review_log_reviewed_at"},
		{"index", "idx_review_log_reviewed_on"},
	}
	for _, obj := range objects {
		var name string
		err := database.QueryRow("SELECT name FROM sqlite_master WHERE type=? AND name=?", obj.kind, obj.name).Scan(&name)
		assert.NoError(t, err, "%s %s missing", obj.kind, obj.name)
	}
}

func TestInit_CheckConstraints(t *testing.T) {
	database, err := Init(t.TempDir())
	require.NoError(t, err)
	defer database.Close()

	_, err = database.Exec(`INSERT INTO cards (word, first_seen, box, next_review) VALUES ('x', '2024-01-01', 9, '2024-01-01')`)
	assert.Error(t, err, "box 9 accepted")

	_, err = database.Exec(`INSERT INTO review_log (id, word, score, box_before, box_after, next_review, reviewed_at)
		VALUES ('r1', 'x', 6, 1, 2, '2024-01-04', 0)`)
	assert.Error(t, err, "score 6 accepted")
}

func TestInit_Reopen(t *testing.T) {
	tmpDir := t.TempDir()

	first, err := Init(tmpDir)
	require.NoError(t, err)
	_, err = first.Exec(`INSERT INTO cards (word, first_seen, next_review) VALUES ('sol', '2024-01-01', '2024-01-01')`)
	require.NoError(t, err)
	first.Close()

	// Migrations are skipped on an up-to-date file and data survives
	second, err := Init(tmpDir)
	require.NoError(t, err)
	defer second.Close()

	version, err := GetUserVersion(second)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)

	var n int
	require.NoError(t, second.QueryRow(`SELECT COUNT(*) FROM cards`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestMigrate_BackfillsReviewedOn(t *testing.T) {
	tmpDir := t.TempDir()

	// Roll a fresh file back to the version 1 layout
	first, err := Init(tmpDir)
	require.NoError(t, err)
	_, err = first.Exec(`
		DROP INDEX idx_review_log_reviewed_on;
		ALTER TABLE review_log DROP COLUMN reviewed_on;
		INSERT INTO review_log (id, word, score, box_before, box_after, next_review, reviewed_at)
		VALUES ('r1', 'sol', 4, 1, 2, '2024-01-13', 1704888000);
	`)
	require.NoError(t, err)
	require.NoError(t, SetUserVersion(first, 1))
	first.Close()

	second, err := Init(tmpDir)
	require.NoError(t, err)
	defer second.Close()

	version, err := GetUserVersion(second)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	var on, want string
	require.NoError(t, second.QueryRow(`SELECT reviewed_on FROM review_log WHERE id = 'r1'`).Scan(&on))
	require.NoError(t, second.QueryRow(`SELECT date(1704888000, 'unixepoch', 'localtime')`).Scan(&want))
	assert.Equal(t, want, on)
}

func TestUserVersion_Set(t *testing.T) {
	database, err := Init(t.TempDir())
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, SetUserVersion(database, 42))
	version, err := GetUserVersion(database)
	require.NoError(t, err)
	assert.Equal(t, 42, version)
}

func TestOpen_CustomPath(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "data", "cards.db")

	database, err := Open(filepath.Join(tmpDir, "home"), dbPath)
	require.NoError(t, err)
	defer database.Close()

	assert.FileExists(t, dbPath)
	assert.DirExists(t, filepath.Join(tmpDir, "home", "exports"))
	_, err = os.Stat(filepath.Join(tmpDir, "home", "vocab.db"))
	assert.True(t, os.IsNotExist(err), "default database created despite custom path")
}

func TestConfigurePool(t *testing.T) {
	database, err := Init(t.TempDir())
	require.NoError(t, err)
	defer database.Close()

	ConfigurePool(database, nil)

	cfg := config.DefaultConfig()
	cfg.DBMaxOpenConns = 3
	ConfigurePool(database, cfg)
	assert.Equal(t, 3, database.Stats().MaxOpenConnections)
}
