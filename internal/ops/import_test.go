package ops

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/vocab/internal/card"
	"github.com/hpungsan/vocab/internal/db"
	"github.com/hpungsan/vocab/internal/errors"
)

func writeImportFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "import.jsonl")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func recordLine(t *testing.T, r card.Record) string {
	t.Helper()
	data, err := json.Marshal(r)
	require.NoError(t, err)
	return string(data)
}

const testHeader = `{"_vocab_export":true,"schema_version":"1.0","exported_at":1706000000}`

func TestImport_ErrorMode(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	path := writeImportFile(t,
		testHeader,
		recordLine(t, card.Record{Word: "gato", TranslationEN: "cat", Box: 3, NextReview: "2024-02-01", FirstSeen: "2024-01-01"}),
		recordLine(t, card.Record{Word: "perro", TranslationEN: "dog"}),
	)

	out, err := Import(ctx, database, ImportInput{Path: path, Today: day(2024, 1, 15)})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Imported)
	assert.Zero(t, out.Skipped)
	assert.Empty(t, out.Errors)

	gato, err := db.GetByWord(ctx, database, "gato")
	require.NoError(t, err)
	assert.Equal(t, 3, gato.Box)
	assert.Equal(t, day(2024, 2, 1), gato.NextReview)

	// Missing schedule defaults to box 1, due on import day
	perro, err := db.GetByWord(ctx, database, "perro")
	require.NoError(t, err)
	assert.Equal(t, 1, perro.Box)
	assert.Equal(t, day(2024, 1, 15), perro.NextReview)
}

func TestImport_ErrorModeCollisionIsAtomic(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	seedCard(t, database, "perro", 4, day(2024, 1, 1))

	path := writeImportFile(t,
		testHeader,
		recordLine(t, card.Record{Word: "gato", TranslationEN: "cat"}),
		recordLine(t, card.Record{Word: "perro", TranslationEN: "dog", Box: 1}),
	)

	out, err := Import(ctx, database, ImportInput{Path: path})
	require.NoError(t, err)
	assert.Zero(t, out.Imported)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, ImportCodeCollision, out.Errors[0].Code)
	assert.Equal(t, "perro", out.Errors[0].Word)
	assert.Equal(t, 3, out.Errors[0].Line)

	exists, err := db.Exists(ctx, database, "gato")
	require.NoError(t, err)
	assert.False(t, exists, "rolled back")

	box, err := db.GetCardBox(ctx, database, "perro")
	require.NoError(t, err)
	assert.Equal(t, 4, box)
}

func TestImport_ErrorModeDuplicateInFile(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	path := writeImportFile(t,
		recordLine(t, card.Record{Word: "gato"}),
		recordLine(t, card.Record{Word: "gato"}),
	)

	out, err := Import(ctx, database, ImportInput{Path: path})
	require.NoError(t, err)
	assert.Zero(t, out.Imported)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, ImportCodeCollision, out.Errors[0].Code)

	exists, err := db.Exists(ctx, database, "gato")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestImport_ErrorModeParseErrors(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	path := writeImportFile(t,
		testHeader,
		recordLine(t, card.Record{Word: "gato"}),
		`{not json`,
		`{"word":"   "}`,
	)

	out, err := Import(ctx, database, ImportInput{Path: path})
	require.NoError(t, err)
	assert.Zero(t, out.Imported)
	require.Len(t, out.Errors, 2)
	assert.Equal(t, ImportCodeParse, out.Errors[0].Code)
	assert.Equal(t, 3, out.Errors[0].Line)
	assert.Equal(t, ImportCodeInvalid, out.Errors[1].Code)
	assert.Equal(t, 4, out.Errors[1].Line)

	exists, err := db.Exists(ctx, database, "gato")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestImport_ReplaceMode(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	seedCard(t, database, "perro", 4, day(2024, 1, 1))

	path := writeImportFile(t,
		testHeader,
		recordLine(t, card.Record{Word: "perro", TranslationEN: "hound", Box: 2, NextReview: "2024-03-01", FirstSeen: "2023-12-01"}),
		`garbage`,
		recordLine(t, card.Record{Word: "gato", TranslationEN: "cat"}),
	)

	out, err := Import(ctx, database, ImportInput{Path: path, Mode: ImportModeReplace})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Imported)
	assert.Equal(t, 1, out.Skipped)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, ImportCodeParse, out.Errors[0].Code)

	perro, err := db.GetByWord(ctx, database, "perro")
	require.NoError(t, err)
	assert.Equal(t, "hound", perro.TranslationEN)
	assert.Equal(t, 2, perro.Box)
	assert.Equal(t, day(2024, 3, 1), perro.NextReview)
}

func TestImport_InvalidMode(t *testing.T) {
	database := setupTestDB(t)
	path := writeImportFile(t, testHeader)

	_, err := Import(context.Background(), database, ImportInput{Path: path, Mode: "rename"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestImport_MissingFile(t *testing.T) {
	database := setupTestDB(t)

	_, err := Import(context.Background(), database, ImportInput{Path: filepath.Join(t.TempDir(), "nope.jsonl")})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestImport_ClampsBox(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	path := writeImportFile(t, `{"word":"alto","box":9,"known":false}`)

	_, err := Import(ctx, database, ImportInput{Path: path})
	require.NoError(t, err)

	box, err := db.GetCardBox(ctx, database, "alto")
	require.NoError(t, err)
	assert.Equal(t, 5, box)
}
