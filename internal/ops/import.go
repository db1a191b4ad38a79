package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hpungsan/vocab/internal/card"
	"github.com/hpungsan/vocab/internal/db"
	"github.com/hpungsan/vocab/internal/errors"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on collision (atomic)
	ImportModeReplace ImportMode = "replace" // overwrite on collision
)

// Import error codes
const (
	ImportCodeParse     = "PARSE_ERROR"
	ImportCodeInvalid   = "INVALID_RECORD"
	ImportCodeRead      = "READ_ERROR"
	ImportCodeCollision = "WORD_COLLISION"
)

// maxImportLine bounds a single JSONL line.
const maxImportLine = 1 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path  string     // required
	Mode  ImportMode // default: error
	Today time.Time  // fills missing dates; default: now
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError represents an error that occurred during import.
type ImportError struct {
	Line    int    `json:"line,omitempty"`
	Word    string `json:"word,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type importRecord struct {
	line int
	card *card.Card
}

// Import reads cards from a JSONL export file.
//
// In error mode nothing is written if any line fails to parse or any word
// already exists. In replace mode bad lines are skipped and existing cards
// are overwritten.
func Import(ctx context.Context, database *sql.DB, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace")
	}
	if err := ValidatePath(input.Path, PathCheckRead); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := err.(*errors.VocabError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseExportFile(file, resolveToday(input.Today))

	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		return &ImportOutput{Errors: parseErrors}, nil
	}

	switch input.Mode {
	case ImportModeError:
		return importModeError(ctx, database, records)
	default:
		return importModeReplace(ctx, database, records, parseErrors)
	}
}

// parseExportFile parses a JSONL export stream into cards.
func parseExportFile(r io.Reader, today time.Time) ([]importRecord, []ImportError) {
	var records []importRecord
	var parseErrors []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record card.Record
		if err := json.Unmarshal(line, &record); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    ImportCodeParse,
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		if record.VocabExport {
			continue
		}

		c, err := record.ToCard(today)
		if err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    ImportCodeInvalid,
				Message: err.Error(),
			})
			continue
		}

		records = append(records, importRecord{line: lineNum, card: c})
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    ImportCodeRead,
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}

// importModeError imports all records in one transaction, aborting on the first collision.
func importModeError(ctx context.Context, database *sql.DB, records []importRecord) (*ImportOutput, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, rec := range records {
		exists, err := db.Exists(ctx, tx, rec.card.Word)
		if err != nil {
			return nil, err
		}
		if exists {
			return &ImportOutput{Errors: []ImportError{{
				Line:    rec.line,
				Word:    rec.card.Word,
				Code:    ImportCodeCollision,
				Message: fmt.Sprintf("card %q already exists", rec.card.Word),
			}}}, nil
		}

		if err := db.Insert(ctx, tx, rec.card); err != nil {
			if errors.Is(err, errors.ErrAlreadyExists) {
				// Duplicate word within the file itself
				return &ImportOutput{Errors: []ImportError{{
					Line:    rec.line,
					Word:    rec.card.Word,
					Code:    ImportCodeCollision,
					Message: fmt.Sprintf("card %q appears more than once", rec.card.Word),
				}}}, nil
			}
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &ImportOutput{Imported: len(records), Errors: []ImportError{}}, nil
}

// importModeReplace upserts every record; parse errors count as skipped.
func importModeReplace(ctx context.Context, database *sql.DB, records []importRecord, parseErrors []ImportError) (*ImportOutput, error) {
	importErrors := append([]ImportError{}, parseErrors...)
	imported := 0

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("import")
		}
		if err := db.Upsert(ctx, database, rec.card); err != nil {
			return nil, err
		}
		imported++
	}

	return &ImportOutput{
		Imported: imported,
		Skipped:  len(parseErrors),
		Errors:   importErrors,
	}, nil
}
