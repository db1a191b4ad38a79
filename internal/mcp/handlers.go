package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/vocab/internal/config"
	"github.com/hpungsan/vocab/internal/errors"
	"github.com/hpungsan/vocab/internal/ops"
	"github.com/hpungsan/vocab/internal/srs"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db        *sql.DB
	scheduler *srs.Scheduler
	baseDir   string
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, baseDir string, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		db:        db,
		scheduler: srs.New(cfg.Intervals()),
		baseDir:   baseDir,
		logger:    logger,
	}
}

// DueRequest represents the arguments for vocab_due.
type DueRequest struct {
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
	Today  string `json:"today,omitempty"`
}

// FetchRequest represents the arguments for vocab_fetch.
type FetchRequest struct {
	Word           string `json:"word"`
	IncludeHistory bool   `json:"include_history,omitempty"`
}

// GradeRequest represents the arguments for vocab_grade.
type GradeRequest struct {
	Word  string `json:"word"`
	Score int    `json:"score"`
	Today string `json:"today,omitempty"`
}

// KnownRequest represents the arguments for vocab_known.
type KnownRequest struct {
	Word  string `json:"word"`
	Known *bool  `json:"known,omitempty"`
}

// ListRequest represents the arguments for vocab_list.
type ListRequest struct {
	IncludeKnown bool `json:"include_known,omitempty"`
	Limit        int  `json:"limit,omitempty"`
	Offset       int  `json:"offset,omitempty"`
}

// StatsRequest represents the arguments for vocab_stats.
type StatsRequest struct {
	Today string `json:"today,omitempty"`
}

// DeleteRequest represents the arguments for vocab_delete.
type DeleteRequest struct {
	Word string `json:"word"`
}

// ExportRequest represents the arguments for vocab_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for vocab_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// HandleDue handles the vocab_due tool call.
func (h *Handlers) HandleDue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DueRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	today, err := parseToday(input.Today)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Due:    true,
		Limit:  input.Limit,
		Offset: input.Offset,
		Today:  today,
	})
	if err != nil {
		return h.fail("vocab_due", err), nil
	}
	return successResult(result)
}

// HandleFetch handles the vocab_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(ctx, h.db, ops.FetchInput{
		Word:           input.Word,
		IncludeHistory: input.IncludeHistory,
	})
	if err != nil {
		return h.fail("vocab_fetch", err), nil
	}
	return successResult(result)
}

// HandleGrade handles the vocab_grade tool call.
func (h *Handlers) HandleGrade(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GradeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	today, err := parseToday(input.Today)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Grade(ctx, h.db, h.scheduler, ops.GradeInput{
		Word:  input.Word,
		Score: input.Score,
		Today: today,
	})
	if err != nil {
		return h.fail("vocab_grade", err), nil
	}
	h.logger.Info("card graded",
		zap.String("word", result.Word),
		zap.Int("score", result.Score),
		zap.Int("box_before", result.BoxBefore),
		zap.Int("box_after", result.BoxAfter),
	)
	return successResult(result)
}

// HandleKnown handles the vocab_known tool call.
func (h *Handlers) HandleKnown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[KnownRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	known := true
	if input.Known != nil {
		known = *input.Known
	}

	result, err := ops.MarkKnown(ctx, h.db, ops.MarkKnownInput{Word: input.Word, Known: known})
	if err != nil {
		return h.fail("vocab_known", err), nil
	}
	return successResult(result)
}

// HandleList handles the vocab_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		IncludeKnown: input.IncludeKnown,
		Limit:        input.Limit,
		Offset:       input.Offset,
	})
	if err != nil {
		return h.fail("vocab_list", err), nil
	}
	return successResult(result)
}

// HandleStats handles the vocab_stats tool call.
func (h *Handlers) HandleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StatsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	today, err := parseToday(input.Today)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Stats(ctx, h.db, h.scheduler, ops.StatsInput{Today: today})
	if err != nil {
		return h.fail("vocab_stats", err), nil
	}
	return successResult(result)
}

// HandleDelete handles the vocab_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.db, ops.DeleteInput{Word: input.Word})
	if err != nil {
		return h.fail("vocab_delete", err), nil
	}
	return successResult(result)
}

// HandleExport handles the vocab_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.baseDir, ops.ExportInput{Path: input.Path})
	if err != nil {
		return h.fail("vocab_export", err), nil
	}
	return successResult(result)
}

// HandleImport handles the vocab_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.db, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return h.fail("vocab_import", err), nil
	}
	return successResult(result)
}

// fail logs unexpected errors and converts err to a tool error result.
func (h *Handlers) fail(tool string, err error) *mcp.CallToolResult {
	switch errors.CodeOf(err) {
	case errors.ErrInternal, errors.ErrWriteFailed:
		h.logger.Error("tool failed", zap.String("tool", tool), zap.Error(err))
	default:
		h.logger.Debug("tool rejected request", zap.String("tool", tool), zap.Error(err))
	}
	return errorResult(err)
}

// errorResult creates an MCP error result from any error.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if vocabErr, ok := err.(*errors.VocabError); ok {
		errorObj := map[string]any{
			"code":    vocabErr.Code,
			"message": vocabErr.Message,
			"status":  vocabErr.Status,
		}
		if vocabErr.Code != errors.ErrInternal && vocabErr.Details != nil {
			errorObj["details"] = vocabErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
