package mcp

import "github.com/mark3labs/mcp-go/mcp"

var dueToolDef = mcp.NewTool("vocab_due",
	mcp.WithDescription("List cards due for review today, in review order (oldest due date, lowest box, then word). Known cards are excluded."),
	mcp.WithNumber("limit", mcp.Description("Maximum cards to return (default 20, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Cards to skip for pagination")),
	mcp.WithString("today", mcp.Description("Reference date YYYY-MM-DD (default: current date)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var fetchToolDef = mcp.NewTool("vocab_fetch",
	mcp.WithDescription("Fetch one card by word, optionally with its review history."),
	mcp.WithString("word", mcp.Required(), mcp.Description("The vocabulary word")),
	mcp.WithBoolean("include_history", mcp.Description("Include recent review log entries")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var gradeToolDef = mcp.NewTool("vocab_grade",
	mcp.WithDescription("Record one review of a card. Score 4-5 promotes one box, 3 keeps the box, 1-2 resets to box 1. Returns the new box and next review date."),
	mcp.WithString("word", mcp.Required(), mcp.Description("The vocabulary word")),
	mcp.WithNumber("score", mcp.Required(), mcp.Min(1), mcp.Max(5), mcp.Description("Recall quality from 1 (forgot) to 5 (perfect)")),
	mcp.WithString("today", mcp.Description("Review date YYYY-MM-DD (default: current date)")),
)

var knownToolDef = mcp.NewTool("vocab_known",
	mcp.WithDescription("Mark a card as known (removed from review) or clear the flag."),
	mcp.WithString("word", mcp.Required(), mcp.Description("The vocabulary word")),
	mcp.WithBoolean("known", mcp.Description("true to mark known, false to clear (default true)")),
)

var listToolDef = mcp.NewTool("vocab_list",
	mcp.WithDescription("List cards alphabetically with pagination."),
	mcp.WithBoolean("include_known", mcp.Description("Include cards marked known")),
	mcp.WithNumber("limit", mcp.Description("Maximum cards to return (default 20, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Cards to skip for pagination")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var statsToolDef = mcp.NewTool("vocab_stats",
	mcp.WithDescription("Collection statistics: totals, known, due today, cards per box, reviews logged."),
	mcp.WithString("today", mcp.Description("Reference date YYYY-MM-DD (default: current date)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var deleteToolDef = mcp.NewTool("vocab_delete",
	mcp.WithDescription("Delete a card and its review history."),
	mcp.WithString("word", mcp.Required(), mcp.Description("The vocabulary word")),
	mcp.WithDestructiveHintAnnotation(true),
)

var exportToolDef = mcp.NewTool("vocab_export",
	mcp.WithDescription("Export all cards to a JSONL file. Default path: <base>/exports/vocab-<timestamp>.jsonl"),
	mcp.WithString("path", mcp.Description("Destination .jsonl path")),
)

var importToolDef = mcp.NewTool("vocab_import",
	mcp.WithDescription("Import cards from a JSONL export. Mode 'error' is atomic and stops at the first existing word; 'replace' overwrites."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl path")),
	mcp.WithString("mode", mcp.Enum("error", "replace"), mcp.Description("Collision handling (default error)")),
)
