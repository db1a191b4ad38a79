package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/vocab/internal/errors"
	"github.com/hpungsan/vocab/internal/srs"
)

// decode unmarshals MCP request arguments into a typed struct.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

// parseToday reads an optional YYYY-MM-DD argument. Empty means "now".
func parseToday(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	d, err := srs.ParseDate(s)
	if err != nil {
		return time.Time{}, errors.NewInvalidRequest(fmt.Sprintf("today must be YYYY-MM-DD, got %q", s))
	}
	return d, nil
}
