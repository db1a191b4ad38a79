package web

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/vocab/internal/errors"
	"github.com/hpungsan/vocab/internal/ops"
	"github.com/hpungsan/vocab/internal/srs"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db        *sql.DB
	scheduler *srs.Scheduler
	renderer  *Renderer
	logger    *zap.Logger
	now       func() time.Time
}

// HandleList handles GET /cards, every card in alphabetical order.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	input := ops.ListInput{
		IncludeKnown: parseBoolParam(r, "include_known"),
		Limit:        parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:       parseIntParam(r, "offset", 0),
	}

	result, err := ops.List(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData: PageData{
			Title:   "Cards",
			Version: h.renderer.version,
			Nav:     "cards",
		},
		Heading:      "All cards",
		Items:        result.Items,
		Pagination:   result.Pagination,
		IncludeKnown: input.IncludeKnown,
	})
}

// HandleDue handles GET /cards/due, the cards scheduled for today in review order.
func (h *Handlers) HandleDue(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.List(r.Context(), h.db, ops.ListInput{
		Due:    true,
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
		Today:  today,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData: PageData{
			Title:   "Due today",
			Version: h.renderer.version,
			Nav:     "due",
		},
		Heading:    "Due " + srs.FormatDate(today),
		Items:      result.Items,
		Pagination: result.Pagination,
		Due:        true,
		Today:      srs.FormatDate(today),
	})
}

// HandleDetail handles GET /cards/{word}.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	c, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{
		Word:           r.PathValue("word"),
		IncludeHistory: true,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, c)
		return
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: PageData{
			Title:   c.Word,
			Version: h.renderer.version,
			Nav:     "cards",
		},
		Card:       c,
		Definition: h.renderer.renderMarkdown(c.Definition),
		Example:    h.renderer.renderMarkdown(c.Example),
		Scores:     []int{1, 2, 3, 4, 5},
	})
}

// gradeBody is the JSON body accepted by POST /cards/{word}/grade.
type gradeBody struct {
	Score int    `json:"score"`
	Today string `json:"today,omitempty"`
}

// HandleGrade handles POST /cards/{word}/grade with a form or JSON score.
func (h *Handlers) HandleGrade(w http.ResponseWriter, r *http.Request) {
	var body gradeBody
	if isJSONBody(r) {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid JSON body"))
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
			return
		}
		raw := r.FormValue("score")
		score, err := strconv.Atoi(raw)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidOutcome(raw))
			return
		}
		body = gradeBody{Score: score, Today: r.FormValue("today")}
	}

	today, err := parseDate(body.Today, h.now)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Grade(r.Context(), h.db, h.scheduler, ops.GradeInput{
		Word:  r.PathValue("word"),
		Score: body.Score,
		Today: today,
		Now:   h.now(),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.logger.Info("card graded",
		zap.String("word", result.Word),
		zap.Int("score", result.Score),
		zap.Int("box_after", result.BoxAfter),
	)

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/cards/due", http.StatusSeeOther)
}

// HandleKnown handles POST /cards/{word}/known; form field known=false clears the flag.
func (h *Handlers) HandleKnown(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	known := r.FormValue("known") != "false"

	result, err := ops.MarkKnown(r.Context(), h.db, ops.MarkKnownInput{
		Word:  r.PathValue("word"),
		Known: known,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/cards/"+url.PathEscape(result.Word), http.StatusSeeOther)
}

// HandleStats handles GET /stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	stats, err := ops.Stats(r.Context(), h.db, h.scheduler, ops.StatsInput{Today: today})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, stats)
		return
	}

	boxes := make([]BoxRow, 0, srs.MaxBox)
	for box := srs.MinBox; box <= srs.MaxBox; box++ {
		boxes = append(boxes, BoxRow{
			Box:      box,
			Count:    stats.ByBox[box],
			Interval: stats.Intervals.Days(box),
		})
	}

	h.renderer.renderPage(w, "stats", StatsPageData{
		PageData: PageData{
			Title:   "Statistics",
			Version: h.renderer.version,
			Nav:     "stats",
		},
		Stats: stats,
		Boxes: boxes,
	})
}

// today reads the optional ?today=YYYY-MM-DD parameter.
func (h *Handlers) today(r *http.Request) (time.Time, error) {
	return parseDate(r.URL.Query().Get("today"), h.now)
}

// parseDate parses s as a calendar date, falling back to now() when empty.
func parseDate(s string, now func() time.Time) (time.Time, error) {
	if s == "" {
		return srs.Day(now()), nil
	}
	d, err := srs.ParseDate(s)
	if err != nil {
		return time.Time{}, errors.NewInvalidRequest(fmt.Sprintf("today must be YYYY-MM-DD, got %q", s))
	}
	return d, nil
}

// isJSONBody reports whether the request body is JSON.
func isJSONBody(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
