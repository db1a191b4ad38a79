package web

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/vocab/internal/card"
	"github.com/hpungsan/vocab/internal/config"
	"github.com/hpungsan/vocab/internal/db"
	"github.com/hpungsan/vocab/internal/srs"
)

var fixedNow = time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

func setupTest(t *testing.T) *Handlers {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}

	return &Handlers{
		db:        database,
		scheduler: srs.New(nil),
		renderer:  NewRenderer(templateSub, "test", zap.NewNop()),
		logger:    zap.NewNop(),
		now:       func() time.Time { return fixedNow },
	}
}

func seedCard(t *testing.T, h *Handlers, word string, box int, next string) {
	t.Helper()
	d, err := srs.ParseDate(next)
	if err != nil {
		t.Fatal(err)
	}
	err = db.Insert(context.Background(), h.db, &card.Card{
		Word: word,
		Content: card.Content{
			TranslationEN: word + " (en)",
			Definition:    "A **bold** meaning of " + word,
			Example:       "Uso `" + word + "` aquí.",
		},
		Box:        box,
		NextReview: d,
		FirstSeen:  d,
	})
	if err != nil {
		t.Fatalf("seed card %q: %v", word, err)
	}
}

// serve routes a request through the full mux so path values are populated.
func serve(h *Handlers, req *http.Request) *httptest.ResponseRecorder {
	staticSub, _ := fs.Sub(staticFS, "static")
	rec := httptest.NewRecorder()
	securityHeaders(h.routes(staticSub)).ServeHTTP(rec, req)
	return rec
}

// --- HandleList ---

func TestHandleList_Default(t *testing.T) {
	h := setupTest(t)
	seedCard(t, h, "perro", 2, "2024-01-12")

	rec := serve(h, httptest.NewRequest("GET", "/cards", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "perro") {
		t.Error("expected word 'perro' in response")
	}
	if !strings.Contains(body, "All cards") {
		t.Error("expected heading 'All cards' in response")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("expected security headers")
	}
}

func TestHandleList_Empty(t *testing.T) {
	h := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/cards", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No cards yet") {
		t.Error("expected empty state message")
	}
}

func TestHandleList_JSON(t *testing.T) {
	h := setupTest(t)
	seedCard(t, h, "b", 1, "2024-01-10")
	seedCard(t, h, "a", 1, "2024-01-10")

	req := httptest.NewRequest("GET", "/cards?limit=1", nil)
	req.Header.Set("Accept", "application/json")
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var out struct {
		Items      []card.Record `json:"items"`
		Pagination struct {
			HasMore bool `json:"has_more"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].Word != "a" {
		t.Errorf("items = %+v, want [a]", out.Items)
	}
	if !out.Pagination.HasMore {
		t.Error("has_more = false, want true")
	}
}

// --- HandleDue ---

func TestHandleDue_OrderAndFilter(t *testing.T) {
	h := setupTest(t)
	seedCard(t, h, "b", 2, "2024-01-10")
	seedCard(t, h, "a", 2, "2024-01-10")
	seedCard(t, h, "c", 1, "2024-01-08")
	seedCard(t, h, "later", 1, "2024-01-11")

	req := httptest.NewRequest("GET", "/cards/due", nil)
	req.Header.Set("Accept", "application/json")
	rec := serve(h, req)

	var out struct {
		Items []card.Record `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var words []string
	for _, item := range out.Items {
		words = append(words, item.Word)
	}
	if strings.Join(words, ",") != "c,a,b" {
		t.Errorf("due = %v, want [c a b]", words)
	}
}

func TestHandleDue_NothingDue(t *testing.T) {
	h := setupTest(t)
	seedCard(t, h, "later", 1, "2024-02-01")

	rec := serve(h, httptest.NewRequest("GET", "/cards/due", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Nothing due") {
		t.Error("expected nothing-due message")
	}
}

func TestHandleDue_TodayParam(t *testing.T) {
	h := setupTest(t)
	seedCard(t, h, "later", 1, "2024-02-01")

	rec := serve(h, httptest.NewRequest("GET", "/cards/due?today=2024-02-01", nil))

	if !strings.Contains(rec.Body.String(), "later") {
		t.Error("expected card due on the requested date")
	}
}

func TestHandleDue_BadTodayParam(t *testing.T) {
	h := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/cards/due?today=tomorrow", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRootRedirectsToDue(t *testing.T) {
	h := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/cards/due" {
		t.Errorf("Location = %q", loc)
	}
}

// --- HandleDetail ---

func TestHandleDetail_RendersMarkdown(t *testing.T) {
	h := setupTest(t)
	seedCard(t, h, "gato", 3, "2024-01-10")

	rec := serve(h, httptest.NewRequest("GET", "/cards/gato", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>bold</strong>") {
		t.Error("expected definition rendered as markdown")
	}
	if !strings.Contains(body, "<code>gato</code>") {
		t.Error("expected example rendered as markdown")
	}
	if !strings.Contains(body, `action="/cards/gato/grade"`) {
		t.Error("expected grade form")
	}
}

func TestHandleDetail_EscapedWord(t *testing.T) {
	h := setupTest(t)
	seedCard(t, h, "árbol", 1, "2024-01-10")

	rec := serve(h, httptest.NewRequest("GET", "/cards/"+url.PathEscape("árbol"), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "árbol") {
		t.Error("expected word in page")
	}
}

func TestHandleDetail_RawHTMLEscaped(t *testing.T) {
	h := setupTest(t)
	err := db.Insert(context.Background(), h.db, &card.Card{
		Word:       "malo",
		Content:    card.Content{Definition: "<script>alert(1)</script>"},
		Box:        1,
		NextReview: fixedNow,
		FirstSeen:  fixedNow,
	})
	if err != nil {
		t.Fatal(err)
	}

	rec := serve(h, httptest.NewRequest("GET", "/cards/malo", nil))

	if strings.Contains(rec.Body.String(), "<script>alert(1)</script>") {
		t.Error("raw HTML from card content must not be rendered")
	}
}

func TestHandleDetail_NotFound(t *testing.T) {
	h := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/cards/nada", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Error 404") {
		t.Error("expected error page")
	}
}

// --- HandleGrade ---

func TestHandleGrade_Form(t *testing.T) {
	h := setupTest(t)
	seedCard(t, h, "tren", 3, "2024-01-10")

	req := httptest.NewRequest("POST", "/cards/tren/grade", strings.NewReader("score=5"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(h, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/cards/due" {
		t.Errorf("Location = %q", loc)
	}

	c, err := db.GetByWord(context.Background(), h.db, "tren")
	if err != nil {
		t.Fatal(err)
	}
	if c.Box != 4 {
		t.Errorf("box = %d, want 4", c.Box)
	}
	if got := srs.FormatDate(c.NextReview); got != "2024-01-24" {
		t.Errorf("next_review = %s, want 2024-01-24", got)
	}
}

func TestHandleGrade_JSON(t *testing.T) {
	h := setupTest(t)
	seedCard(t, h, "tren", 3, "2024-01-10")

	req := httptest.NewRequest("POST", "/cards/tren/grade", strings.NewReader(`{"score":1,"today":"2024-01-12"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		BoxAfter   int    `json:"box_after"`
		NextReview string `json:"next_review"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.BoxAfter != 1 || out.NextReview != "2024-01-13" {
		t.Errorf("got box %d next %s, want 1 / 2024-01-13", out.BoxAfter, out.NextReview)
	}
}

func TestHandleGrade_InvalidScore(t *testing.T) {
	h := setupTest(t)
	seedCard(t, h, "tren", 3, "2024-01-10")

	for _, score := range []string{"7", "0", "abc", ""} {
		req := httptest.NewRequest("POST", "/cards/tren/grade", strings.NewReader("score="+score))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		rec := serve(h, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("score %q: status = %d, want 400", score, rec.Code)
		}
		var payload struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if payload.Error.Code != "INVALID_OUTCOME" {
			t.Errorf("score %q: code = %q, want INVALID_OUTCOME", score, payload.Error.Code)
		}
	}

	box, err := db.GetCardBox(context.Background(), h.db, "tren")
	if err != nil {
		t.Fatal(err)
	}
	if box != 3 {
		t.Errorf("box = %d after rejected grades, want 3", box)
	}
}

func TestHandleGrade_NotFound(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("POST", "/cards/nada/grade", strings.NewReader(`{"score":3}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(h, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleGrade_BadJSON(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("POST", "/cards/tren/grade", strings.NewReader(`{score`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := serve(h, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// --- HandleKnown ---

func TestHandleKnown(t *testing.T) {
	h := setupTest(t)
	seedCard(t, h, "hola", 1, "2024-01-10")

	req := httptest.NewRequest("POST", "/cards/hola/known", strings.NewReader("known=true"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(h, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	c, err := db.GetByWord(context.Background(), h.db, "hola")
	if err != nil {
		t.Fatal(err)
	}
	if !c.Known {
		t.Error("known = false, want true")
	}

	req = httptest.NewRequest("POST", "/cards/hola/known", strings.NewReader("known=false"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec = serve(h, req)

	var out card.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Known {
		t.Error("known = true after clearing")
	}
}

// --- HandleStats ---

func TestHandleStats(t *testing.T) {
	h := setupTest(t)
	seedCard(t, h, "uno", 1, "2024-01-10")
	seedCard(t, h, "dos", 4, "2024-03-01")

	rec := serve(h, httptest.NewRequest("GET", "/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>2</strong> cards") {
		t.Error("expected total count")
	}
	if !strings.Contains(body, "<strong>1</strong> due on 2024-01-10") {
		t.Error("expected due count")
	}
}

func TestHandleStats_JSON(t *testing.T) {
	h := setupTest(t)
	seedCard(t, h, "uno", 1, "2024-01-10")

	req := httptest.NewRequest("GET", "/stats", nil)
	req.Header.Set("Accept", "application/json")
	rec := serve(h, req)

	var out struct {
		Total     int            `json:"total"`
		DueToday  int            `json:"due_today"`
		Intervals map[string]int `json:"intervals"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Total != 1 || out.DueToday != 1 {
		t.Errorf("stats = %+v", out)
	}
	if out.Intervals["5"] != 30 {
		t.Errorf("intervals[5] = %d, want 30", out.Intervals["5"])
	}
}

// --- Server ---

func TestNewServer(t *testing.T) {
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	cfg := config.DefaultConfig()
	cfg.Web.Port = 9123

	srv, err := NewServer(database, cfg, "test", nil)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	if srv.Addr != "127.0.0.1:9123" {
		t.Errorf("Addr = %q", srv.Addr)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/static/style.css", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("static status = %d, want 200", rec.Code)
	}
}

// --- helpers ---

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 20},
		{"limit=5", 5},
		{"limit=abc", 20},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/cards?"+tt.query, nil)
		if got := parseIntParam(req, "limit", 20); got != tt.want {
			t.Errorf("parseIntParam(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestParseBoolParam(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"include_known=true", true},
		{"include_known=1", true},
		{"include_known=yes", false},
		{"", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/cards?"+tt.query, nil)
		if got := parseBoolParam(req, "include_known"); got != tt.want {
			t.Errorf("parseBoolParam(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
