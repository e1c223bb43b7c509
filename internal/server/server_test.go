package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"tamgu/internal/config"
	"tamgu/internal/core"
	"tamgu/internal/gateway"
	"tamgu/internal/llm"
	"tamgu/internal/logger"
	"tamgu/internal/store"
	"tamgu/internal/workspace"

	"github.com/PuerkitoBio/goquery"
)

const testArticle = `{"title":"바다를 지킨 영웅, 이순신","category":"역사","content":"1592년 이순신 장군은 남해에서 거북선으로 왜군을 물리쳤습니다."}`

const testAnalysis = `{
  "answers": {"who": "이순신 장군", "when": "1592년", "where": "남해", "what": "왜군을 물리침", "how": "거북선으로", "why": ""},
  "quotes": {"who": ["이순신 장군은"], "when": ["1592년"], "where": ["남해에서"], "what": ["왜군을 물리쳤습니다"], "how": ["거북선으로"], "why": []}
}`

func newTestServer(t *testing.T, gen llm.Generator) *Server {
	t.Helper()
	docs, err := store.Open(context.Background(), store.NewMemoryBackend(), "docs", logger.Discard())
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	gw := gateway.New(gen, gateway.Options{Timeout: time.Second, Logger: logger.Discard()})
	ws := workspace.New(gw, docs, workspace.Options{
		Now:    func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) },
		Logger: logger.Discard(),
	})
	return New(ws, config.Server{Host: "127.0.0.1", Port: 0, WriteTimeout: 5 * time.Second}, gen.Model())
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

type errorEnvelope struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, llm.NewFake())
	rec := do(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	health := decode[HealthResponse](t, rec)
	if health.Checks["storage"] != "ok" || health.Checks["ai"] != "fake" {
		t.Errorf("Unexpected checks %v", health.Checks)
	}
}

func TestArticleFlow(t *testing.T) {
	s := newTestServer(t, llm.NewFake(testArticle, testAnalysis))

	list := decode[ArticleListResponse](t, do(t, s, http.MethodGet, "/api/articles", nil))
	if list.Total != 2 {
		t.Fatalf("Expected 2 seed articles, got %d", list.Total)
	}

	rec := do(t, s, http.MethodPost, "/api/articles/generate", GenerateRequest{Topic: "이순신", Difficulty: "hard"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	article := decode[core.Article](t, rec)
	if article.Source != gateway.GeneratedSource || article.ReadTime != "어려움" {
		t.Errorf("Unexpected generated article %+v", article)
	}

	list = decode[ArticleListResponse](t, do(t, s, http.MethodGet, "/api/articles", nil))
	if list.Total != 3 || list.SelectedID != article.ID {
		t.Errorf("Generated article should be listed first and selected: %+v", list)
	}

	rec = do(t, s, http.MethodPost, "/api/worksheet/analyze", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	state := decode[WorksheetResponse](t, rec)
	if state.Answers.Who != "이순신 장군" || state.Answers.Why != core.Unknown {
		t.Errorf("Unexpected answers %+v", state.Answers)
	}
	if len(state.Quotes.Why) != 0 || state.Quotes.Why == nil {
		t.Errorf("Unknown answer should have an empty quote list, got %#v", state.Quotes.Why)
	}

	rec = do(t, s, http.MethodPatch, "/api/worksheet", AnswerRequest{Field: "why", Value: "나라를 지키려고"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if got := decode[WorksheetResponse](t, rec).Answers.Why; got != "나라를 지키려고" {
		t.Errorf("Answer not updated, got %q", got)
	}

	rec = do(t, s, http.MethodPost, "/api/worksheet/save", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	saved := decode[core.SavedDocument](t, rec)
	if saved.ArticleTitle != article.Title || saved.Date != "2024. 3. 1." {
		t.Errorf("Unexpected saved document %+v", saved)
	}

	docs := decode[DocumentListResponse](t, do(t, s, http.MethodGet, "/api/documents", nil))
	if docs.Total != 1 || docs.Documents[0].ID != saved.ID {
		t.Errorf("Unexpected documents %+v", docs)
	}
}

func TestSelectAndDifficulty(t *testing.T) {
	s := newTestServer(t, llm.NewFake())

	rec := do(t, s, http.MethodPost, "/api/articles/rec_2/select", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if state := decode[WorksheetResponse](t, rec); state.Article == nil || state.Article.ID != "rec_2" {
		t.Errorf("rec_2 should be selected, got %+v", state.Article)
	}

	if rec := do(t, s, http.MethodPost, "/api/articles/nope/select", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}

	rec = do(t, s, http.MethodPut, "/api/difficulty", DifficultyRequest{Difficulty: "easy"})
	if got := decode[DifficultyResponse](t, rec); got.Difficulty != core.DifficultyEasy || got.Label != "쉬움" {
		t.Errorf("Unexpected difficulty %+v", got)
	}
	if rec := do(t, s, http.MethodPut, "/api/difficulty", DifficultyRequest{Difficulty: "expert"}); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if got := decode[DifficultyResponse](t, do(t, s, http.MethodGet, "/api/difficulty", nil)); got.Difficulty != core.DifficultyEasy {
		t.Errorf("Difficulty should persist, got %s", got.Difficulty)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		gen     llm.Generator
		setup   func(s *Server)
		method  string
		path    string
		body    any
		status  int
		message string
	}{
		{
			name: "empty topic", gen: llm.NewFake(),
			method: http.MethodPost, path: "/api/articles/generate", body: GenerateRequest{Topic: " "},
			status: http.StatusBadRequest,
		},
		{
			name: "bad json body", gen: llm.NewFake(),
			method: http.MethodPost, path: "/api/articles/generate", body: "not an object",
			status: http.StatusBadRequest, message: "Invalid request body",
		},
		{
			name: "analyze without article", gen: llm.NewFake(),
			method: http.MethodPost, path: "/api/worksheet/analyze",
			status: http.StatusBadRequest,
		},
		{
			name: "unparseable generation", gen: llm.NewFake("죄송합니다"),
			method: http.MethodPost, path: "/api/articles/generate", body: GenerateRequest{Topic: "공룡"},
			status: http.StatusBadGateway, message: noticeGenerateFailed,
		},
		{
			name: "analysis service failure", gen: llm.NewFake().Push(llm.FakeResponse{Err: &llm.ServiceError{Provider: "fake", Msg: "down"}}),
			setup:  func(s *Server) { do(t, s, http.MethodPost, "/api/articles/rec_1/select", nil) },
			method: http.MethodPost, path: "/api/worksheet/analyze",
			status: http.StatusBadGateway, message: noticeAnalyzeFailed,
		},
		{
			name: "missing credential", gen: llm.Unconfigured{Err: &llm.ConfigError{Provider: "gemini", Msg: "no key"}},
			method: http.MethodPost, path: "/api/articles/generate", body: GenerateRequest{Topic: "공룡"},
			status: http.StatusServiceUnavailable, message: noticeNotConfigured,
		},
		{
			name: "invalid field", gen: llm.NewFake(),
			method: http.MethodPatch, path: "/api/worksheet", body: AnswerRequest{Field: "whom"},
			status: http.StatusBadRequest,
		},
		{
			name: "bad document id", gen: llm.NewFake(),
			method: http.MethodGet, path: "/api/documents/abc",
			status: http.StatusBadRequest, message: "Invalid document ID",
		},
		{
			name: "unknown document", gen: llm.NewFake(),
			method: http.MethodDelete, path: "/api/documents/42",
			status: http.StatusNotFound,
		},
		{
			name: "print without article", gen: llm.NewFake(),
			method: http.MethodGet, path: "/worksheet/print",
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.gen)
			if tt.setup != nil {
				tt.setup(s)
			}
			rec := do(t, s, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			env := decode[errorEnvelope](t, rec)
			if env.Error.Status != tt.status {
				t.Errorf("Envelope status = %d, want %d", env.Error.Status, tt.status)
			}
			if tt.message != "" && env.Error.Message != tt.message {
				t.Errorf("Message = %q, want %q", env.Error.Message, tt.message)
			}
		})
	}
}

func TestBusyConflict(t *testing.T) {
	fake := llm.NewFake().Push(llm.FakeResponse{Text: testArticle, Delay: 300 * time.Millisecond})
	s := newTestServer(t, fake)

	done := make(chan int)
	go func() {
		done <- do(t, s, http.MethodPost, "/api/articles/generate", GenerateRequest{Topic: "이순신"}).Code
	}()

	deadline := time.Now().Add(time.Second)
	for !s.ws.Busy() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	rec := do(t, s, http.MethodPost, "/api/articles/generate", GenerateRequest{Topic: "공룡"})
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 while busy, got %d", rec.Code)
	}
	if code := <-done; code != http.StatusCreated {
		t.Errorf("First request should succeed, got %d", code)
	}
}

func TestDocumentsLifecycle(t *testing.T) {
	s := newTestServer(t, llm.NewFake())
	do(t, s, http.MethodPost, "/api/articles/rec_1/select", nil)
	do(t, s, http.MethodPatch, "/api/worksheet", AnswerRequest{Field: "who", Value: "제임스 웹 망원경"})
	saved := decode[core.SavedDocument](t, do(t, s, http.MethodPost, "/api/worksheet/save", nil))
	path := "/api/documents/" + strconv.FormatInt(saved.ID, 10)

	if got := decode[core.SavedDocument](t, do(t, s, http.MethodGet, path, nil)); got.Answers.Who != "제임스 웹 망원경" {
		t.Errorf("Unexpected document %+v", got)
	}

	do(t, s, http.MethodPost, "/api/articles/rec_2/select", nil)
	rec := do(t, s, http.MethodPost, path+"/open", nil)
	state := decode[WorksheetResponse](t, rec)
	if !state.SavedMode || state.Article == nil || state.Article.Category != workspace.SavedCategory {
		t.Errorf("Open should show the saved worksheet, got %+v", state)
	}
	if state.Answers.Who != "제임스 웹 망원경" {
		t.Errorf("Saved answers should be restored, got %+v", state.Answers)
	}

	if rec := do(t, s, http.MethodDelete, path, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, path, nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}
}

func TestKeywords(t *testing.T) {
	s := newTestServer(t, llm.NewFake(`["화산","남극"]`))

	got := decode[KeywordsResponse](t, do(t, s, http.MethodGet, "/api/keywords", nil))
	if len(got.Keywords) != 6 {
		t.Errorf("Expected six seed keywords, got %v", got.Keywords)
	}

	got = decode[KeywordsResponse](t, do(t, s, http.MethodPost, "/api/keywords/refresh", nil))
	if strings.Join(got.Keywords, ",") != "화산,남극" {
		t.Errorf("Unexpected refreshed keywords %v", got.Keywords)
	}
}

func TestClearArticles(t *testing.T) {
	s := newTestServer(t, llm.NewFake())
	if rec := do(t, s, http.MethodDelete, "/api/articles", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
	if list := decode[ArticleListResponse](t, do(t, s, http.MethodGet, "/api/articles", nil)); list.Total != 0 {
		t.Errorf("Expected empty list, got %d", list.Total)
	}
}

func TestPrintWorksheet(t *testing.T) {
	s := newTestServer(t, llm.NewFake(testAnalysis))
	do(t, s, http.MethodPost, "/api/articles/rec_2/select", nil)

	rec := do(t, s, http.MethodGet, "/worksheet/print", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Unexpected content type %s", ct)
	}
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	if got := doc.Find("h1").Text(); got != core.RecommendedArticles()[1].Title {
		t.Errorf("Unexpected heading %q", got)
	}

	rec = do(t, s, http.MethodGet, "/worksheet/print?format=md", nil)
	if !strings.HasPrefix(rec.Body.String(), "# ") {
		t.Errorf("Expected Markdown, got %q", rec.Body.String())
	}
}

func TestFailedGenerateKeepsDifficulty(t *testing.T) {
	s := newTestServer(t, llm.NewFake("not json"))

	rec := do(t, s, http.MethodPost, "/api/articles/generate", GenerateRequest{Topic: "공룡", Difficulty: "easy"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[DifficultyResponse](t, do(t, s, http.MethodGet, "/api/difficulty", nil)); got.Difficulty != core.DifficultyMedium {
		t.Errorf("A failed generation must not change the difficulty, got %s", got.Difficulty)
	}
}

func TestConcurrentSaves(t *testing.T) {
	s := newTestServer(t, llm.NewFake())
	do(t, s, http.MethodPost, "/api/articles/rec_1/select", nil)

	const requests = 50
	codes := make(chan int, requests)
	for i := 0; i < requests; i++ {
		go func() {
			codes <- do(t, s, http.MethodPost, "/api/worksheet/save", nil).Code
		}()
	}
	for i := 0; i < requests; i++ {
		if code := <-codes; code != http.StatusCreated {
			t.Errorf("Expected 201 for every save, got %d", code)
		}
	}

	docs := decode[DocumentListResponse](t, do(t, s, http.MethodGet, "/api/documents", nil))
	if docs.Total != requests {
		t.Errorf("Expected %d documents, got %d", requests, docs.Total)
	}
}
