package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/portola-labs/podsearch/internal/index"
	"github.com/portola-labs/podsearch/internal/search"
)

type stubFinder struct {
	documents []index.Document
	err       error
	queries   []string
}

func (f *stubFinder) Find(ctx context.Context, query string) ([]index.Document, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.documents, nil
}

type stubSyncer struct {
	err   error
	calls int
}

func (s *stubSyncer) Sync(ctx context.Context) error {
	s.calls++
	return s.err
}

func TestHandleSearchReturnsResults(testContext *testing.T) {
	gin.SetMode(gin.TestMode)
	fullText := &stubFinder{documents: []index.Document{{
		ID:          "2",
		Title:       "Vaadin Deep Dive",
		Description: "talks about vaadin",
		Transcript:  "welcome to the show",
		CreatedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}}}
	router := newTestRouter(testContext, &stubFinder{}, fullText, &stubSyncer{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/search?q=vaadin", http.NoBody)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected status 200, got %d", recorder.Code)
	}

	var response searchResponsePayload
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		testContext.Fatalf("failed to decode response: %v", err)
	}
	if response.Strategy != search.StrategyFullText {
		testContext.Fatalf("expected default fulltext strategy, got %q", response.Strategy)
	}
	if response.Count != 1 || len(response.Results) != 1 {
		testContext.Fatalf("unexpected result count: %+v", response)
	}
	if response.Results[0].ID != "2" {
		testContext.Fatalf("unexpected result id: %q", response.Results[0].ID)
	}
	if len(fullText.queries) != 1 || fullText.queries[0] != "vaadin" {
		testContext.Fatalf("unexpected finder queries: %v", fullText.queries)
	}
}

func TestHandleSearchSelectsRelationalStrategy(testContext *testing.T) {
	gin.SetMode(gin.TestMode)
	relational := &stubFinder{}
	router := newTestRouter(testContext, relational, &stubFinder{}, &stubSyncer{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/search?q=vaadin&strategy=relational", http.NoBody)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if len(relational.queries) != 1 {
		testContext.Fatalf("expected relational finder to be used")
	}
}

func TestHandleSearchRejectsBlankQuery(testContext *testing.T) {
	gin.SetMode(gin.TestMode)
	fullText := &stubFinder{err: search.ErrBlankQuery}
	router := newTestRouter(testContext, &stubFinder{}, fullText, &stubSyncer{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/search?q=%20%20", http.NoBody)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		testContext.Fatalf("expected status 400, got %d", recorder.Code)
	}
	expected := `{"error":"blank_query"}`
	if recorder.Body.String() != expected {
		testContext.Fatalf("unexpected response body: %s", recorder.Body.String())
	}
}

func TestHandleSearchRejectsUnknownStrategy(testContext *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestRouter(testContext, &stubFinder{}, &stubFinder{}, &stubSyncer{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/search?q=vaadin&strategy=semantic", http.NoBody)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		testContext.Fatalf("expected status 400, got %d", recorder.Code)
	}
	expected := `{"error":"unknown_strategy"}`
	if recorder.Body.String() != expected {
		testContext.Fatalf("unexpected response body: %s", recorder.Body.String())
	}
}

func TestHandleSearchReportsStoreFailure(testContext *testing.T) {
	gin.SetMode(gin.TestMode)
	fullText := &stubFinder{err: errors.New("index unreachable")}
	router := newTestRouter(testContext, &stubFinder{}, fullText, &stubSyncer{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/search?q=vaadin", http.NoBody)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadGateway {
		testContext.Fatalf("expected status 502, got %d", recorder.Code)
	}
}

func TestHandleIngestRunsSyncPass(testContext *testing.T) {
	gin.SetMode(gin.TestMode)
	syncer := &stubSyncer{}
	router := newTestRouter(testContext, &stubFinder{}, &stubFinder{}, syncer)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/api/ingest", http.NoBody)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if syncer.calls != 1 {
		testContext.Fatalf("expected one sync call, got %d", syncer.calls)
	}
}

func TestHandleIngestReportsFailure(testContext *testing.T) {
	gin.SetMode(gin.TestMode)
	syncer := &stubSyncer{err: errors.New("database unreachable")}
	router := newTestRouter(testContext, &stubFinder{}, &stubFinder{}, syncer)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/api/ingest", http.NoBody)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadGateway {
		testContext.Fatalf("expected status 502, got %d", recorder.Code)
	}
}

func TestRequestIDHeaderIsSet(testContext *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestRouter(testContext, &stubFinder{}, &stubFinder{}, &stubSyncer{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if recorder.Header().Get(requestIDHeader) == "" {
		testContext.Fatalf("expected request id header to be set")
	}
}

func TestRequestIDHeaderIsPreserved(testContext *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestRouter(testContext, &stubFinder{}, &stubFinder{}, &stubSyncer{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	request.Header.Set(requestIDHeader, "caller-supplied")
	router.ServeHTTP(recorder, request)

	if recorder.Header().Get(requestIDHeader) != "caller-supplied" {
		testContext.Fatalf("expected caller-supplied request id to be preserved")
	}
}

func TestNewHTTPHandlerValidatesDependencies(testContext *testing.T) {
	if _, err := NewHTTPHandler(Dependencies{FullText: &stubFinder{}, Syncer: &stubSyncer{}}); err == nil {
		testContext.Fatalf("expected error for missing relational finder")
	}
	if _, err := NewHTTPHandler(Dependencies{Relational: &stubFinder{}, Syncer: &stubSyncer{}}); err == nil {
		testContext.Fatalf("expected error for missing fulltext finder")
	}
	if _, err := NewHTTPHandler(Dependencies{Relational: &stubFinder{}, FullText: &stubFinder{}}); err == nil {
		testContext.Fatalf("expected error for missing syncer")
	}
}

func newTestRouter(testContext *testing.T, relational, fullText search.Finder, syncer Ingestor) http.Handler {
	testContext.Helper()
	router, err := NewHTTPHandler(Dependencies{
		Relational: relational,
		FullText:   fullText,
		Syncer:     syncer,
	})
	if err != nil {
		testContext.Fatalf("failed to construct router: %v", err)
	}
	return router
}
