package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/portola-labs/podsearch/internal/display"
	"github.com/portola-labs/podsearch/internal/index"
	"github.com/portola-labs/podsearch/internal/search"
)

var (
	errMissingRelational = errors.New("relational finder dependency required")
	errMissingFullText   = errors.New("fulltext finder dependency required")
	errMissingSyncer     = errors.New("syncer dependency required")
)

// transcriptDisplayWidth bounds the transcript text returned per result.
const transcriptDisplayWidth = 512

// Ingestor triggers one ingestion pass.
type Ingestor interface {
	Sync(ctx context.Context) error
}

// Dependencies wires the HTTP surface to the core services.
type Dependencies struct {
	Relational      search.Finder
	FullText        search.Finder
	DefaultStrategy string
	Syncer          Ingestor
	Logger          *zap.Logger
}

// NewHTTPHandler builds the gin router for the search service.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Relational == nil {
		return nil, errMissingRelational
	}
	if deps.FullText == nil {
		return nil, errMissingFullText
	}
	if deps.Syncer == nil {
		return nil, errMissingSyncer
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	defaultStrategy := deps.DefaultStrategy
	if defaultStrategy == "" {
		defaultStrategy = search.StrategyFullText
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		relational:      deps.Relational,
		fullText:        deps.FullText,
		defaultStrategy: defaultStrategy,
		syncer:          deps.Syncer,
		logger:          logger,
	}

	router.GET("/healthz", handler.handleHealth)
	router.GET("/api/search", handler.handleSearch)
	router.POST("/api/ingest", handler.handleIngest)

	return router, nil
}

type httpHandler struct {
	relational      search.Finder
	fullText        search.Finder
	defaultStrategy string
	syncer          Ingestor
	logger          *zap.Logger
}

type searchResultPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Transcript  string `json:"transcript"`
	CreatedAt   string `json:"created_at"`
}

type searchResponsePayload struct {
	Query    string                `json:"query"`
	Strategy string                `json:"strategy"`
	Count    int                   `json:"count"`
	Results  []searchResultPayload `json:"results"`
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) handleSearch(c *gin.Context) {
	strategy := c.DefaultQuery("strategy", h.defaultStrategy)

	var finder search.Finder
	switch strategy {
	case search.StrategyRelational:
		finder = h.relational
	case search.StrategyFullText:
		finder = h.fullText
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_strategy"})
		return
	}

	query := c.Query("q")
	documents, err := finder.Find(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, search.ErrBlankQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "blank_query"})
			return
		}
		h.logger.Error("search failed",
			zap.String("strategy", strategy),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "search_failed"})
		return
	}

	response := searchResponsePayload{
		Query:    query,
		Strategy: strategy,
		Count:    len(documents),
		Results:  renderResults(documents),
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleIngest(c *gin.Context) {
	if err := h.syncer.Sync(c.Request.Context()); err != nil {
		h.logger.Error("ingestion failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "ingest_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "synced"})
}

func renderResults(documents []index.Document) []searchResultPayload {
	results := make([]searchResultPayload, 0, len(documents))
	for _, document := range documents {
		results = append(results, searchResultPayload{
			ID:          document.ID,
			Title:       document.Title,
			Description: document.Description,
			Transcript:  display.Abbreviate(document.Transcript, transcriptDisplayWidth),
			CreatedAt:   document.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return results
}
