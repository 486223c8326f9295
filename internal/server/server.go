package server

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/agenthands/recall/internal/config"
	"github.com/agenthands/recall/internal/core"
	"github.com/agenthands/recall/internal/core/compare"
	"github.com/agenthands/recall/internal/core/extraction"
	"github.com/agenthands/recall/internal/core/model"
	"github.com/agenthands/recall/internal/core/reconcile"
	"github.com/agenthands/recall/internal/datacloud"
	"github.com/agenthands/recall/internal/llm"
	"github.com/agenthands/recall/internal/tabular"
)

// Memorizer is the slice of the orchestrator the handlers need; tests
// substitute their own.
type Memorizer interface {
	Update(ctx context.Context, in core.UpdateInput) ([]model.MemoryCandidate, *model.UpsertReport, error)
	Get(ctx context.Context, userID, utterance string) []tabular.Row
}

type Server struct {
	Memory Memorizer
}

// NewServer builds the full dependency graph from config: LLM client,
// comparator, Data Cloud collaborators, extractor, reconciliation engine.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	var comparator compare.Comparator
	opts := reconcile.DefaultOptions()
	switch cfg.Judge.Mode {
	case "", "literal":
		// Literal comparison per pass options; no judge.
	default:
		judged := compare.NewJudged(llmClient, cfg.Judge.Mode, cfg.Judge.FallbackToSimple)
		judged.Prompt = cfg.Judging.Compare
		comparator = judged
		opts.ScopedFetch = true
	}

	tokens := datacloud.StaticTokenSource{AccessToken: cfg.DataCloud.Token}
	query := datacloud.NewQueryClient(tokens, cfg.DataCloud.QueryURL, 0)
	ingest := datacloud.NewIngestionClient(tokens, cfg.DataCloud.IngestURL, cfg.DataCloud.Connector, cfg.DataCloud.DLO, 0)

	attributeDLM := cfg.DataCloud.AttributeDLM
	if attributeDLM == "" {
		attributeDLM = "UserAttributes__dlm"
	}

	client, err := reconcile.NewClient(query, ingest, comparator, reconcile.Config{
		TenantID:     cfg.DataCloud.TenantID,
		AttributeDLM: attributeDLM,
		VectorIndex:  cfg.DataCloud.VectorIndex,
		ChunkTable:   cfg.DataCloud.ChunkTable,
	})
	if err != nil {
		return nil, err
	}

	extractor := extraction.NewExtractor(llmClient, cfg.Extraction)

	return &Server{
		Memory: core.NewOrchestrator(extractor, client, opts),
	}, nil
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/memories", s.AddMemories)
	r.POST("/search", s.Search)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

type AddMemoriesRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	Utterance string `json:"utterance" binding:"required"`
	DryRun    bool   `json:"dry_run"`
}

func (s *Server) AddMemories(c *gin.Context) {
	var req AddMemoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	candidates, report, err := s.Memory.Update(c.Request.Context(), core.UpdateInput{
		UserID:    req.UserID,
		Utterance: req.Utterance,
		DryRun:    req.DryRun,
	})
	if err != nil {
		log.Error("failed to update memories", "user_id", req.UserID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process utterance"})
		return
	}

	resp := gin.H{"candidates": candidates}
	if report != nil {
		resp["report"] = report
	}
	c.JSON(http.StatusOK, resp)
}

type SearchRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	Utterance string `json:"utterance" binding:"required"`
}

func (s *Server) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	rows := s.Memory.Get(c.Request.Context(), req.UserID, req.Utterance)
	c.JSON(http.StatusOK, gin.H{"results": rows})
}
