package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"foley/internal/config"
	"foley/internal/library"
	"foley/internal/logging"
	"foley/internal/session"
)

// Embedder converts a text query into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Synthesizer generates new audio for a text prompt.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, durationHint float64) ([]byte, error)
}

// AssetStore is the slice of the library the engine needs.
type AssetStore interface {
	Search(ctx context.Context, vector []float32, limit int) ([]library.Candidate, error)
	SearchText(ctx context.Context, keywords string, syntheticScore float64, limit int) ([]library.Candidate, error)
	Insert(ctx context.Context, asset library.NewAsset) (int64, error)
}

// Result describes the asset produced for one query. Provenance records which
// path produced it; Note carries a human-readable explanation for degraded
// outcomes.
type Result struct {
	Asset      session.AssetRef
	Provenance session.Provenance
	Score      float64
	Note       string
}

// Engine produces audio assets for composed sound queries.
type Engine struct {
	cfg      *config.Config
	store    AssetStore
	embedder Embedder
	synth    Synthesizer
	logger   *slog.Logger

	writeback sync.WaitGroup
}

// New constructs an engine. Embedder and synthesizer may be nil when their
// providers are not configured; the engine degrades instead of failing.
func New(cfg *config.Config, store AssetStore, embedder Embedder, synth Synthesizer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		synth:    synth,
		logger:   logger.With(logging.String(logging.FieldComponent, "engine")),
	}
}

// Produce resolves a composed query into an audio asset. It never returns an
// error: retrieval misses fall through to synthesis, synthesis failures fall
// through to a placeholder, and even a placeholder write failure yields a
// result whose note explains what went wrong.
func (e *Engine) Produce(ctx context.Context, query, styleContext string) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{
			Provenance: session.ProvenancePending,
			Note:       "empty query; nothing to produce",
		}
	}

	searchText := query
	if style := strings.TrimSpace(styleContext); style != "" {
		searchText = query + ", " + style
	}

	vector := e.embedQuery(ctx, searchText)

	if candidate, ok := e.retrieve(ctx, searchText, vector); ok {
		e.logger.Info("library hit",
			logging.String("asset_id", candidate.AssetID),
			logging.Float64("score", candidate.Score))
		return Result{
			Asset:      session.AssetRef{ID: candidate.AssetID, Path: candidate.AudioPath},
			Provenance: session.ProvenanceCacheHit,
			Score:      candidate.Score,
		}
	}

	return e.synthesize(ctx, searchText, vector)
}

// Flush blocks until all pending library write-backs have completed. Call it
// before closing the library store.
func (e *Engine) Flush() {
	e.writeback.Wait()
}

func (e *Engine) embedQuery(ctx context.Context, text string) []float32 {
	if e.embedder == nil {
		return nil
	}
	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		e.logger.Warn("embedding unavailable, falling back to keyword search", logging.Error(err))
		return nil
	}
	return vector
}

func (e *Engine) retrieve(ctx context.Context, searchText string, vector []float32) (library.Candidate, bool) {
	limit := e.cfg.Engine.SearchLimit
	threshold := e.cfg.Engine.SimilarityThreshold

	var candidates []library.Candidate
	var err error
	if len(vector) > 0 {
		candidates, err = e.store.Search(ctx, vector, limit)
		if err != nil {
			e.logger.Warn("vector search failed, falling back to keyword search", logging.Error(err))
			candidates = nil
		}
	}
	if len(candidates) == 0 {
		candidates, err = e.store.SearchText(ctx, searchText, e.cfg.Engine.KeywordMatchScore, limit)
		if err != nil {
			e.logger.Warn("keyword search failed", logging.Error(err))
			return library.Candidate{}, false
		}
	}

	for _, candidate := range candidates {
		if candidate.Score >= threshold {
			return candidate, true
		}
	}
	return library.Candidate{}, false
}

func (e *Engine) synthesize(ctx context.Context, searchText string, vector []float32) Result {
	if e.synth == nil {
		return e.placeholder(searchText, "synthesis provider is not configured")
	}

	audio, err := e.synth.Synthesize(ctx, searchText, e.cfg.ElevenLabs.DefaultDurationSeconds)
	if err != nil {
		e.logger.Warn("synthesis failed, writing placeholder", logging.Error(err))
		return e.placeholder(searchText, fmt.Sprintf("synthesis failed: %v", err))
	}

	assetID := uuid.New().String()
	path := filepath.Join(e.cfg.AssetsDir(), assetID+".mp3")
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		e.logger.Warn("writing synthesized audio failed", logging.Error(err))
		return e.placeholder(searchText, fmt.Sprintf("could not store synthesized audio: %v", err))
	}

	e.enqueueWriteback(assetID, searchText, path, vector)

	e.logger.Info("synthesized new asset", logging.String("asset_id", assetID))
	return Result{
		Asset:      session.AssetRef{ID: assetID, Path: path},
		Provenance: session.ProvenanceSynthesized,
	}
}

// enqueueWriteback stores the new asset in the library in the background so
// production latency does not pay for the insert. Failures are logged and
// dropped; the asset file on disk is the source of truth for this session.
func (e *Engine) enqueueWriteback(assetID, searchText, path string, vector []float32) {
	description := searchText
	e.writeback.Add(1)
	go func() {
		defer e.writeback.Done()
		_, err := e.store.Insert(context.Background(), library.NewAsset{
			AssetID:     assetID,
			Description: description,
			Query:       searchText,
			AudioPath:   path,
			Embedding:   vector,
		})
		if err != nil {
			e.logger.Warn("library write-back failed",
				logging.String("asset_id", assetID),
				logging.Error(err))
		}
	}()
}

func (e *Engine) placeholder(searchText, reason string) Result {
	assetID := uuid.New().String()
	path := filepath.Join(e.cfg.AssetsDir(), assetID+".wav")
	if err := os.WriteFile(path, placeholderWAV(), 0o644); err != nil {
		e.logger.Warn("writing placeholder failed", logging.Error(err))
		return Result{
			Provenance: session.ProvenancePending,
			Note:       reason + "; placeholder write also failed",
		}
	}
	e.logger.Info("wrote placeholder asset", logging.String("asset_id", assetID))
	return Result{
		Asset:      session.AssetRef{ID: assetID, Path: path},
		Provenance: session.ProvenancePending,
		Note:       reason,
	}
}
