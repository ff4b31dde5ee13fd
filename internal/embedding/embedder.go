// Package embedding provides text embedding with an ONNX-backed model and a
// deterministic hashed fallback.
package embedding

import (
	"context"

	"go.uber.org/zap"

	"github.com/sensei-notes/senseid/internal/config"
)

// Embedder produces vector embeddings for text. EmbedBatch is length- and
// order-preserving: result i is the embedding of input i.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// NewEmbedder selects the embedding strategy once, at construction time.
// The ONNX model is attempted only when cfg.UseModel is set; any
// initialization failure is logged and the hashed fallback is substituted.
// The fallback requires no external resources, so NewEmbedder never fails.
func NewEmbedder(cfg *config.EmbeddingConfig, logger *zap.Logger) Embedder {
	if cfg.UseModel {
		e, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
		if err == nil {
			logger.Info("using ONNX embedder",
				zap.String("model_path", cfg.ModelPath),
				zap.Int("dimensions", cfg.Dimensions),
			)
			return e
		}
		logger.Warn("ONNX embedder unavailable, using hashed fallback", zap.Error(err))
	}
	return NewHashedEmbedder(cfg.Dimensions)
}
