// Package tokenizer estimates LLM token counts for pack-builder budget
// accounting. It prefers a real BPE encoding and falls back to a
// length-based heuristic when no encoding can be loaded (offline, or an
// unrecognized model name).
package tokenizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator counts tokens for a piece of text.
type Estimator interface {
	Count(text string) int
}

// bpeEstimator wraps a tiktoken encoding.
type bpeEstimator struct {
	enc *tiktoken.Tiktoken
}

func (b *bpeEstimator) Count(text string) int {
	return len(b.enc.Encode(text, nil, nil))
}

// fallbackEstimator approximates tokens as one per four characters, the
// same ratio the pack builder's contract documents as its degraded mode.
type fallbackEstimator struct{}

func (fallbackEstimator) Count(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		n = 1
	}
	return n
}

var (
	once    sync.Once
	shared  Estimator
)

// Default returns the process-wide estimator: a cl100k_base BPE encoder
// if it can be loaded, otherwise the len/4 fallback.
func Default() Estimator {
	once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil || enc == nil {
			shared = fallbackEstimator{}
			return
		}
		shared = &bpeEstimator{enc: enc}
	})
	return shared
}

// New builds an estimator for a specific encoding name, falling back to
// the len/4 heuristic if the encoding can't be loaded.
func New(encodingName string) Estimator {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil || enc == nil {
		return fallbackEstimator{}
	}
	return &bpeEstimator{enc: enc}
}

// Fallback exposes the len/4 heuristic directly, used by components that
// must never attempt network/file access for BPE ranks (e.g. sandboxed
// test environments).
func Fallback() Estimator { return fallbackEstimator{} }
