package delivery

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/l3aro/tldrs/internal/log"
	"github.com/l3aro/tldrs/pkg/pack"
	"github.com/l3aro/tldrs/pkg/project"
)

// BlobStore is the subset of pkg/blobstore.Store that delivery needs to
// persist rehydration blobs for full-code deliveries. Kept as a narrow
// interface so delivery doesn't import blobstore's on-disk/SQLite
// internals, only the operations it calls.
type BlobStore interface {
	Put(r io.Reader) (string, error)
	Ref(ref string) error
}

// candidateETag computes the delta-check key for a candidate: the
// signature alone, or (for diff-derived candidates) the signature plus
// its sorted touched-line numbers, matching the distilled engine's
// "signature, or signature + sorted diff line numbers" rule.
func candidateETag(c project.Candidate) string {
	payload := c.Signature
	if dl, ok := c.Meta["diff_lines"].([]int); ok && len(dl) > 0 {
		payload += "\n" + formatInts(dl)
	}
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func formatInts(ints []int) string {
	b := make([]byte, 0, len(ints)*4)
	for i, n := range ints {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendInt(b, n)
	}
	return string(b)
}

func appendInt(b []byte, n int) []byte {
	if n == 0 {
		return append(b, '0')
	}
	if n < 0 {
		b = append(b, '-')
		n = -n
	}
	start := len(b)
	for n > 0 {
		b = append(b, byte('0'+n%10))
		n /= 10
	}
	for i, j := start, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// Deliver runs the delta orchestration: compute each candidate's delta-key
// etag, check it against the session's cache, build a ContextPack where
// unchanged symbols are elided to signature-only, and record deliveries
// for every symbol whose code was actually included in the result. When
// blobs is non-nil, every full-code delivery is also persisted there and
// ref-counted, so a later session can rehydrate an elided symbol from its
// vhs_ref and blobstore.GC leaves in-use blobs alone.
func Deliver(store *Store, builder *pack.Builder, sessionID string, candidates []project.Candidate, budgetTokens int, blobs BlobStore) (*pack.ContextPack, error) {
	correlationID := uuid.New().String()
	logger := log.Default()
	logger.Debug("delivery: starting delta check", "session", sessionID, "correlation_id", correlationID, "candidates", len(candidates))

	etags := make(map[project.SymbolId]string, len(candidates))
	for _, c := range candidates {
		etags[c.SymbolId] = candidateETag(c)
	}

	delta, _, err := store.CheckDelta(sessionID, etags)
	if err != nil {
		logger.Error("delivery: delta check failed", "session", sessionID, "correlation_id", correlationID, "error", err)
		return nil, err
	}

	result := builder.BuildDelta(candidates, delta, budgetTokens)

	var toRecord []Delivery
	for _, slice := range result.Slices {
		if !slice.HasCode {
			continue
		}
		d := Delivery{
			SymbolId:       slice.ID,
			ETag:           etags[slice.ID],
			Representation: RepresentationFull,
			TokenEstimate:  len(slice.Code) / 4,
		}
		if blobs != nil {
			ref, err := blobs.Put(strings.NewReader(slice.Code))
			if err != nil {
				logger.Error("delivery: blob store failed", "session", sessionID, "correlation_id", correlationID, "symbol", slice.ID, "error", err)
			} else if err := blobs.Ref(ref); err != nil {
				logger.Error("delivery: blob ref failed", "session", sessionID, "correlation_id", correlationID, "symbol", slice.ID, "error", err)
			} else {
				d.VHSRef = ref
			}
		}
		toRecord = append(toRecord, d)
	}
	if len(toRecord) > 0 {
		if err := store.RecordDeliveriesBatch(sessionID, toRecord); err != nil {
			logger.Error("delivery: record batch failed", "session", sessionID, "correlation_id", correlationID, "error", err)
			return nil, err
		}
	}

	if result.CacheStats != nil {
		logger.Debug("delivery: delta complete", "session", sessionID, "correlation_id", correlationID,
			"hits", result.CacheStats.Hits, "misses", result.CacheStats.Misses, "delivered", len(toRecord))
	}

	return result, nil
}
