// Package blobstore is a sharded, content-addressed blob store used to
// rehydrate code a caller previously received but the delivery cache
// elided from a later pack.
package blobstore

import (
	"bytes"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a ref has no corresponding blob.
var ErrNotFound = errors.New("blobstore: not found")

const refPrefix = "vhs://"

// CompressThreshold is the minimum byte size at which Put compresses
// content with zstd rather than storing it raw.
const CompressThreshold = 4096

// Info describes one stored blob.
type Info struct {
	Ref        string
	Size       int64
	Compressed bool
	CreatedAt  time.Time
	RefCount   int
}

// Store is a filesystem-backed, SQLite-indexed blob store rooted at
// <root>/.tldrs/blobs, sharded by the first two hex digest characters.
type Store struct {
	root string
	db   *sql.DB
}

// Open opens (creating if absent) the blob store rooted at workspaceRoot.
func Open(workspaceRoot string) (*Store, error) {
	blobsDir := filepath.Join(workspaceRoot, ".tldrs", "blobs")
	if err := os.MkdirAll(blobsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create blobs dir: %w", err)
	}

	dbPath := filepath.Join(workspaceRoot, ".tldrs", "vhs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open blob metadata db: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS blobs (
			digest TEXT PRIMARY KEY,
			size INTEGER NOT NULL,
			compressed INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			ref_count INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init blobs schema: %w", err)
	}

	return &Store{root: blobsDir, db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) shardPath(digest string) (dir, path string) {
	dir = filepath.Join(s.root, digest[:2])
	path = filepath.Join(dir, digest[2:])
	return dir, path
}

// Put streams r into the store, returning its ref. Content at or above
// CompressThreshold bytes is zstd-compressed at rest. Put is idempotent:
// identical content always yields an identical ref and is written at most
// once.
func (s *Store) Put(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read blob content: %w", err)
	}
	sum := sha256.Sum256(raw)
	digest := hex.EncodeToString(sum[:])
	ref := refPrefix + digest

	if s.Has(ref) {
		return ref, nil
	}

	dir, path := s.shardPath(digest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create shard dir: %w", err)
	}

	compressed := len(raw) >= CompressThreshold
	payload := raw
	if compressed {
		var buf bytes.Buffer
		enc, err := zstd.NewWriter(&buf)
		if err != nil {
			return "", fmt.Errorf("init compressor: %w", err)
		}
		if _, err := enc.Write(raw); err != nil {
			enc.Close()
			return "", fmt.Errorf("compress blob: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("finalize compression: %w", err)
		}
		payload = buf.Bytes()
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename blob: %w", err)
	}

	compressedFlag := 0
	if compressed {
		compressedFlag = 1
	}
	_, err = s.db.Exec(`
		INSERT INTO blobs (digest, size, compressed, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(digest) DO NOTHING
	`, digest, len(raw), compressedFlag, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("record blob metadata: %w", err)
	}

	return ref, nil
}

func digestFromRef(ref string) (string, error) {
	if len(ref) != len(refPrefix)+64 || ref[:len(refPrefix)] != refPrefix {
		return "", fmt.Errorf("%w: malformed ref %q", ErrNotFound, ref)
	}
	return ref[len(refPrefix):], nil
}

// Get streams the blob named by ref to w, decompressing transparently if
// it was stored compressed.
func (s *Store) Get(ref string, w io.Writer) error {
	digest, err := digestFromRef(ref)
	if err != nil {
		return err
	}
	_, path := s.shardPath(digest)

	var compressed int
	err = s.db.QueryRow(`SELECT compressed FROM blobs WHERE digest = ?`, digest).Scan(&compressed)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return fmt.Errorf("query blob metadata: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return fmt.Errorf("open blob: %w", err)
	}
	defer f.Close()

	if compressed == 0 {
		_, err := io.Copy(w, f)
		return err
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("init decompressor: %w", err)
	}
	defer dec.Close()
	_, err = io.Copy(w, dec)
	return err
}

// Has reports whether ref is present.
func (s *Store) Has(ref string) bool {
	digest, err := digestFromRef(ref)
	if err != nil {
		return false
	}
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM blobs WHERE digest = ?`, digest).Scan(&count); err != nil {
		return false
	}
	return count > 0
}

// InfoOf returns metadata for ref.
func (s *Store) InfoOf(ref string) (Info, error) {
	digest, err := digestFromRef(ref)
	if err != nil {
		return Info{}, err
	}
	var size int64
	var compressed, refCount int
	var createdAt string
	err = s.db.QueryRow(`SELECT size, compressed, created_at, ref_count FROM blobs WHERE digest = ?`, digest).
		Scan(&size, &compressed, &createdAt, &refCount)
	if err == sql.ErrNoRows {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return Info{}, fmt.Errorf("query blob metadata: %w", err)
	}
	createdTime, _ := time.Parse(time.RFC3339, createdAt)
	return Info{Ref: ref, Size: size, Compressed: compressed != 0, CreatedAt: createdTime, RefCount: refCount}, nil
}

// Ref increments ref's reference count, marking it as in use by a
// caller (e.g. a delivery-cache rehydration pointer). A blob with a
// nonzero ref_count is never collected by GC regardless of age or
// size budget.
func (s *Store) Ref(ref string) error {
	digest, err := digestFromRef(ref)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(`UPDATE blobs SET ref_count = ref_count + 1 WHERE digest = ?`, digest); err != nil {
		return fmt.Errorf("increment blob ref count: %w", err)
	}
	return nil
}

// Unref decrements ref's reference count, floored at zero, releasing
// it for eventual collection once nothing else references it.
func (s *Store) Unref(ref string) error {
	digest, err := digestFromRef(ref)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(`UPDATE blobs SET ref_count = MAX(ref_count - 1, 0) WHERE digest = ?`, digest); err != nil {
		return fmt.Errorf("decrement blob ref count: %w", err)
	}
	return nil
}

// Delete removes a blob and its metadata.
func (s *Store) Delete(ref string) error {
	digest, err := digestFromRef(ref)
	if err != nil {
		return err
	}
	_, path := s.shardPath(digest)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob file: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM blobs WHERE digest = ?`, digest); err != nil {
		return fmt.Errorf("remove blob metadata: %w", err)
	}
	return nil
}

// Ls lists up to limit blobs, most recently created first. limit <= 0
// means unbounded.
func (s *Store) Ls(limit int) ([]Info, error) {
	query := `SELECT digest, size, compressed, created_at, ref_count FROM blobs ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query blobs: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var digest, createdAt string
		var size int64
		var compressed, refCount int
		if err := rows.Scan(&digest, &size, &compressed, &createdAt, &refCount); err != nil {
			return nil, fmt.Errorf("scan blob: %w", err)
		}
		createdTime, _ := time.Parse(time.RFC3339, createdAt)
		out = append(out, Info{Ref: refPrefix + digest, Size: size, Compressed: compressed != 0, CreatedAt: createdTime, RefCount: refCount})
	}
	return out, nil
}

// Stats summarizes the store's contents.
type Stats struct {
	Count      int
	TotalBytes int64
}

// Stats returns aggregate counts across all blobs.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(size), 0) FROM blobs`).Scan(&st.Count, &st.TotalBytes)
	if err != nil {
		return st, fmt.Errorf("query blob stats: %w", err)
	}
	return st, nil
}

// GCResult summarizes a garbage collection pass.
type GCResult struct {
	Deleted    int
	FreedBytes int64
}

// GCOptions bounds a garbage collection pass. Zero values disable the
// corresponding criterion.
type GCOptions struct {
	MaxAgeDays int
	MaxSizeMB  int
	KeepLast   int
	DryRun     bool
}

// GC removes blobs older than MaxAgeDays or beyond MaxSizeMB's total-size
// budget, always keeping the KeepLast most recently created blobs. A blob
// with a nonzero ref_count (see Ref/Unref) is never removed regardless of
// age or budget, since a delivery session still depends on it for
// rehydration. With DryRun set, nothing is removed but the result reports
// what would be.
func (s *Store) GC(opts GCOptions) (GCResult, error) {
	all, err := s.Ls(0)
	if err != nil {
		return GCResult{}, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	keep := opts.KeepLast
	if keep < 0 {
		keep = 0
	}
	protected := make(map[string]bool, keep)
	for i := 0; i < keep && i < len(all); i++ {
		protected[all[i].Ref] = true
	}

	var cutoff time.Time
	if opts.MaxAgeDays != 0 {
		cutoff = time.Now().UTC().AddDate(0, 0, -opts.MaxAgeDays)
	}

	maxBytes := int64(opts.MaxSizeMB) * 1024 * 1024
	var runningTotal int64
	var result GCResult

	for _, info := range all {
		if protected[info.Ref] {
			runningTotal += info.Size
			continue
		}

		tooOld := opts.MaxAgeDays != 0 && info.CreatedAt.Before(cutoff)
		overBudget := opts.MaxSizeMB > 0 && runningTotal+info.Size > maxBytes

		if info.RefCount > 0 || (!tooOld && !overBudget) {
			runningTotal += info.Size
			continue
		}

		result.Deleted++
		result.FreedBytes += info.Size
		if !opts.DryRun {
			if err := s.Delete(info.Ref); err != nil {
				return result, err
			}
		}
	}

	return result, nil
}
