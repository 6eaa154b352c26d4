// Package delivery tracks, per session, which symbol representations an
// LLM caller has already received, so repeat requests can skip
// re-delivering unchanged code.
package delivery

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/l3aro/tldrs/pkg/pack"
	"github.com/l3aro/tldrs/pkg/project"
)

// Representation names whether a delivery carried code or only a signature.
type Representation string

const (
	RepresentationFull      Representation = "full"
	RepresentationSignature Representation = "signature"
)

// Delivery is one recorded symbol delivery within a session.
type Delivery struct {
	SymbolId       project.SymbolId
	ETag           string
	Representation Representation
	VHSRef         string
	TokenEstimate  int
}

// Store is the SQLite-backed sessions/deliveries database at .tldrs/vhs.db.
type Store struct {
	db *sql.DB
}

const schema = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	last_accessed_at TEXT NOT NULL,
	repo_fingerprint TEXT NOT NULL DEFAULT '',
	default_language TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS deliveries (
	session_id TEXT NOT NULL,
	symbol_id TEXT NOT NULL,
	etag TEXT NOT NULL,
	representation TEXT NOT NULL,
	vhs_ref TEXT NOT NULL DEFAULT '',
	token_estimate INTEGER NOT NULL DEFAULT 0,
	last_accessed TEXT NOT NULL,
	PRIMARY KEY (session_id, symbol_id),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_deliveries_last_accessed ON deliveries(last_accessed);
`

// Open opens (creating if absent) the delivery database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create delivery db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open delivery db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }

// OpenSession creates the session if absent and touches last_accessed_at.
func (s *Store) OpenSession(sessionID, fingerprint, lang string) error {
	now := nowRFC3339()
	_, err := s.db.Exec(`
		INSERT INTO sessions (session_id, created_at, last_accessed_at, repo_fingerprint, default_language)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			last_accessed_at = excluded.last_accessed_at,
			repo_fingerprint = excluded.repo_fingerprint,
			default_language = excluded.default_language
	`, sessionID, now, now, fingerprint, lang)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	return nil
}

// NewSessionID generates a 16-lowercase-hex-character session id.
func NewSessionID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// DefaultSessionID reads the persistent default session id from
// <root>/.tldrs/default_session_id, creating one if absent.
func DefaultSessionID(root string) (string, error) {
	path := filepath.Join(root, ".tldrs", "default_session_id")
	if data, err := os.ReadFile(path); err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	}
	id, err := NewSessionID()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create tldrs dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(id), 0o644); err != nil {
		return "", fmt.Errorf("write default session id: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("rename default session id: %w", err)
	}
	return id, nil
}

// CleanupExpired deletes sessions not touched within ttlSeconds, cascading
// to their deliveries, and returns the number of sessions removed.
func (s *Store) CleanupExpired(ttlSeconds int) (int64, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(ttlSeconds) * time.Second).Format(time.RFC3339)
	res, err := s.db.Exec(`DELETE FROM sessions WHERE last_accessed_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", err)
	}
	return res.RowsAffected()
}

// CheckDelta runs a single SELECT over the session's cached deliveries,
// partitioning current into unchanged (etag match) and changed (miss or
// mismatch), and returns a pack.DeltaResult plus the changed symbol ids
// sorted by symbol id.
func (s *Store) CheckDelta(sessionID string, current map[project.SymbolId]string) (pack.DeltaResult, []project.SymbolId, error) {
	result := pack.DeltaResult{
		Unchanged: make(map[project.SymbolId]bool),
		Rehydrate: make(map[project.SymbolId]string),
	}
	if len(current) == 0 {
		return result, nil, nil
	}

	rows, err := s.db.Query(`SELECT symbol_id, etag, vhs_ref FROM deliveries WHERE session_id = ?`, sessionID)
	if err != nil {
		return result, nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	cached := make(map[project.SymbolId]struct{ etag, ref string })
	for rows.Next() {
		var id, etag, ref string
		if err := rows.Scan(&id, &etag, &ref); err != nil {
			return result, nil, fmt.Errorf("scan delivery: %w", err)
		}
		cached[project.SymbolId(id)] = struct{ etag, ref string }{etag, ref}
	}
	if err := rows.Err(); err != nil {
		return result, nil, fmt.Errorf("iterate deliveries: %w", err)
	}

	ids := make([]project.SymbolId, 0, len(current))
	for id := range current {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var changed []project.SymbolId
	for _, id := range ids {
		etag := current[id]
		prior, ok := cached[id]
		if ok && prior.etag == etag {
			result.Unchanged[id] = true
			if prior.ref != "" {
				result.Rehydrate[id] = prior.ref
			}
			continue
		}
		changed = append(changed, id)
	}
	return result, changed, nil
}

// RecordDeliveriesBatch upserts a batch of deliveries for a session in a
// single transaction, stamping last_accessed. Partial failure rolls back.
func (s *Store) RecordDeliveriesBatch(sessionID string, deliveries []Delivery) error {
	if len(deliveries) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := nowRFC3339()
	stmt, err := tx.Prepare(`
		INSERT INTO deliveries (session_id, symbol_id, etag, representation, vhs_ref, token_estimate, last_accessed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, symbol_id) DO UPDATE SET
			etag = excluded.etag,
			representation = excluded.representation,
			vhs_ref = excluded.vhs_ref,
			token_estimate = excluded.token_estimate,
			last_accessed = excluded.last_accessed
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, d := range deliveries {
		if _, err := stmt.Exec(sessionID, string(d.SymbolId), d.ETag, string(d.Representation), d.VHSRef, d.TokenEstimate, now); err != nil {
			return fmt.Errorf("record delivery %s: %w", d.SymbolId, err)
		}
	}

	if _, err := tx.Exec(`UPDATE sessions SET last_accessed_at = ? WHERE session_id = ?`, now, sessionID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit deliveries: %w", err)
	}
	return nil
}

// PurgeSession deletes a session and (via cascade) all of its deliveries.
func (s *Store) PurgeSession(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("purge session: %w", err)
	}
	return nil
}

// Stats summarizes the store's current contents.
type Stats struct {
	SessionCount   int
	DeliveryCount  int
	TokenEstimated int
}

// Stats returns aggregate counts across all sessions.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&st.SessionCount); err != nil {
		return st, fmt.Errorf("count sessions: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(token_estimate), 0) FROM deliveries`).Scan(&st.DeliveryCount, &st.TokenEstimated); err != nil {
		return st, fmt.Errorf("count deliveries: %w", err)
	}
	return st, nil
}
