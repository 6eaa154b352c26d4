// Package astcache persists per-file extraction results across invocations,
// keyed by (rel_path, mtime_ns, size) so a warm cache entry is skipped
// entirely once the underlying file is known unchanged. Entries are
// msgpack-encoded on disk (matching pkg/cache's existing codec) behind an
// in-memory pkg/cache.ShardedCache hot layer, following the same
// two-tier shape as pkg/cache's own Save/Load plus PersistToFile helpers.
package astcache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/tldrs/pkg/cache"
)

// entry is the on-disk record: the stat fingerprint plus the serialized
// summary. get() only returns Summary when both Mtime and Size still match.
type entry struct {
	MtimeNs int64         `msgpack:"mtime_ns"`
	Size    int64         `msgpack:"size"`
	Summary ModuleSummary `msgpack:"summary"`
}

// Stats reports cumulative hit/miss counters across the cache's lifetime.
type Stats struct {
	Hits   int64
	Misses int64
}

// Cache is a file-hash-keyed store for ModuleSummary values. Dir holds one
// msgpack file per cached path, named by the md5 hex digest of its
// workspace-relative path. A ShardedCache sits in front to absorb repeat
// lookups within a single process without re-reading the file.
type Cache struct {
	dir string
	mem *cache.ShardedCache

	hits   int64
	misses int64

	mu sync.Mutex
}

// New opens (without yet creating) a disk-backed cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{
		dir: dir,
		mem: cache.NewShardedCache(8, cache.Options{MaxSize: 4096}),
	}
}

func keyFor(relPath string) string {
	sum := md5.Sum([]byte(filepath.ToSlash(relPath)))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) pathFor(relPath string) string {
	return filepath.Join(c.dir, keyFor(relPath)+".json")
}

// Get returns the cached summary for relPath if mtimeNs and size both match
// the stored fingerprint. I/O failures and decode errors are treated as
// misses, never propagated to the caller.
func (c *Cache) Get(relPath string, mtimeNs, size int64) (ModuleSummary, bool) {
	key := keyFor(relPath)

	if v, ok := c.mem.Get(key); ok {
		if e, ok := v.(entry); ok && e.MtimeNs == mtimeNs && e.Size == size {
			atomic.AddInt64(&c.hits, 1)
			return e.Summary, true
		}
	}

	f, err := os.Open(c.pathFor(relPath))
	if err != nil {
		atomic.AddInt64(&c.misses, 1)
		return ModuleSummary{}, false
	}
	defer f.Close()

	var e entry
	if err := msgpack.NewDecoder(f).Decode(&e); err != nil {
		atomic.AddInt64(&c.misses, 1)
		return ModuleSummary{}, false
	}
	if e.MtimeNs != mtimeNs || e.Size != size {
		atomic.AddInt64(&c.misses, 1)
		return ModuleSummary{}, false
	}

	c.mem.Set(key, e)
	atomic.AddInt64(&c.hits, 1)
	return e.Summary, true
}

// Put stores summary for relPath under the given fingerprint, rewriting the
// on-disk entry atomically via a temp-file-then-rename so a concurrent
// reader never observes a partially written file.
func (c *Cache) Put(relPath string, mtimeNs, size int64, summary ModuleSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{MtimeNs: mtimeNs, Size: size, Summary: summary}
	c.mem.Set(keyFor(relPath), e)

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating ast cache dir: %w", err)
	}

	final := c.pathFor(relPath)
	tmp := final + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating ast cache entry: %w", err)
	}
	if err := msgpack.NewEncoder(f).Encode(e); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding ast cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing ast cache entry: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("committing ast cache entry: %w", err)
	}
	return nil
}

// Invalidate drops relPath from both the memory and disk layers.
func (c *Cache) Invalidate(relPath string) {
	c.mem.Delete(keyFor(relPath))
	_ = os.Remove(c.pathFor(relPath))
}

// Clear removes every cache entry, memory and disk.
func (c *Cache) Clear() error {
	c.mem.Clear()
	if c.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading ast cache dir: %w", err)
	}
	for _, de := range entries {
		if filepath.Ext(de.Name()) == ".json" {
			_ = os.Remove(filepath.Join(c.dir, de.Name()))
		}
	}
	return nil
}

// Stats returns cumulative hit/miss counts since the Cache was created.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
	}
}

// StatFingerprint reads relPath's current mtime (nanoseconds) and size,
// the fingerprint Get/Put key against.
func StatFingerprint(fullPath string) (mtimeNs, size int64, err error) {
	fi, err := os.Stat(fullPath)
	if err != nil {
		return 0, 0, err
	}
	return fi.ModTime().UnixNano(), fi.Size(), nil
}
