package panel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"finpanel/pkg/contracts/domain"
)

// Cache defaults
const (
	DefaultCacheExpiration = 30 * time.Minute
	CacheCleanupInterval   = time.Hour
)

// Snapshot is a decoded document together with its flattened rows. It is
// shared between callers and must not be mutated.
type Snapshot struct {
	Hash     string
	Document domain.SectorDocument
	Rows     []domain.PanelRow
	LoadedAt time.Time
}

type fileStamp struct {
	modTime time.Time
	size    int64
	hash    string
}

// Cache memoizes document flattening by content hash. A file whose mtime
// and size are unchanged is not re-read.
type Cache struct {
	store   *cache.Cache
	tickers TickerLookup

	mu     sync.Mutex
	stamps map[string]fileStamp
	hits   uint64
	misses uint64
}

// NewCache creates a cache whose entries expire after ttl. A ttl of zero
// keeps entries until Invalidate.
func NewCache(ttl time.Duration, tickers TickerLookup) *Cache {
	exp := ttl
	if exp <= 0 {
		exp = cache.NoExpiration
	}
	return &Cache{
		store:   cache.New(exp, CacheCleanupInterval),
		tickers: tickers,
		stamps:  make(map[string]fileStamp),
	}
}

// Load returns the snapshot of the document at path. Each call counts as
// exactly one hit or one miss.
func (c *Cache) Load(path string) (*Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}

	c.mu.Lock()
	stamp, ok := c.stamps[path]
	c.mu.Unlock()
	if ok && stamp.size == info.Size() && stamp.modTime.Equal(info.ModTime()) {
		if v, found := c.store.Get(stamp.hash); found {
			c.count(true)
			return v.(*Snapshot), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	snap, err := c.LoadBytes(data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.stamps[path] = fileStamp{modTime: info.ModTime(), size: info.Size(), hash: snap.Hash}
	c.mu.Unlock()
	return snap, nil
}

// LoadBytes returns the snapshot of an encoded document.
func (c *Cache) LoadBytes(data []byte) (*Snapshot, error) {
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])
	if snap, found := c.get(key); found {
		return snap, nil
	}

	doc, err := domain.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	snap := &Snapshot{
		Hash:     key,
		Document: doc,
		Rows:     Flatten(doc, c.tickers),
		LoadedAt: time.Now(),
	}
	c.store.Set(key, snap, cache.DefaultExpiration)
	return snap, nil
}

func (c *Cache) get(key string) (*Snapshot, bool) {
	v, found := c.store.Get(key)
	c.count(found)
	if !found {
		return nil, false
	}
	return v.(*Snapshot), true
}

func (c *Cache) count(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

// Invalidate drops every cached snapshot and file stamp.
func (c *Cache) Invalidate() {
	c.store.Flush()
	c.mu.Lock()
	c.stamps = make(map[string]fileStamp)
	c.mu.Unlock()
}

// CacheStats reports cache effectiveness
type CacheStats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// Stats returns the current counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: c.store.ItemCount(), Hits: c.hits, Misses: c.misses}
}
