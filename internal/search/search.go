package search

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jcdickinson/scaladex/internal/db"
	"github.com/jcdickinson/scaladex/internal/docs"
	"github.com/jcdickinson/scaladex/internal/index"
	"github.com/jcdickinson/scaladex/internal/rpc"
)

// IndexStore is the part of the database the searcher reads from.
type IndexStore interface {
	GetSource(name string) (*db.Source, error)
	ListSources() ([]db.Source, error)
	LoadIndex(sourceID int) (*index.PackageIndex, error)
	TouchSource(sourceID int) error
}

// Searcher answers queries over stored indexes, keeping recently used ones
// decoded in memory.
type Searcher struct {
	store        IndexStore
	cache        *expirable.LRU[string, *index.PackageIndex]
	baseURL      string
	defaultLimit int
}

func NewSearcher(store IndexStore, maxEntries int, ttl time.Duration, baseURL string, defaultLimit int) *Searcher {
	if maxEntries <= 0 {
		maxEntries = 32
	}
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &Searcher{
		store:        store,
		cache:        expirable.NewLRU[string, *index.PackageIndex](maxEntries, nil, ttl),
		baseURL:      baseURL,
		defaultLimit: defaultLimit,
	}
}

// cacheKey includes the content hash so a re-import never serves a stale index.
func cacheKey(s *db.Source) string {
	return s.Name + "@" + s.ContentHash
}

// Index returns the stored index of the named source.
func (s *Searcher) Index(name string) (*index.PackageIndex, *db.Source, error) {
	src, err := s.store.GetSource(name)
	if err != nil {
		return nil, nil, fmt.Errorf("looking up source %s: %w", name, err)
	}
	if src == nil || src.ImportedAt == nil {
		return nil, nil, fmt.Errorf("source %s: %w", name, index.ErrNotFound)
	}
	idx, err := s.load(src)
	if err != nil {
		return nil, nil, err
	}
	return idx, src, nil
}

func (s *Searcher) load(src *db.Source) (*index.PackageIndex, error) {
	key := cacheKey(src)
	if idx, ok := s.cache.Get(key); ok {
		return idx, nil
	}

	start := time.Now()
	idx, err := s.store.LoadIndex(src.ID)
	if err != nil {
		return nil, fmt.Errorf("loading index %s: %w", src.Name, err)
	}
	slog.Debug("index loaded", "source", src.Name, "packages", idx.Len(), "elapsed", time.Since(start))

	s.cache.Add(key, idx)
	if err := s.store.TouchSource(src.ID); err != nil {
		slog.Warn("touching source failed", "source", src.Name, "error", err)
	}
	return idx, nil
}

// Search runs query against the named sources, or every imported source when
// names is empty, and merges the hits by score.
func (s *Searcher) Search(query string, names []string, limit int) ([]rpc.DocResult, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	q := index.ParseQuery(query)
	slog.Info("search", "query", query, "limit", limit, "sources", names)
	if q.Empty() {
		return nil, nil
	}

	var sources []db.Source
	if len(names) == 0 {
		all, err := s.store.ListSources()
		if err != nil {
			return nil, fmt.Errorf("listing sources: %w", err)
		}
		for _, src := range all {
			if src.ImportedAt != nil {
				sources = append(sources, src)
			}
		}
	} else {
		for _, name := range names {
			src, err := s.store.GetSource(name)
			if err != nil {
				return nil, fmt.Errorf("looking up source %s: %w", name, err)
			}
			if src == nil || src.ImportedAt == nil {
				return nil, fmt.Errorf("source %s: %w", name, index.ErrNotFound)
			}
			sources = append(sources, *src)
		}
	}

	var results []rpc.DocResult
	for i := range sources {
		src := &sources[i]
		idx, err := s.load(src)
		if err != nil {
			return nil, err
		}
		for _, h := range index.Search(idx, q, limit) {
			results = append(results, s.buildResult(src.Name, h))
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *Searcher) buildResult(source string, h index.Hit) rpc.DocResult {
	r := rpc.DocResult{
		URI:     docs.MemberURI(source, h.Link()),
		Source:  source,
		Package: h.Package,
		Object:  h.Object.Name,
		Section: h.Section,
		Label:   h.Label(),
		Kind:    h.Kind(),
		Link:    h.Link(),
		Score:   h.Score,
	}
	if h.Member != nil {
		r.Tail = h.Member.Tail
		r.Member = h.Member.Member
	}
	if s.baseURL != "" {
		if u, err := docs.ResolveLink(s.baseURL, r.Link); err == nil {
			r.URL = u
		}
	}
	return r
}

// Forget drops the cached index of a source.
func (s *Searcher) Forget(name string) int {
	n := 0
	for _, key := range s.cache.Keys() {
		if strings.HasPrefix(key, name+"@") {
			s.cache.Remove(key)
			n++
		}
	}
	return n
}

// Purge drops every cached index and reports how many there were.
func (s *Searcher) Purge() int {
	n := s.cache.Len()
	s.cache.Purge()
	return n
}

// Cached returns the number of decoded indexes held in memory.
func (s *Searcher) Cached() int {
	return s.cache.Len()
}
