package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jcdickinson/scaladex/internal/cas"
	"github.com/jcdickinson/scaladex/internal/config"
	"github.com/jcdickinson/scaladex/internal/db"
	"github.com/jcdickinson/scaladex/internal/docs"
	"github.com/jcdickinson/scaladex/internal/index"
	md "github.com/jcdickinson/scaladex/internal/markdown"
	"github.com/jcdickinson/scaladex/internal/rpc"
	"github.com/jcdickinson/scaladex/internal/search"
)

// maxParallelImports bounds how many sources one import request fetches at once.
const maxParallelImports = 4

var sourceNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

type Server struct {
	db         *db.DB
	searcher   *search.Searcher
	fetcher    *docs.Fetcher
	cfg        *config.Config
	socketPath string
	httpServer *http.Server
	listener   net.Listener

	mu         sync.Mutex
	expTimer   *time.Timer
	expiration time.Duration

	importGroup singleflight.Group

	// exit ends the process after shutdown or expiry.
	exit func(code int)
}

func NewServer(cfg *config.Config, database *db.DB, socketPath string) *Server {
	expiration := cfg.Daemon.Expiration
	if expiration <= 0 {
		expiration = 10 * time.Minute
	}

	return &Server{
		db:         database,
		searcher:   search.NewSearcher(database, cfg.Cache.MaxEntries, cfg.Cache.TTL, cfg.Docs.BaseURL, cfg.Search.Limit),
		fetcher:    docs.NewFetcher(cfg.Fetch.Timeout),
		cfg:        cfg,
		socketPath: socketPath,
		expiration: expiration,
		exit:       os.Exit,
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /import", s.withExpReset(s.handleImport))
	mux.HandleFunc("POST /search", s.withExpReset(s.handleSearch))
	mux.HandleFunc("POST /get", s.withExpReset(s.handleGet))
	mux.HandleFunc("GET /status", s.withExpReset(s.handleStatus))
	mux.HandleFunc("POST /clear-cache", s.withExpReset(s.handleClearCache))
	mux.HandleFunc("POST /shutdown", s.handleShutdown)
	return mux
}

func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("setting socket permissions: %w", err)
	}
	s.listener = listener

	s.httpServer = &http.Server{Handler: s.routes()}

	s.mu.Lock()
	s.expTimer = time.AfterFunc(s.expiration, s.expire)
	s.mu.Unlock()

	log.Printf("daemon: listening on %s (expires after %s of inactivity)", s.socketPath, s.expiration)

	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	s.mu.Lock()
	if s.expTimer != nil {
		s.expTimer.Stop()
	}
	s.mu.Unlock()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("daemon: shutdown error: %v", err)
			errs = append(errs, err)
		}
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("daemon: listener close error: %v", err)
			errs = append(errs, err)
		}
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		log.Printf("daemon: socket remove error: %v", err)
		errs = append(errs, err)
	}
	if err := s.db.Close(); err != nil {
		log.Printf("daemon: db close error: %v", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) expire() {
	log.Printf("daemon: expiring due to inactivity")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop(ctx)
	s.exit(0)
}

func (s *Server) resetExpiration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expTimer != nil {
		s.expTimer.Stop()
		s.expTimer.Reset(s.expiration)
	}
}

func (s *Server) withExpReset(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.resetExpiration()
		handler(w, r)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req rpc.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	var sendMu sync.Mutex
	enc := json.NewEncoder(w)
	send := func(line rpc.ProgressLine) bool {
		sendMu.Lock()
		defer sendMu.Unlock()
		if line.Message != "" {
			log.Printf("daemon: %s", line.Message)
		}
		if err := enc.Encode(line); err != nil {
			log.Printf("daemon: client disconnected: %v", err)
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	}

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(maxParallelImports)
	for _, spec := range req.Sources {
		g.Go(func() error {
			progress := func(msg string) {
				send(rpc.ProgressLine{Type: "progress", Message: msg})
			}
			result := s.importSource(ctx, spec, req.Force, progress)
			if !send(rpc.ProgressLine{Type: "result", Result: &result}) {
				return fmt.Errorf("client went away")
			}
			return nil
		})
	}
	g.Wait()
}

func (s *Server) importSource(ctx context.Context, spec rpc.SourceSpec, force bool, progress func(string)) rpc.SourceResult {
	result := rpc.SourceResult{Name: spec.Name}
	if !sourceNameRe.MatchString(spec.Name) {
		result.Error = fmt.Sprintf("invalid source name %q", spec.Name)
		return result
	}
	if spec.Location == "" {
		result.Error = fmt.Sprintf("source %s has no location", spec.Name)
		return result
	}

	// Singleflight: only identical requests share one import
	v, _, shared := s.importGroup.Do(importKey(spec, force), func() (interface{}, error) {
		return s.importWork(ctx, spec, force, progress), nil
	})
	if shared {
		progress(fmt.Sprintf("joined in-flight import of %s", spec.Name))
	}
	return v.(rpc.SourceResult)
}

func importKey(spec rpc.SourceSpec, force bool) string {
	return fmt.Sprintf("%s\x00%s\x00%t", spec.Name, spec.Location, force)
}

func (s *Server) importWork(ctx context.Context, spec rpc.SourceSpec, force bool, progress func(string)) rpc.SourceResult {
	result := rpc.SourceResult{Name: spec.Name}

	src, err := s.db.UpsertSource(spec.Name, spec.Location)
	if err != nil {
		result.Error = fmt.Sprintf("upserting source: %v", err)
		return result
	}

	progress(fmt.Sprintf("fetching %s from %s", spec.Name, spec.Location))
	data, err := s.fetcher.Open(ctx, spec.Location)
	if err != nil {
		if src.ContentHash == "" || !cas.Has(src.ContentHash) {
			result.Error = fmt.Sprintf("fetching index: %v", err)
			return result
		}
		progress(fmt.Sprintf("fetch failed (%v), keeping snapshot %s", err, shortHash(src.ContentHash)))
		if data, err = cas.Read(src.ContentHash); err != nil {
			result.Error = fmt.Sprintf("reading snapshot: %v", err)
			return result
		}
	}

	hash := cas.Hash(data)
	result.Hash = hash
	if !force && src.ImportedAt != nil && src.ContentHash == hash {
		result.Unchanged = true
		s.fillStats(&result, src.ID)
		progress(fmt.Sprintf("%s unchanged (%s)", spec.Name, shortHash(hash)))
		return result
	}

	progress(fmt.Sprintf("parsing %s (%d bytes)", spec.Name, len(data)))
	idx, err := index.Parse(data)
	if err != nil {
		result.Error = fmt.Sprintf("parsing index: %v", err)
		return result
	}

	if err := index.Validate(idx); err != nil {
		var verr *index.ValidationError
		if errors.As(err, &verr) {
			result.Problems = len(verr.Problems)
			for i, p := range verr.Problems {
				if i == 5 {
					progress(fmt.Sprintf("... and %d more", len(verr.Problems)-i))
					break
				}
				progress(fmt.Sprintf("warning: %s", p))
			}
		}
	}

	if _, err := cas.Write(data); err != nil {
		log.Printf("daemon: failed to snapshot %s: %v", spec.Name, err)
	}
	if err := docs.SaveSourceCache(data, spec.Name); err != nil {
		log.Printf("daemon: failed to cache %s: %v", spec.Name, err)
	}

	progress(fmt.Sprintf("storing %s: %d packages, %d members", spec.Name, idx.Len(), idx.MemberCount()))
	if err := s.db.ReplaceIndex(src.ID, hash, idx); err != nil {
		result.Error = fmt.Sprintf("storing index: %v", err)
		return result
	}
	s.searcher.Forget(spec.Name)

	s.fillStats(&result, src.ID)
	progress(fmt.Sprintf("finished importing %s (%d members)", spec.Name, result.Members))
	return result
}

func (s *Server) fillStats(result *rpc.SourceResult, sourceID int) {
	stats, err := s.db.CountMembers(sourceID)
	if err != nil {
		log.Printf("daemon: counting %s: %v", result.Name, err)
		return
	}
	result.Packages, result.Objects, result.Members = stats.Packages, stats.Objects, stats.Members
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req rpc.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := s.searcher.Search(req.Query, req.Sources, req.Limit)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	if results == nil {
		results = []rpc.DocResult{}
	}

	writeJSON(w, http.StatusOK, rpc.SearchResponse{Results: results})
}

// resolveURI accepts a scaladoc:// URI, a bare source/page#anchor, or an
// absolute documentation URL when a source and base URL are known.
func (s *Server) resolveURI(req rpc.GetRequest) (source, page, anchor string, err error) {
	if docs.IsRemote(req.URI) {
		if req.Source == "" || s.cfg.Docs.BaseURL == "" {
			return "", "", "", fmt.Errorf("%s: URLs need a source and docs.base_url", req.URI)
		}
		uri := docs.SiteURLToURI(req.Source, s.cfg.Docs.BaseURL, req.URI)
		if uri == "" {
			return "", "", "", fmt.Errorf("%s is not under %s", req.URI, s.cfg.Docs.BaseURL)
		}
		return docs.ParseURI(uri)
	}
	return docs.ParseURI(req.URI)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	var req rpc.GetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	source, page, anchor, err := s.resolveURI(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	idx, _, err := s.searcher.Index(source)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	text, err := s.render(idx, source, page, anchor)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	fields := map[string]string{"uri": docs.MemberURI(source, joinAnchor(page, anchor))}
	if s.cfg.Docs.BaseURL != "" {
		if u, err := docs.ResolveLink(s.cfg.Docs.BaseURL, joinAnchor(page, anchor)); err == nil {
			fields["url"] = u
		}
	}
	writeJSON(w, http.StatusOK, rpc.GetResponse{Markdown: md.AddFrontMatter(text, fields)})
}

func joinAnchor(page, anchor string) string {
	if anchor == "" {
		return page
	}
	return page + "#" + anchor
}

func (s *Server) render(idx *index.PackageIndex, source, page, anchor string) (string, error) {
	linker := md.Linker{Source: source, BaseURL: s.cfg.Docs.BaseURL}

	obj, pkg, err := idx.ObjectByPage(page)
	if err != nil {
		// Package pages live at <pkg path>/index.html
		if path.Base(page) == "index.html" {
			name := strings.ReplaceAll(path.Dir(page), "/", ".")
			if objs, perr := idx.Package(name); perr == nil {
				return md.RenderPackage(name, objs, linker), nil
			}
		}
		return "", fmt.Errorf("page %s in %s: %w", page, source, err)
	}

	if anchor == "" {
		return md.RenderObject(pkg, obj, linker), nil
	}
	link := page + "#" + anchor
	for _, sec := range obj.Sections() {
		for i := range sec.Members {
			if sec.Members[i].Link == link {
				return md.RenderMember(pkg, obj, &sec.Members[i], linker), nil
			}
		}
	}
	return "", fmt.Errorf("member #%s of %s: %w", anchor, obj.Name, index.ErrNotFound)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.ListSources()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := rpc.StatusResponse{Sources: []rpc.SourceStatus{}, Cached: s.searcher.Cached()}
	for _, src := range sources {
		st := rpc.SourceStatus{
			Name:     src.Name,
			Location: src.Location,
			Hash:     src.ContentHash,
			Imported: src.ImportedAt != nil,
		}
		if src.ImportedAt != nil {
			st.ImportedAt = src.ImportedAt.Format(time.RFC3339)
		}
		if stats, err := s.db.CountMembers(src.ID); err == nil {
			st.Packages, st.Objects, st.Members = stats.Packages, stats.Objects, stats.Members
		}
		status.Sources = append(status.Sources, st)
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	var req rpc.ClearCacheRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resp rpc.ClearCacheResponse
	names := req.Sources
	if len(names) == 0 {
		resp.Cleared = s.searcher.Purge()
		if req.Purge {
			sources, err := s.db.ListSources()
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			for _, src := range sources {
				names = append(names, src.Name)
			}
		}
	} else {
		for _, name := range names {
			resp.Cleared += s.searcher.Forget(name)
		}
	}

	if req.Purge {
		for _, name := range names {
			src, err := s.db.GetSource(name)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			if src == nil {
				continue
			}
			if err := s.db.DeleteSource(src.ID); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			if err := docs.RemoveSourceCache(name); err != nil {
				log.Printf("daemon: removing cached copy of %s: %v", name, err)
			}
			resp.Deleted++
		}
	}

	log.Printf("daemon: cache cleared (%d indexes dropped, %d sources deleted)", resp.Cleared, resp.Deleted)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "shutting down"})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Stop(ctx)
		s.exit(0)
	}()
}

func errorStatus(err error) int {
	if errors.Is(err, index.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
