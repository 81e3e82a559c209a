package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/mdast/internal/ast"
	"github.com/dgallion1/mdast/internal/cache"
	"github.com/dgallion1/mdast/internal/doctree"
	"github.com/dgallion1/mdast/internal/emitter"
	"github.com/dgallion1/mdast/internal/metrics"
	"github.com/dgallion1/mdast/internal/parser"
)

// parseQuery holds the dialect and post-processing switches accepted as
// query parameters. Empty values fall back to the configured defaults.
type parseQuery struct {
	GFM       string `validate:"omitempty,boolean"`
	Math      string `validate:"omitempty,boolean"`
	Wikilinks string `validate:"omitempty,boolean"`
	HTML      string `validate:"omitempty,boolean"`
	SafeLinks string `validate:"omitempty,boolean"`
	Verify    string `validate:"omitempty,boolean"`
}

type parseFlags struct {
	opts      emitter.Options
	safeLinks bool
	verify    bool
}

type parseResponse struct {
	*parser.Result
	Cached       bool `json:"cached"`
	LinksRemoved int  `json:"links_removed,omitempty"`
	Verified     bool `json:"verified,omitempty"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	flags, err := s.parseFlags(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, _, ok := s.readDocument(w, r)
	if !ok {
		return
	}

	res, cached, err := s.parse(r.Context(), data, flags.opts, "api")
	if err != nil {
		jsonError(w, "parse failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	resp, err := finish(res, cached, flags)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	flags, err := s.parseFlags(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, filename, ok := s.readDocument(w, r)
	if !ok {
		return
	}

	res, _, err := s.parse(r.Context(), data, flags.opts, "api")
	if err != nil {
		jsonError(w, "parse failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doctree.Build(res.Root, parser.Title(filename)))
}

// parse serves src from the cache or parses it, recording stats and
// metrics for fresh parses.
func (s *Server) parse(ctx context.Context, src []byte, opts emitter.Options, source string) (*parser.Result, bool, error) {
	var key []byte
	if s.cache != nil {
		key = cache.Key(src, opts)
		res, ok, err := s.cache.Get(key)
		if err != nil {
			s.log.Warn("cache read failed", "error", err)
		}
		metrics.CacheLookup(ok)
		if ok {
			return res, true, nil
		}
	}

	start := time.Now()
	res, err := s.parserFor(opts).Parse(ctx, src)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveParse(source, metrics.ResultError, elapsed, len(src), 0)
		return nil, false, err
	}

	result := metrics.ResultOK
	switch {
	case res.Canceled:
		result = metrics.ResultCanceled
	case res.Truncated:
		result = metrics.ResultTruncated
	}
	metrics.ObserveParse(source, result, elapsed, res.ParsedSize, res.Nodes)
	if res.Canceled {
		return res, false, nil
	}
	s.stats.Record(elapsed, res.ParsedSize, res.Nodes)
	if s.cache != nil {
		if err := s.cache.Put(key, res); err != nil {
			s.log.Warn("cache write failed", "error", err)
		}
	}
	return res, false, nil
}

// finish applies the post-processing switches to a result.
func finish(res *parser.Result, cached bool, flags parseFlags) (parseResponse, error) {
	resp := parseResponse{Result: res, Cached: cached}
	if flags.safeLinks {
		resp.LinksRemoved = ast.SanitizeLinks(res.Root)
	}
	if flags.verify {
		if err := ast.Verify(res.Root); err != nil {
			return resp, fmt.Errorf("tree verification failed: %w", err)
		}
		resp.Verified = true
	}
	return resp, nil
}

func (s *Server) parseFlags(r *http.Request) (parseFlags, error) {
	q := r.URL.Query()
	pq := parseQuery{
		GFM:       q.Get("gfm"),
		Math:      q.Get("math"),
		Wikilinks: q.Get("wikilinks"),
		HTML:      q.Get("html"),
		SafeLinks: q.Get("safe_links"),
		Verify:    q.Get("verify"),
	}
	if err := s.validate.Struct(pq); err != nil {
		return parseFlags{}, fmt.Errorf("invalid query: %w", err)
	}
	def := s.cfg.Parse
	return parseFlags{
		opts: emitter.Options{
			GFM:       queryBool(pq.GFM, def.GFM),
			Math:      queryBool(pq.Math, def.Math),
			Wikilinks: queryBool(pq.Wikilinks, def.Wikilinks),
			HTML:      queryBool(pq.HTML, def.HTML),
		},
		safeLinks: queryBool(pq.SafeLinks, false),
		verify:    queryBool(pq.Verify, false),
	}, nil
}

func queryBool(v string, fallback bool) bool {
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// readDocument returns the markdown in the request, either a multipart
// "file" part or the raw body. It writes the error response itself and
// reports false on failure.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return nil, "", false
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
			return nil, "", false
		}
		defer file.Close()

		filename := sanitizeFilename(header.Filename)
		if !parser.IsSupportedExtension(filename) {
			jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
			return nil, "", false
		}
		data, ok := s.readLimited(w, file)
		return data, filename, ok
	}

	filename := sanitizeFilename(r.URL.Query().Get("filename"))
	if filename == "unnamed" {
		filename = "document.md"
	}
	data, ok := s.readLimited(w, r.Body)
	return data, filename, ok
}

func (s *Server) readLimited(w http.ResponseWriter, r io.Reader) ([]byte, bool) {
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxUploadBytes+1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "failed to read document", http.StatusBadRequest)
		return nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil, false
	}
	return data, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
