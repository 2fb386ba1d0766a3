package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mangalayout/pkg/buildinfo"
	"github.com/matzehuels/mangalayout/pkg/cache"
	"github.com/matzehuels/mangalayout/pkg/errors"
	pageio "github.com/matzehuels/mangalayout/pkg/io"
	"github.com/matzehuels/mangalayout/pkg/observability"
	"github.com/matzehuels/mangalayout/pkg/panel"
	"github.com/matzehuels/mangalayout/pkg/pipeline"
	"github.com/matzehuels/mangalayout/pkg/render/preview"
	"github.com/matzehuels/mangalayout/pkg/render/treeviz"
)

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Current()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": names})
}

type generateResponse struct {
	Generated int      `json:"generated"`
	Failed    int      `json:"failed"`
	Names     []string `json:"names"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "generation is disabled"))
		return
	}

	q := r.URL.Query()
	opts := pipeline.Options{Count: 1, Workers: s.workers}
	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxBatch {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "count must be between 1 and %d", MaxBatch))
			return
		}
		opts.Count = n
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "seed %q is not an unsigned integer", v))
			return
		}
		opts.Seed, opts.Seeded = seed, true
	}

	stats, err := s.runner.Batch(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	names := stats.Names
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusCreated, generateResponse{Generated: stats.Generated, Failed: stats.Failed, Names: names})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	pg, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := pageio.Marshal(pg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	pg, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	q := r.URL.Query()
	opts := preview.Options{Labels: q.Get("labels") == "true", Rotate: q.Get("rotate") == "true"}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "scale %q is not a number", v))
			return
		}
		opts.Scale = scale
	}

	data, err := s.render(r.Context(), pg, func(hash string) string {
		return s.keyer.PreviewKey(hash, cache.PreviewKeyOpts{Scale: opts.Scale, Labels: opts.Labels, Rotate: opts.Rotate})
	}, func() ([]byte, error) {
		return preview.PNG(pg, opts)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	pg, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts := treeviz.Options{Detailed: r.URL.Query().Get("detailed") == "true"}
	format := "svg"
	if opts.Detailed {
		format = "svg-detailed"
	}
	svg, err := s.render(r.Context(), pg, func(hash string) string {
		return s.keyer.TreeKey(hash, format)
	}, func() ([]byte, error) {
		return treeviz.RenderPage(r.Context(), pg, opts)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// writeError maps err to a status: invalid input is 400, a missing page is
// 404, everything else is 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeResourceNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeUnsupported:
		status = http.StatusNotImplemented
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: errors.UserMessage(err)}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// render returns the cached output for pg under key, producing and caching
// it on a miss. Cache failures only cost a re-render.
func (s *Server) render(ctx context.Context, pg *panel.Page, key func(hash string) string, produce func() ([]byte, error)) ([]byte, error) {
	record, err := pageio.Marshal(pg)
	if err != nil {
		return nil, err
	}
	k := key(cache.Hash(record))
	hooks := observability.Cache()
	if data, ok, err := s.renders.Get(ctx, k); err == nil && ok {
		hooks.OnCacheHit(ctx, "render")
		return data, nil
	}
	hooks.OnCacheMiss(ctx, "render")
	data, err := produce()
	if err != nil {
		return nil, err
	}
	if err := s.renders.Set(ctx, k, data, 0); err != nil {
		s.logger.Debug("render cache", "key", k, "err", err)
		return data, nil
	}
	hooks.OnCacheSet(ctx, "render", len(data))
	return data, nil
}
