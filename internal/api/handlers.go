package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/forgestats/forgestats/pkg/buildinfo"
	ferrors "github.com/forgestats/forgestats/pkg/errors"
	"github.com/forgestats/forgestats/pkg/stats"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"built":   buildinfo.Date,
	})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	b := s.client.Budget()
	writeJSON(w, http.StatusOK, map[string]any{
		"remaining": b.Remaining,
		"limit":     b.Limit,
		"reset_at":  b.ResetAt,
	})
}

// handleSnapshot takes (or refreshes) a repository snapshot.
//
//	GET /repos/{owner}/{name}/stats?categories=stars,forks&fresh=true
//
// The stored snapshot, when present, serves as the conditional baseline;
// fresh=true skips it. The new snapshot replaces the stored one.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ref, err := refFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	cats, err := categoriesFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var prev *stats.RepositorySnapshot
	if r.URL.Query().Get("fresh") != "true" {
		prev, err = s.store.Load(r.Context(), ref)
		if err != nil {
			s.logger.Warn("snapshot store read failed", "repo", ref, "err", err)
		}
	}

	snap, err := s.client.Snapshot(r.Context(), ref, stats.SnapshotOptions{
		Categories: cats,
		Previous:   prev,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.Save(r.Context(), snap); err != nil {
		s.logger.Warn("snapshot store write failed", "repo", ref, "err", err)
	}

	writeJSON(w, http.StatusOK, snap)
}

// handleCategory fetches a single category without snapshot bookkeeping.
func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	ref, err := refFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	cat, err := stats.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.client.Fetch(r.Context(), ref, cat)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func refFromRequest(r *http.Request) (stats.RepositoryRef, error) {
	ref := stats.RepositoryRef{
		Owner: chi.URLParam(r, "owner"),
		Name:  chi.URLParam(r, "name"),
	}
	if err := ref.Validate(); err != nil {
		return stats.RepositoryRef{}, err
	}
	return ref, nil
}

func categoriesFromRequest(r *http.Request) ([]stats.Category, error) {
	raw := r.URL.Query().Get("categories")
	if raw == "" {
		return nil, nil
	}
	return stats.ParseCategories(strings.Split(raw, ","))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the wire shape of an API error.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	var body errorBody
	body.Error.Code = string(ferrors.GetCode(err))
	body.Error.Message = ferrors.UserMessage(err)
	if body.Error.Code == "" {
		body.Error.Code = string(ferrors.ErrCodeInternal)
	}
	writeJSON(w, statusFor(err), body)
}

func statusFor(err error) int {
	if ferrors.IsRateLimited(err) {
		return http.StatusTooManyRequests
	}
	switch ferrors.GetCode(err) {
	case ferrors.ErrCodeInvalidInput, ferrors.ErrCodeInvalidRepo, ferrors.ErrCodeInvalidCategory:
		return http.StatusBadRequest
	case ferrors.ErrCodeNotFound:
		return http.StatusNotFound
	case ferrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ferrors.ErrCodeForbidden:
		return http.StatusForbidden
	case ferrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ferrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
