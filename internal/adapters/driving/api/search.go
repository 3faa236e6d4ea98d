package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

// handleSearch runs recall for a topic.
//
// GET /v1/documents/search?topic=...&limit=&min_score=&include_summary=&local_llm=
// &relevance_weight=&recency_weight=&importance_weight=
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	topic := q.Get("topic")
	if topic == "" {
		writeError(w, fmt.Errorf("%w: topic is required", domain.ErrInvalidInput))
		return
	}

	opts := domain.DefaultRecallOptions()

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeError(w, fmt.Errorf("%w: invalid limit %q", domain.ErrInvalidInput, v))
			return
		}
		opts.Limit = limit
	}
	if v := q.Get("min_score"); v != "" {
		minScore, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, fmt.Errorf("%w: invalid min_score %q", domain.ErrInvalidInput, v))
			return
		}
		opts.MinScore = minScore
	}
	weightParams := []struct {
		name   string
		target *float64
	}{
		{"relevance_weight", &opts.Weights.Relevance},
		{"recency_weight", &opts.Weights.Recency},
		{"importance_weight", &opts.Weights.Importance},
	}
	for _, p := range weightParams {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		weight, err := strconv.ParseFloat(v, 64)
		if err != nil || weight < 0 {
			writeError(w, fmt.Errorf("%w: invalid %s %q", domain.ErrInvalidInput, p.name, v))
			return
		}
		*p.target = weight
	}

	if v := q.Get("include_summary"); v != "" {
		opts.IncludeSummary = v == "true" || v == "1"
	}
	if v := q.Get("local_llm"); v != "" {
		opts.UseLocalLLM = v == "true" || v == "1"
	}

	result, err := s.recall.Recall(r.Context(), topic, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
