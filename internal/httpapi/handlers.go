package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-facet-catalog/catalog"
	"github.com/goliatone/go-facet-catalog/filter"
	"github.com/goliatone/go-facet-catalog/repositorycache"
)

func parseSpec(r *http.Request) (filter.Spec, error) {
	return filter.Parse(filter.FromValues(r.URL.Query()))
}

func (h *Handler) listShows(w http.ResponseWriter, r *http.Request) {
	spec, err := parseSpec(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	items, err := h.catalog.ListItems(r.Context(), spec)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if items == nil {
		items = []catalog.ContentItem{}
	}
	respondJSON(w, r, http.StatusOK, items)
}

func (h *Handler) getShow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, r, "invalid_id", "id must be a positive integer")
		return
	}

	item, err := h.catalog.GetItem(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, item)
}

func (h *Handler) listThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.catalog.Themes(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if themes == nil {
		themes = []string{}
	}
	respondJSON(w, r, http.StatusOK, themes)
}

func (h *Handler) themeCandidates(w http.ResponseWriter, r *http.Request) {
	spec, err := parseSpec(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	fc, err := h.catalog.ThemeCandidates(r.Context(), spec)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if fc.Selected == nil {
		fc.Selected = []string{}
	}
	if fc.Candidates == nil {
		fc.Candidates = []string{}
	}
	respondJSON(w, r, http.StatusOK, fc)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if categories == nil {
		categories = []catalog.Category{}
	}
	respondJSON(w, r, http.StatusOK, categories)
}

func (h *Handler) categoryShows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := filter.Parse(filter.Raw{Limit: q.Get("limit"), Offset: q.Get("offset")})
	if err != nil {
		respondError(w, r, err)
		return
	}

	items, err := h.catalog.CategoryItems(r.Context(), chi.URLParam(r, "slug"), page.Limit, page.Offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if items == nil {
		items = []catalog.ContentItem{}
	}
	respondJSON(w, r, http.StatusOK, items)
}

type statsResponse struct {
	repositorycache.Stats
	HitRatio float64 `json:"hitRatio"`
}

func (h *Handler) cacheStats(w http.ResponseWriter, r *http.Request) {
	stats := h.catalog.Stats()
	respondJSON(w, r, http.StatusOK, statsResponse{Stats: stats, HitRatio: stats.HitRatio()})
}

// invalidate handles POST /cache/invalidate?scope=<scope>[&id=<id>...].
func (h *Handler) invalidate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope, err := repositorycache.ParseScope(q.Get("scope"))
	if err != nil {
		badRequest(w, r, "invalid_scope", err.Error())
		return
	}

	ids := make([]int64, 0, len(q["id"]))
	for _, raw := range q["id"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(w, r, "invalid_id", "id must be an integer")
			return
		}
		ids = append(ids, id)
	}

	if err := h.catalog.Invalidate(r.Context(), scope, ids...); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			respondJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
