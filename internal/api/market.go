package api

import (
	"net/http"
	"strings"
	"time"

	"defi-hub/internal/domain"
)

const (
	defaultHistoryLimit  = 500
	maxHistoryLimit      = 5000
	defaultHistoryWindow = 24 * time.Hour
)

func (h *handler) listChains(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"chains": h.Registry.List()})
}

func (h *handler) searchTokens(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	chainKey := strings.ToLower(strings.TrimSpace(q.Get("chain")))
	if chainKey != "" {
		if _, err := h.Registry.Get(chainKey); err != nil {
			writeError(w, r, err)
			return
		}
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}

	found := h.Tokens.Search(r.Context(), q.Get("q"), chainKey, limit)
	writeJSON(w, http.StatusOK, map[string]any{"tokens": found, "count": len(found)})
}

// getMarket always answers 200 for a well-formed pair; unresolved markets
// carry available=false.
func (h *handler) getMarket(w http.ResponseWriter, r *http.Request) {
	m, err := h.Markets.Resolve(r.Context(), pathParam(r, "pair"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *handler) listMarkets(w http.ResponseWriter, r *http.Request) {
	pairs := splitList(r.URL.Query().Get("pairs"))
	markets, err := h.Markets.ResolveMany(r.Context(), pairs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"markets": markets})
}

func (h *handler) marketHistory(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	to, err := timeQuery(r, "to", now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	from, err := timeQuery(r, "from", to.Add(-defaultHistoryWindow))
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	pair := pathParam(r, "pair")
	snapshots, err := h.Markets.History(r.Context(), pair, from, to, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if snapshots == nil {
		snapshots = []*domain.PriceSnapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pair":      pair,
		"from":      from,
		"to":        to,
		"snapshots": snapshots,
	})
}
