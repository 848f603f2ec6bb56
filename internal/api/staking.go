package api

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

// stakingPoolView adds the derived utilization to a pool.
type stakingPoolView struct {
	*domain.StakingPool
	Utilization decimal.Decimal `json:"utilization"`
}

func poolView(p *domain.StakingPool) stakingPoolView {
	return stakingPoolView{StakingPool: p, Utilization: p.Utilization()}
}

func (h *handler) listStakingPools(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.StakingPoolFilter{
		Chain:  strings.ToLower(strings.TrimSpace(q.Get("chain"))),
		Status: domain.PoolStatus(strings.ToLower(strings.TrimSpace(q.Get("status")))),
	}
	pools, err := h.Staking.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]stakingPoolView, 0, len(pools))
	for _, p := range pools {
		views = append(views, poolView(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"pools": views})
}

func (h *handler) getStakingPool(w http.ResponseWriter, r *http.Request) {
	p, err := h.Staking.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, poolView(p))
}

func (h *handler) createStakingPool(w http.ResponseWriter, r *http.Request) {
	var p domain.StakingPool
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.Staking.Create(r.Context(), &p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, poolView(created))
}

func (h *handler) updateStakingPool(w http.ResponseWriter, r *http.Request) {
	var p domain.StakingPool
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.Staking.Update(r.Context(), pathParam(r, "id"), &p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, poolView(updated))
}

func (h *handler) deleteStakingPool(w http.ResponseWriter, r *http.Request) {
	if err := h.Staking.Delete(r.Context(), pathParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
