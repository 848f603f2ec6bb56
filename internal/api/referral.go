package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"defi-hub/internal/domain"
)

type referralCodeRequest struct {
	Wallet string `json:"wallet"`
}

type applyReferralRequest struct {
	Wallet string `json:"wallet"`
	Code   string `json:"code"`
}

type referralVolumeRequest struct {
	Wallet    string          `json:"wallet"`
	VolumeUSD decimal.Decimal `json:"volumeUsd"`
}

// referralStats never fails on store errors; the service falls back to
// zeroed stats.
func (h *handler) referralStats(w http.ResponseWriter, r *http.Request) {
	wallet, err := walletParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := h.Referrals.Stats(r.Context(), wallet)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) listReferees(w http.ResponseWriter, r *http.Request) {
	wallet, err := walletParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	refs, err := h.Referrals.Referrals(r.Context(), wallet)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if refs == nil {
		refs = []*domain.Referral{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"referrals": refs})
}

func (h *handler) referralLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	board, err := h.Referrals.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if board == nil {
		board = []*domain.ReferralStats{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": board})
}

func (h *handler) referralCode(w http.ResponseWriter, r *http.Request) {
	var req referralCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	code, err := h.Referrals.GetOrCreateCode(r.Context(), req.Wallet)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}

func (h *handler) applyReferral(w http.ResponseWriter, r *http.Request) {
	var req applyReferralRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ref, err := h.Referrals.Apply(r.Context(), req.Wallet, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ref)
}

func (h *handler) recordReferralVolume(w http.ResponseWriter, r *http.Request) {
	var req referralVolumeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reward, err := h.Referrals.RecordVolume(r.Context(), req.Wallet, req.VolumeUSD)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rewardUsd": reward})
}
