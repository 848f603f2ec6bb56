package api

import (
	"net/http"
	"strings"

	"defi-hub/internal/chain"
	"defi-hub/internal/domain"
	"defi-hub/internal/wallet"
)

type validateResponse struct {
	Valid   bool               `json:"valid"`
	Address string             `json:"address,omitempty"`
	Family  domain.ChainFamily `json:"family,omitempty"`
	OnCurve bool               `json:"onCurve,omitempty"`
	Chain   string             `json:"chain,omitempty"`
	Reason  string             `json:"reason,omitempty"`
}

// validateAddress reports a malformed address as valid=false with 200; only
// a missing address or unknown chain is a client error.
func (h *handler) validateAddress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	address := strings.TrimSpace(q.Get("address"))
	if address == "" {
		writeError(w, r, invalid("address is required"))
		return
	}

	var (
		addr chain.Address
		err  error
		resp validateResponse
	)
	if key := strings.ToLower(strings.TrimSpace(q.Get("chain"))); key != "" {
		c, cerr := h.Registry.Get(key)
		if cerr != nil {
			writeError(w, r, cerr)
			return
		}
		resp.Chain = c.Key
		addr, err = chain.ValidateAddress(address, c.Family)
	} else {
		addr, err = chain.DetectFamily(address)
	}

	if err != nil {
		if !chain.IsInvalidAddress(err) {
			writeError(w, r, err)
			return
		}
		resp.Reason = err.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Valid = true
	resp.Address = addr.Normalized
	resp.Family = addr.Family
	resp.OnCurve = addr.OnCurve
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) detectWallets(w http.ResponseWriter, r *http.Request) {
	var req wallet.DetectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Wallets.Detect(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) walletCompatibility(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	walletID := strings.TrimSpace(q.Get("wallet"))
	chainKey := strings.ToLower(strings.TrimSpace(q.Get("chain")))
	if walletID == "" || chainKey == "" {
		writeError(w, r, invalid("wallet and chain are required"))
		return
	}
	c, err := h.Registry.Get(chainKey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Wallets.Compatible(walletID, c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) walletBalances(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	address := strings.TrimSpace(q.Get("address"))
	if address == "" {
		writeError(w, r, invalid("address is required"))
		return
	}
	account, err := h.Balances.Balances(r.Context(), address, splitList(q.Get("chains")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}
