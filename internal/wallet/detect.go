package wallet

import (
	"fmt"
	"slices"
	"strings"

	"defi-hub/internal/chain"
	"defi-hub/internal/domain"
)

// Detection sources.
const (
	SourceEIP6963  = "eip6963"
	SourceInjected = "injected"
)

// ProviderInfo is an EIP-6963 announcement.
type ProviderInfo struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	RDNS string `json:"rdns"`
	Icon string `json:"icon,omitempty"`
}

// InjectedObject is a snapshot of window.ethereum or window.solana: its
// boolean flags and, for multi-wallet shims, the nested providers array.
type InjectedObject struct {
	Flags     map[string]bool  `json:"flags"`
	Providers []InjectedObject `json:"providers,omitempty"`
}

// DetectRequest is what the browser reports about its wallet environment.
type DetectRequest struct {
	Announcements []ProviderInfo  `json:"announcements"`
	Ethereum      *InjectedObject `json:"ethereum,omitempty"`
	Solana        *InjectedObject `json:"solana,omitempty"`
}

// DetectedWallet is one wallet found in the environment.
type DetectedWallet struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	RDNS         string               `json:"rdns,omitempty"`
	Icon         string               `json:"icon,omitempty"`
	Source       string               `json:"source"`
	Generic      bool                 `json:"generic"`
	Families     []domain.ChainFamily `json:"families"`
	Capabilities Capabilities         `json:"capabilities"`
}

// DetectResult lists detected wallets and the chain families they cover.
type DetectResult struct {
	Wallets  []DetectedWallet     `json:"wallets"`
	Families []domain.ChainFamily `json:"families"`
}

const maxAnnouncements = 32

// Detect matches the request against the signature table. EIP-6963 matches
// take precedence over injected flags; each wallet appears once.
func (t *Table) Detect(req DetectRequest) (*DetectResult, error) {
	if len(req.Announcements) > maxAnnouncements {
		return nil, fmt.Errorf("%w: at most %d announcements", domain.ErrInvalid, maxAnnouncements)
	}

	res := &DetectResult{Wallets: []DetectedWallet{}, Families: []domain.ChainFamily{}}
	seen := make(map[string]bool)
	add := func(w DetectedWallet) {
		if seen[w.ID] {
			return
		}
		seen[w.ID] = true
		res.Wallets = append(res.Wallets, w)
	}

	for _, a := range req.Announcements {
		rdns := strings.ToLower(strings.TrimSpace(a.RDNS))
		if rdns == "" {
			continue
		}
		if sig, ok := t.byRDNS(rdns); ok {
			w := fromSignature(sig, SourceEIP6963)
			w.RDNS = rdns
			w.Icon = a.Icon
			w.Capabilities.EIP6963 = true
			add(w)
			continue
		}
		name := strings.TrimSpace(a.Name)
		if name == "" {
			name = rdns
		}
		add(DetectedWallet{
			ID:           "eip6963:" + rdns,
			Name:         name,
			RDNS:         rdns,
			Icon:         a.Icon,
			Source:       SourceEIP6963,
			Generic:      true,
			Families:     []domain.ChainFamily{domain.FamilyEVM},
			Capabilities: Capabilities{EIP6963: true},
		})
	}

	for _, obj := range flatten(req.Ethereum) {
		if sig, ok := t.byFlags(obj.Flags, domain.FamilyEVM); ok {
			add(fromSignature(sig, SourceInjected))
			continue
		}
		add(DetectedWallet{
			ID:       "injected:evm",
			Name:     "Injected EVM wallet",
			Source:   SourceInjected,
			Generic:  true,
			Families: []domain.ChainFamily{domain.FamilyEVM},
		})
	}

	for _, obj := range flatten(req.Solana) {
		if sig, ok := t.byFlags(obj.Flags, domain.FamilySolana); ok {
			add(fromSignature(sig, SourceInjected))
			continue
		}
		add(DetectedWallet{
			ID:           "injected:solana",
			Name:         "Injected Solana wallet",
			Source:       SourceInjected,
			Generic:      true,
			Families:     []domain.ChainFamily{domain.FamilySolana},
			Capabilities: Capabilities{SolanaSignMessage: true},
		})
	}

	for _, fam := range []domain.ChainFamily{domain.FamilyEVM, domain.FamilySolana} {
		for _, w := range res.Wallets {
			if slices.Contains(w.Families, fam) {
				res.Families = append(res.Families, fam)
				break
			}
		}
	}
	return res, nil
}

// flatten returns the object followed by its nested providers. An object
// that only carries a providers array is not itself a wallet.
func flatten(obj *InjectedObject) []InjectedObject {
	if obj == nil {
		return nil
	}
	var out []InjectedObject
	if len(obj.Providers) == 0 || hasTrueFlag(obj.Flags) {
		out = append(out, InjectedObject{Flags: obj.Flags})
	}
	for _, p := range obj.Providers {
		out = append(out, InjectedObject{Flags: p.Flags})
	}
	return out
}

func hasTrueFlag(flags map[string]bool) bool {
	for _, v := range flags {
		if v {
			return true
		}
	}
	return false
}

func fromSignature(sig Signature, source string) DetectedWallet {
	return DetectedWallet{
		ID:           sig.ID,
		Name:         sig.Name,
		Source:       source,
		Families:     sig.Families,
		Capabilities: sig.Capabilities,
	}
}

// Compatibility answers whether a wallet can be used on a chain.
type Compatibility struct {
	Wallet     string   `json:"wallet"`
	Chain      string   `json:"chain"`
	Compatible bool     `json:"compatible"`
	Reason     string   `json:"reason,omitempty"`
	Suggested  []string `json:"suggested,omitempty"`
}

// Compatible checks walletID against the family of chainKey and suggests
// known wallets for that family when it is not supported.
func (t *Table) Compatible(walletID string, c chain.Chain) (*Compatibility, error) {
	sig, ok := t.Get(strings.ToLower(strings.TrimSpace(walletID)))
	if !ok {
		return nil, fmt.Errorf("%w: unknown wallet %q", domain.ErrInvalid, walletID)
	}

	res := &Compatibility{Wallet: sig.ID, Chain: c.Key, Compatible: sig.Supports(c.Family)}
	if res.Compatible {
		return res, nil
	}

	res.Reason = fmt.Sprintf("%s does not support %s chains", sig.Name, c.Family)
	for _, s := range t.sigs {
		if s.Supports(c.Family) {
			res.Suggested = append(res.Suggested, s.ID)
		}
	}
	return res, nil
}
