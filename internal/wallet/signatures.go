// Package wallet detects browser wallets and reads multi-chain balances.
package wallet

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"defi-hub/internal/domain"
)

//go:embed wallets.yaml
var walletsYAML []byte

// Capabilities are best-effort feature flags of a wallet.
type Capabilities struct {
	EIP6963           bool `json:"eip6963" yaml:"eip6963"`
	SwitchChain       bool `json:"switchChain" yaml:"switch_chain"`
	AddChain          bool `json:"addChain" yaml:"add_chain"`
	WatchAsset        bool `json:"watchAsset" yaml:"watch_asset"`
	SignTypedData     bool `json:"signTypedData" yaml:"sign_typed_data"`
	SolanaSignMessage bool `json:"solanaSignMessage" yaml:"solana_sign_message"`
}

// Signature describes how a known wallet identifies itself.
type Signature struct {
	ID           string               `json:"id" yaml:"id"`
	Name         string               `json:"name" yaml:"name"`
	RDNS         []string             `json:"rdns,omitempty" yaml:"rdns"`
	EVMFlags     []string             `json:"-" yaml:"evm_flags"`
	SolanaFlags  []string             `json:"-" yaml:"solana_flags"`
	Families     []domain.ChainFamily `json:"families" yaml:"families"`
	InstallURL   string               `json:"installUrl,omitempty" yaml:"install_url"`
	Capabilities Capabilities         `json:"capabilities" yaml:"capabilities"`
}

// Supports reports whether the wallet can sign on family.
func (s Signature) Supports(family domain.ChainFamily) bool {
	return slices.Contains(s.Families, family)
}

// Table is the ordered set of known wallet signatures.
type Table struct {
	sigs []Signature
	byID map[string]int
}

// DefaultTable parses the embedded signature table.
func DefaultTable() (*Table, error) {
	var sigs []Signature
	if err := yaml.Unmarshal(walletsYAML, &sigs); err != nil {
		return nil, fmt.Errorf("parse wallet signatures: %w", err)
	}
	return NewTable(sigs)
}

func NewTable(sigs []Signature) (*Table, error) {
	t := &Table{sigs: sigs, byID: make(map[string]int, len(sigs))}
	for i, s := range sigs {
		if s.ID == "" {
			return nil, fmt.Errorf("wallet signature %d: id is required", i)
		}
		if _, dup := t.byID[s.ID]; dup {
			return nil, fmt.Errorf("wallet signature %s: duplicate id", s.ID)
		}
		if len(s.Families) == 0 {
			return nil, fmt.Errorf("wallet signature %s: at least one family is required", s.ID)
		}
		t.byID[s.ID] = i
	}
	return t, nil
}

func (t *Table) Get(id string) (Signature, bool) {
	i, ok := t.byID[id]
	if !ok {
		return Signature{}, false
	}
	return t.sigs[i], true
}

func (t *Table) List() []Signature {
	return slices.Clone(t.sigs)
}

func (t *Table) byRDNS(rdns string) (Signature, bool) {
	for _, s := range t.sigs {
		if slices.Contains(s.RDNS, rdns) {
			return s, true
		}
	}
	return Signature{}, false
}

// Flags on injected objects that describe state rather than identity.
var stateFlags = map[string]bool{
	"isConnected": true,
	"isUnlocked":  true,
}

// byFlags finds the wallet owning an injected object. MetaMask's flag is
// copied by many wallets, so it only counts when no other wallet flag is set,
// known to the table or not.
func (t *Table) byFlags(flags map[string]bool, family domain.ChainFamily) (Signature, bool) {
	var metamask *Signature
	for i, s := range t.sigs {
		list := s.EVMFlags
		if family == domain.FamilySolana {
			list = s.SolanaFlags
		}
		for _, f := range list {
			if !flags[f] {
				continue
			}
			if f == "isMetaMask" {
				metamask = &t.sigs[i]
				continue
			}
			return s, true
		}
	}
	if metamask != nil && !hasOtherWalletFlag(flags, "isMetaMask") {
		return *metamask, true
	}
	return Signature{}, false
}

// hasOtherWalletFlag reports whether a true is* identity flag other than
// except is set.
func hasOtherWalletFlag(flags map[string]bool, except string) bool {
	for f, v := range flags {
		if !v || f == except || stateFlags[f] {
			continue
		}
		if strings.HasPrefix(f, "is") {
			return true
		}
	}
	return false
}
