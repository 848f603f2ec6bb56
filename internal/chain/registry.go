// Package chain holds the supported chain registry and address validation.
package chain

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"defi-hub/internal/domain"
)

//go:embed chains.yaml
var chainsYAML []byte

// ErrUnknownChain is returned for chain keys not in the registry.
var ErrUnknownChain = fmt.Errorf("%w: unknown chain", domain.ErrInvalid)

// Chain describes one supported network.
type Chain struct {
	Key            string             `json:"key" yaml:"key"`
	Name           string             `json:"name" yaml:"name"`
	Family         domain.ChainFamily `json:"family" yaml:"family"`
	ChainID        int64              `json:"chainId,omitempty" yaml:"chain_id"` // EVM only
	NativeSymbol   string             `json:"nativeSymbol" yaml:"native_symbol"`
	NativeDecimals int                `json:"nativeDecimals" yaml:"native_decimals"`
	RPCURL         string             `json:"-" yaml:"rpc_url"`
	ExplorerURL    string             `json:"explorerUrl" yaml:"explorer_url"`
	MoralisID      string             `json:"-" yaml:"moralis_id"`
	DexScreenerID  string             `json:"dexscreenerId" yaml:"dexscreener_id"`
}

// Registry is an immutable, ordered set of chains.
type Registry struct {
	chains []Chain
	byKey  map[string]int
}

// DefaultRegistry parses the embedded chain table.
func DefaultRegistry() (*Registry, error) {
	var chains []Chain
	if err := yaml.Unmarshal(chainsYAML, &chains); err != nil {
		return nil, fmt.Errorf("parse embedded chains: %w", err)
	}
	return NewRegistry(chains)
}

// NewRegistry validates chains and indexes them by key.
func NewRegistry(chains []Chain) (*Registry, error) {
	r := &Registry{
		chains: make([]Chain, len(chains)),
		byKey:  make(map[string]int, len(chains)),
	}
	copy(r.chains, chains)

	for i, c := range r.chains {
		if c.Key == "" {
			return nil, fmt.Errorf("chain %d: key is required", i)
		}
		if _, dup := r.byKey[c.Key]; dup {
			return nil, fmt.Errorf("chain %s: duplicate key", c.Key)
		}
		if c.Family != domain.FamilyEVM && c.Family != domain.FamilySolana {
			return nil, fmt.Errorf("chain %s: unknown family %q", c.Key, c.Family)
		}
		if c.Family == domain.FamilyEVM && c.ChainID == 0 {
			return nil, fmt.Errorf("chain %s: evm chains need a chain id", c.Key)
		}
		r.byKey[c.Key] = i
	}
	return r, nil
}

// Get returns the chain with the given key.
func (r *Registry) Get(key string) (Chain, error) {
	i, ok := r.byKey[key]
	if !ok {
		return Chain{}, fmt.Errorf("%w: %s", ErrUnknownChain, key)
	}
	return r.chains[i], nil
}

// List returns every chain in registry order.
func (r *Registry) List() []Chain {
	out := make([]Chain, len(r.chains))
	copy(out, r.chains)
	return out
}

// ByFamily returns the chains of one family in registry order.
func (r *Registry) ByFamily(family domain.ChainFamily) []Chain {
	var out []Chain
	for _, c := range r.chains {
		if c.Family == family {
			out = append(out, c)
		}
	}
	return out
}

// ByChainID finds an EVM chain by its numeric id.
func (r *Registry) ByChainID(id int64) (Chain, error) {
	for _, c := range r.chains {
		if c.Family == domain.FamilyEVM && c.ChainID == id {
			return c, nil
		}
	}
	return Chain{}, fmt.Errorf("%w: chain id %d", ErrUnknownChain, id)
}

// ByDexScreenerID maps a DexScreener chainId back to a registry chain.
func (r *Registry) ByDexScreenerID(id string) (Chain, bool) {
	for _, c := range r.chains {
		if c.DexScreenerID == id {
			return c, true
		}
	}
	return Chain{}, false
}

// WithRPCOverrides returns a copy with rpc urls replaced for the given keys.
func (r *Registry) WithRPCOverrides(overrides map[string]string) (*Registry, error) {
	chains := r.List()
	for key, url := range overrides {
		i, ok := r.byKey[key]
		if !ok {
			return nil, fmt.Errorf("rpc override: %w: %s", ErrUnknownChain, key)
		}
		chains[i].RPCURL = url
	}
	return NewRegistry(chains)
}

// Keys returns the sorted chain keys.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.chains))
	for _, c := range r.chains {
		keys = append(keys, c.Key)
	}
	sort.Strings(keys)
	return keys
}
