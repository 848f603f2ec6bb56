// Package tokens serves the searchable token list.
package tokens

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"defi-hub/internal/domain"
)

//go:embed tokens.yaml
var defaultList []byte

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// SpotlightTag marks tokens currently promoted in the spotlight.
	SpotlightTag = "spotlight"
)

// Match scores, highest wins.
const (
	scoreAddress      = 1000
	scoreSymbolExact  = 100
	scoreSymbolPrefix = 75
	scoreNameExact    = 60
	scoreNamePrefix   = 50
	scoreSymbolSubstr = 40
	scoreNameSubstr   = 25
)

// SpotlightSource lists spotlight entries active at a time.
type SpotlightSource interface {
	ListActive(ctx context.Context, at time.Time) ([]*domain.SpotlightToken, error)
}

// Service searches the default list merged with active spotlight tokens.
type Service struct {
	base      []domain.Token
	spotlight SpotlightSource
	now       func() time.Time
}

// LoadDefault parses the embedded token list.
func LoadDefault() ([]domain.Token, error) {
	var list []domain.Token
	if err := yaml.Unmarshal(defaultList, &list); err != nil {
		return nil, fmt.Errorf("parse token list: %w", err)
	}
	return list, nil
}

// NewService builds a service over base. spotlight may be nil.
func NewService(base []domain.Token, spotlight SpotlightSource) *Service {
	return &Service{base: base, spotlight: spotlight, now: time.Now}
}

type candidate struct {
	token     domain.Token
	score     int
	spotlight bool
	rank      int
}

// Search ranks tokens against query. An empty query lists everything, spotlight first.
// chain filters by registry key when set.
func (s *Service) Search(ctx context.Context, query, chain string, limit int) []domain.Token {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	query = strings.TrimSpace(query)

	var out []candidate
	for _, c := range s.merged(ctx) {
		if chain != "" && !strings.EqualFold(c.token.Chain, chain) {
			continue
		}
		if query != "" {
			c.score = score(c.token, query)
			if c.score == 0 {
				continue
			}
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.spotlight != b.spotlight {
			return a.spotlight
		}
		if a.spotlight && a.rank != b.rank {
			return a.rank < b.rank
		}
		if a.token.Symbol != b.token.Symbol {
			return a.token.Symbol < b.token.Symbol
		}
		return a.token.Chain < b.token.Chain
	})

	if len(out) > limit {
		out = out[:limit]
	}
	tokens := make([]domain.Token, len(out))
	for i, c := range out {
		tokens[i] = c.token
	}
	return tokens
}

// merged returns the base list with active spotlight tokens folded in. A
// spotlight entry for a listed token marks it; unlisted ones are appended.
func (s *Service) merged(ctx context.Context) []candidate {
	out := make([]candidate, len(s.base))
	index := make(map[string]int, len(s.base))
	for i, t := range s.base {
		t.Tags = append([]string(nil), t.Tags...)
		out[i] = candidate{token: t}
		index[tokenKey(t.Chain, t.Address)] = i
	}

	if s.spotlight == nil {
		return out
	}
	active, err := s.spotlight.ListActive(ctx, s.now())
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("spotlight tokens unavailable for search")
		return out
	}

	for _, sp := range active {
		key := tokenKey(sp.Chain, sp.TokenAddress)
		if i, ok := index[key]; ok {
			out[i].spotlight = true
			out[i].rank = sp.Rank
			out[i].token.Tags = append(out[i].token.Tags, SpotlightTag)
			continue
		}
		index[key] = len(out)
		out = append(out, candidate{
			token: domain.Token{
				Chain:   sp.Chain,
				Address: sp.TokenAddress,
				Symbol:  sp.Symbol,
				Name:    sp.Name,
				LogoURL: sp.LogoURL,
				Tags:    []string{SpotlightTag},
			},
			spotlight: true,
			rank:      sp.Rank,
		})
	}
	return out
}

func tokenKey(chain, address string) string {
	if strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X") {
		address = strings.ToLower(address)
	}
	return strings.ToLower(chain) + "|" + address
}

func score(t domain.Token, query string) int {
	if addressEqual(t.Address, query) {
		return scoreAddress
	}

	q := strings.ToLower(query)
	symbol := strings.ToLower(t.Symbol)
	name := strings.ToLower(t.Name)

	switch {
	case symbol == q:
		return scoreSymbolExact
	case strings.HasPrefix(symbol, q):
		return scoreSymbolPrefix
	case name == q:
		return scoreNameExact
	case strings.HasPrefix(name, q):
		return scoreNamePrefix
	case strings.Contains(symbol, q):
		return scoreSymbolSubstr
	case strings.Contains(name, q):
		return scoreNameSubstr
	}
	return 0
}

// addressEqual compares EVM addresses case-insensitively and base58 exactly.
func addressEqual(a, b string) bool {
	if a == "" {
		return false
	}
	if strings.HasPrefix(a, "0x") && strings.HasPrefix(strings.ToLower(b), "0x") {
		return strings.EqualFold(a, b)
	}
	return a == b
}
