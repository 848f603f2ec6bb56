// Package market resolves trading pairs against perp, spot and on-chain sources.
package market

import (
	"fmt"
	"regexp"
	"strings"

	"defi-hub/internal/domain"
)

// Quote suffixes recognised in separator-less pairs such as btcusdt.
// Longer suffixes come first so FDUSD is not read as USD. BUSD is left out:
// bnbusd must read as BNB-USD, so BUSD pairs need a separator.
var quoteSuffixes = []string{"FDUSD", "USDT", "USDC", "USD", "BTC", "ETH", "BNB"}

var symbolRe = regexp.MustCompile(`^[A-Z0-9]{1,15}$`)

// Pair is a canonical BASE-QUOTE trading pair.
type Pair struct {
	Base  string
	Quote string
}

func (p Pair) String() string {
	return p.Base + "-" + p.Quote
}

// USDQuoted reports whether the quote is USD or a USD stablecoin.
func (p Pair) USDQuoted() bool {
	switch p.Quote {
	case "USD", "USDT", "USDC", "FDUSD", "BUSD":
		return true
	}
	return false
}

// ParsePair accepts BTC-USD, BTC/USDT, BTC_USDT and btcusdt forms.
func ParsePair(s string) (Pair, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if raw == "" {
		return Pair{}, fmt.Errorf("%w: pair is required", domain.ErrInvalid)
	}

	var p Pair
	if seps := strings.Count(raw, "-") + strings.Count(raw, "/") + strings.Count(raw, "_"); seps > 0 {
		parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '-' || r == '/' || r == '_' })
		if seps != 1 || len(parts) != 2 {
			return Pair{}, fmt.Errorf("%w: malformed pair %q", domain.ErrInvalid, s)
		}
		p = Pair{Base: parts[0], Quote: parts[1]}
	} else {
		for _, q := range quoteSuffixes {
			if strings.HasSuffix(raw, q) && len(raw) > len(q) {
				p = Pair{Base: strings.TrimSuffix(raw, q), Quote: q}
				break
			}
		}
		if p.Quote == "" {
			return Pair{}, fmt.Errorf("%w: unknown quote in pair %q", domain.ErrInvalid, s)
		}
	}

	if !symbolRe.MatchString(p.Base) || !symbolRe.MatchString(p.Quote) {
		return Pair{}, fmt.Errorf("%w: malformed pair %q", domain.ErrInvalid, s)
	}
	return p, nil
}
