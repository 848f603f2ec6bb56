package market

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"defi-hub/internal/observability"
)

const (
	// StreamMaxAge is how long a streamed ticker is trusted.
	StreamMaxAge = 30 * time.Second

	minReconnectDelay = time.Second
	maxReconnectDelay = 30 * time.Second
)

// Ticker is the latest 24h mini ticker for one symbol.
type Ticker struct {
	Symbol      string
	Close       decimal.Decimal
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Volume      decimal.Decimal
	QuoteVolume decimal.Decimal
	UpdatedAt   time.Time
}

func (t Ticker) quote() *Quote {
	q := &Quote{
		Source:    "binance",
		Price:     t.Close,
		High24h:   t.High,
		Low24h:    t.Low,
		Volume24h: t.QuoteVolume,
	}
	if t.Open.IsPositive() {
		q.Change24hPct = t.Close.Sub(t.Open).Div(t.Open).Mul(hundred).Round(4)
	}
	return q
}

// TickerStream follows the Binance combined miniTicker stream for a fixed
// symbol set and keeps the latest ticker per symbol.
type TickerStream struct {
	url    string
	dialer websocket.Dialer
	now    func() time.Time

	mu     sync.RWMutex
	latest map[string]Ticker
}

// NewTickerStream prepares a stream for symbols such as btcusdt. Run starts it.
func NewTickerStream(wsURL string, symbols []string) *TickerStream {
	streams := make([]string, 0, len(symbols))
	for _, s := range symbols {
		streams = append(streams, strings.ToLower(s)+"@miniTicker")
	}
	return &TickerStream{
		url:    fmt.Sprintf("%s/stream?streams=%s", strings.TrimRight(wsURL, "/"), strings.Join(streams, "/")),
		dialer: websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		now:    time.Now,
		latest: make(map[string]Ticker),
	}
}

// Latest returns the ticker for symbol if it arrived within StreamMaxAge.
func (s *TickerStream) Latest(symbol string) (Ticker, bool) {
	s.mu.RLock()
	t, ok := s.latest[strings.ToUpper(symbol)]
	s.mu.RUnlock()

	if !ok || s.now().Sub(t.UpdatedAt) > StreamMaxAge {
		return Ticker{}, false
	}
	return t, true
}

// Run connects and reads until ctx is done, reconnecting with exponential backoff.
func (s *TickerStream) Run(ctx context.Context) {
	delay := minReconnectDelay
	for {
		connected, err := s.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			delay = minReconnectDelay
		}
		observability.RecordTickerReconnect()
		log.Warn().Err(err).Dur("retry_in", delay).Msg("binance ticker stream disconnected")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// session runs one connection. connected reports whether the dial succeeded.
func (s *TickerStream) session(ctx context.Context) (connected bool, err error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	log.Info().Str("url", s.url).Msg("binance ticker stream connected")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("read: %w", err)
		}
		if t, ok := parseMiniTicker(msg, s.now()); ok {
			s.mu.Lock()
			s.latest[t.Symbol] = t
			s.mu.Unlock()
			observability.RecordTickerUpdate()
		}
	}
}

type miniTickerEnvelope struct {
	Stream string `json:"stream"`
	Data   struct {
		Symbol      string `json:"s"`
		Close       string `json:"c"`
		Open        string `json:"o"`
		High        string `json:"h"`
		Low         string `json:"l"`
		Volume      string `json:"v"`
		QuoteVolume string `json:"q"`
	} `json:"data"`
}

func parseMiniTicker(msg []byte, at time.Time) (Ticker, bool) {
	var env miniTickerEnvelope
	if err := json.Unmarshal(msg, &env); err != nil || env.Data.Symbol == "" {
		return Ticker{}, false
	}

	closePrice, err := decimal.NewFromString(env.Data.Close)
	if err != nil || !closePrice.IsPositive() {
		return Ticker{}, false
	}
	open, _ := parseDecimal(env.Data.Open)
	high, _ := parseDecimal(env.Data.High)
	low, _ := parseDecimal(env.Data.Low)
	vol, _ := parseDecimal(env.Data.Volume)
	qvol, _ := parseDecimal(env.Data.QuoteVolume)

	return Ticker{
		Symbol:      strings.ToUpper(env.Data.Symbol),
		Close:       closePrice,
		Open:        open,
		High:        high,
		Low:         low,
		Volume:      vol,
		QuoteVolume: qvol,
		UpdatedAt:   at,
	}, true
}
