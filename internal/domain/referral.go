package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferralCode is the shareable code owned by a wallet.
// Corresponds to referral_codes table in PostgreSQL.
type ReferralCode struct {
	Code      string    `json:"code"`
	Wallet    string    `json:"wallet"`
	CreatedAt time.Time `json:"createdAt"`
}

// Referral links a referred wallet to its referrer. A wallet is referred at most once.
// Corresponds to referrals table in PostgreSQL.
type Referral struct {
	RefereeWallet  string    `json:"refereeWallet"`
	ReferrerWallet string    `json:"referrerWallet"`
	Code           string    `json:"code"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ReferralStats is the aggregate view of a referrer.
type ReferralStats struct {
	Wallet         string          `json:"wallet"`
	Code           string          `json:"code,omitempty"`
	ReferralCount  int             `json:"referralCount"`
	TotalVolumeUSD decimal.Decimal `json:"totalVolumeUsd"`
	RewardsUSD     decimal.Decimal `json:"rewardsUsd"`
	Rank           int             `json:"rank,omitempty"` // 0 = unranked
}

// ZeroReferralStats is the fallback returned when stats cannot be loaded.
func ZeroReferralStats(wallet string) *ReferralStats {
	return &ReferralStats{
		Wallet:         wallet,
		TotalVolumeUSD: decimal.Zero,
		RewardsUSD:     decimal.Zero,
	}
}
