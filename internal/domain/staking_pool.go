package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PoolStatus is the lifecycle state of a staking pool.
type PoolStatus string

const (
	PoolStatusActive PoolStatus = "active"
	PoolStatusPaused PoolStatus = "paused"
	PoolStatusClosed PoolStatus = "closed"
)

// IsValid checks if the status is a known value.
func (s PoolStatus) IsValid() bool {
	return s == PoolStatusActive || s == PoolStatusPaused || s == PoolStatusClosed
}

// StakingPool is an admin-managed staking pool.
// Corresponds to staking_pools table in PostgreSQL.
type StakingPool struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Chain           string          `json:"chain"`
	ContractAddress string          `json:"contractAddress"`
	TokenAddress    string          `json:"tokenAddress"`
	TokenSymbol     string          `json:"tokenSymbol"`
	APR             decimal.Decimal `json:"apr"` // percent
	LockDays        int             `json:"lockDays"`
	MinStake        decimal.Decimal `json:"minStake"`
	MaxCapacity     decimal.Decimal `json:"maxCapacity"` // 0 = unbounded
	TotalStaked     decimal.Decimal `json:"totalStaked"`
	Status          PoolStatus      `json:"status"`
	StartDate       time.Time       `json:"startDate"`
	EndDate         *time.Time      `json:"endDate,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Validate checks fields that do not depend on the chain registry.
func (p *StakingPool) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalidf("pool name is required")
	}
	if strings.TrimSpace(p.Chain) == "" {
		return invalidf("pool chain is required")
	}
	if strings.TrimSpace(p.TokenSymbol) == "" {
		return invalidf("pool token symbol is required")
	}
	if p.APR.IsNegative() {
		return invalidf("pool apr must not be negative")
	}
	if p.LockDays < 0 {
		return invalidf("pool lock days must not be negative")
	}
	if p.MinStake.IsNegative() || p.MaxCapacity.IsNegative() || p.TotalStaked.IsNegative() {
		return invalidf("pool amounts must not be negative")
	}
	if p.MaxCapacity.IsPositive() && p.TotalStaked.GreaterThan(p.MaxCapacity) {
		return invalidf("pool total staked exceeds capacity")
	}
	if !p.Status.IsValid() {
		return invalidf("unknown pool status %q", p.Status)
	}
	if p.EndDate != nil && !p.EndDate.After(p.StartDate) {
		return invalidf("pool end date must be after start date")
	}
	return nil
}

// Utilization returns TotalStaked / MaxCapacity, or zero for unbounded pools.
func (p *StakingPool) Utilization() decimal.Decimal {
	if !p.MaxCapacity.IsPositive() {
		return decimal.Zero
	}
	return p.TotalStaked.Div(p.MaxCapacity)
}
