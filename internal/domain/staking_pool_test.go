package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStakingPoolUtilization(t *testing.T) {
	tests := []struct {
		name     string
		capacity string
		staked   string
		want     string
	}{
		{"bounded", "1000", "250", "0.25"},
		{"full", "1000", "1000", "1"},
		{"empty", "1000", "0", "0"},
		{"unbounded", "0", "5000", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &StakingPool{
				MaxCapacity: decimal.RequireFromString(tt.capacity),
				TotalStaked: decimal.RequireFromString(tt.staked),
			}
			got := p.Utilization()
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), got.String())
		})
	}
}
