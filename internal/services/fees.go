package services

import (
	"fmt"
	"math"

	"github.com/ArowuTest/mcash-backend/internal/apperrors"
	"github.com/ArowuTest/mcash-backend/internal/config"
	"github.com/shopspring/decimal"
)

// FeePolicy holds the transfer limits and fee rates, all in minor units
type FeePolicy struct {
	MinimumTransfer       int64
	MaximumTransfer       int64
	SendMoneyFlatFee      int64
	SendMoneyFeeThreshold int64
	CashOutFeeRate        decimal.Decimal
	CashOutPlatformRate   decimal.Decimal
}

// CashOutFees is the split of a cash-out fee. Fee always equals PlatformFee + AgentCommission.
type CashOutFees struct {
	Fee             int64
	PlatformFee     int64
	AgentCommission int64
}

// NewFeePolicy builds a FeePolicy from ledger configuration
func NewFeePolicy(cfg config.LedgerConfig) (FeePolicy, error) {
	feeRate, err := decimal.NewFromString(cfg.CashOutFeeRate)
	if err != nil {
		return FeePolicy{}, fmt.Errorf("invalid cash-out fee rate %q: %w", cfg.CashOutFeeRate, err)
	}
	platformRate, err := decimal.NewFromString(cfg.CashOutPlatformRate)
	if err != nil {
		return FeePolicy{}, fmt.Errorf("invalid cash-out platform rate %q: %w", cfg.CashOutPlatformRate, err)
	}
	if feeRate.IsNegative() || platformRate.IsNegative() || platformRate.GreaterThan(feeRate) {
		return FeePolicy{}, fmt.Errorf("cash-out rates must satisfy 0 <= platform (%s) <= fee (%s)", platformRate, feeRate)
	}
	if cfg.MinimumTransfer <= 0 || cfg.SendMoneyFee < 0 {
		return FeePolicy{}, fmt.Errorf("minimum transfer must be positive and send-money fee non-negative")
	}
	if cfg.MaximumTransfer < cfg.MinimumTransfer {
		return FeePolicy{}, fmt.Errorf("maximum transfer %d is below the minimum %d", cfg.MaximumTransfer, cfg.MinimumTransfer)
	}
	// The largest debit, amount plus fee, must fit in int64
	largest := decimal.NewFromInt(cfg.MaximumTransfer)
	fee := decimal.Max(decimal.NewFromInt(cfg.SendMoneyFee), largest.Mul(feeRate).Round(0))
	if largest.Add(fee).GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return FeePolicy{}, fmt.Errorf("maximum transfer %d is too large for the configured fees", cfg.MaximumTransfer)
	}

	return FeePolicy{
		MinimumTransfer:       cfg.MinimumTransfer,
		MaximumTransfer:       cfg.MaximumTransfer,
		SendMoneyFlatFee:      cfg.SendMoneyFee,
		SendMoneyFeeThreshold: cfg.SendMoneyFeeThreshold,
		CashOutFeeRate:        feeRate,
		CashOutPlatformRate:   platformRate,
	}, nil
}

// SendMoneyFee charges the flat fee only above the threshold
func (p FeePolicy) SendMoneyFee(amount int64) int64 {
	if amount > p.SendMoneyFeeThreshold {
		return p.SendMoneyFlatFee
	}
	return 0
}

// CashOutFees rounds fee and platform share half away from zero; the agent gets the rest
func (p FeePolicy) CashOutFees(amount int64) CashOutFees {
	base := decimal.NewFromInt(amount)
	fee := base.Mul(p.CashOutFeeRate).Round(0).IntPart()
	platform := base.Mul(p.CashOutPlatformRate).Round(0).IntPart()
	if platform > fee {
		platform = fee
	}
	return CashOutFees{
		Fee:             fee,
		PlatformFee:     platform,
		AgentCommission: fee - platform,
	}
}

// checkMaximum rejects amounts above the configured transfer limit
func (p FeePolicy) checkMaximum(amount int64) error {
	if amount > p.MaximumTransfer {
		return apperrors.Validation("maximum amount is %d", p.MaximumTransfer)
	}
	return nil
}

// addAmounts sums two non-negative amounts, failing instead of wrapping
func addAmounts(a, b int64) (int64, error) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, apperrors.Validation("amount is too large")
	}
	return a + b, nil
}
