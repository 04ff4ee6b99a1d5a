package config

import (
	"fmt"

	"github.com/LeJamon/goMarketd/internal/core/fees"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

// MarketConfig represents the [market] section
type MarketConfig struct {
	// FeePolicy is "stacked" or "override".
	FeePolicy          string `toml:"fee_policy" mapstructure:"fee_policy" yaml:"fee_policy"`
	AllowExpiredAccept bool   `toml:"allow_expired_accept" mapstructure:"allow_expired_accept" yaml:"allow_expired_accept"`

	// Operator is the marketplace address buyers approve as spender.
	Operator string `toml:"operator" mapstructure:"operator" yaml:"operator"`
}

// Policy parses FeePolicy.
func (m *MarketConfig) Policy() (fees.Policy, error) {
	return fees.ParsePolicy(m.FeePolicy)
}

// OperatorAddress parses Operator.
func (m *MarketConfig) OperatorAddress() (types.Address, error) {
	return types.ParseAddress(m.Operator)
}

// Validate performs validation on the market configuration
func (m *MarketConfig) Validate() error {
	if _, err := m.Policy(); err != nil {
		return err
	}
	if m.Operator == "" {
		return fmt.Errorf("market operator is required")
	}
	addr, err := m.OperatorAddress()
	if err != nil {
		return fmt.Errorf("invalid market operator: %w", err)
	}
	if addr.IsZero() {
		return fmt.Errorf("market operator must not be the zero address")
	}
	return nil
}
