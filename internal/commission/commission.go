package commission

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals maps a chain name to the scale of its native token. Chains
// missing here are treated as scale 0.
var Decimals = map[string]int32{
	"CRONOS":        18,
	"ETHEREUM":      18,
	"BNBCHAIN":      18,
	"ARBITRUM":      18,
	"AVALANCHE":     18,
	"OPTIMISM":      18,
	"POLYGON":       18,
	"FANTOM":        18,
	"KLAYTN":        18,
	"GNOSIS":        18,
	"AURORA":        18,
	"CELO":          18,
	"MOONBEAM":      18,
	"MOONRIVER":     18,
	"METIS":         18,
	"ASTAR":         18,
	"everscale":     0,
	"venom-testnet": 0,
}

func DecimalsFor(blockchain string) int32 {
	return Decimals[blockchain]
}

// CalcCommissions sums the rate for one chain across a feed's schedule
// chain (own schedule plus each ancestor's). Rates are whole-token decimal
// strings; a malformed rate is an error so validation can fail closed.
func CalcCommissions(blockchain string, schedules []map[string]string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, schedule := range schedules {
		raw, ok := schedule[blockchain]
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return decimal.Zero, fmt.Errorf("malformed commission rate %q for %s: %w", raw, blockchain, err)
		}
		total = total.Add(rate)
	}
	return total, nil
}

// CalcCommissionDecimals converts a whole-token commission into base units.
func CalcCommissionDecimals(value decimal.Decimal, decimals int32) decimal.Decimal {
	return value.Shift(decimals)
}

// ExcludeDecimals converts a base-unit amount string into the whole-token
// display value.
func ExcludeDecimals(raw string, decimals int32) (string, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("malformed amount %q: %w", raw, err)
	}
	return value.Shift(-decimals).String(), nil
}

// IsGreaterOrEqual reports a >= b over decimal strings. The boundary is
// inclusive: paying exactly the required commission is valid.
func IsGreaterOrEqual(a, b string) (bool, error) {
	left, err := decimal.NewFromString(strings.TrimSpace(a))
	if err != nil {
		return false, fmt.Errorf("malformed amount %q: %w", a, err)
	}
	right, err := decimal.NewFromString(strings.TrimSpace(b))
	if err != nil {
		return false, fmt.Errorf("malformed amount %q: %w", b, err)
	}
	return left.GreaterThanOrEqual(right), nil
}
