package chain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Asset is a token quantity such as "1.0000 EOS".
type Asset struct {
	Amount    decimal.Decimal
	Precision int32
	Symbol    string
}

// ParseAsset parses "<amount> <SYMBOL>". The number of fractional digits
// in amount is the symbol precision.
func ParseAsset(s string) (Asset, error) {
	amount, symbol, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok || symbol == "" || strings.ContainsAny(symbol, " \t") {
		return Asset{}, fmt.Errorf("invalid asset %q", s)
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return Asset{}, fmt.Errorf("invalid asset amount %q: %w", amount, err)
	}

	var precision int32
	if _, frac, ok := strings.Cut(amount, "."); ok {
		precision = int32(len(frac))
	}
	return Asset{Amount: value, Precision: precision, Symbol: symbol}, nil
}

// String formats the asset with its original precision.
func (a Asset) String() string {
	return a.Amount.StringFixed(a.Precision) + " " + a.Symbol
}

func (a Asset) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Asset) UnmarshalText(text []byte) error {
	parsed, err := ParseAsset(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
