package i18n

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FromNano converts nanotons to an exact decimal amount of TON without
// thousands separators or trailing zeros: 1500000000 is "1.5".
func FromNano(amount uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -9).String()
}
