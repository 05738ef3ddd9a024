package common

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// SOLDecimals is the lamport precision of one SOL
const SOLDecimals = 9

// LamportsToSOL renders lamports as a SOL amount with all nine decimals
func LamportsToSOL(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -SOLDecimals).StringFixed(SOLDecimals)
}

// ShortenAddress renders an address as "abcd...wxyz".
func ShortenAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:4] + "..." + address[len(address)-4:]
}

// Truncate cuts message to max runes, marking the cut with "...".
func Truncate(message string, max int) string {
	r := []rune(message)
	if len(r) <= max {
		return message
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
