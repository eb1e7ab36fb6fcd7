package common

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	SOLDecimals    = 9 // SOL has 9 decimals (lamports)
	TokenDecimals  = 6 // fungible payment token has 6 decimals (micro)
	UniqueDecimals = 0 // NFTs are indivisible
)

// LamportsToSOL converts lamports to SOL string without float precision loss
func LamportsToSOL(lamports uint64) string {
	return FormatWithDecimals(lamports, SOLDecimals)
}

// FormatWithDecimals converts integer to decimal string by inserting decimal point
// Example: FormatWithDecimals(24981836, 9) = "0.024981836"
func FormatWithDecimals(value uint64, decimals uint8) string {
	s := strconv.FormatUint(value, 10)
	if decimals == 0 {
		return s
	}

	// Pad with leading zeros if needed
	for len(s) <= int(decimals) {
		s = "0" + s
	}

	// Insert decimal point
	pos := len(s) - int(decimals)
	return s[:pos] + "." + s[pos:]
}

// ParseWithDecimals converts decimal string to base units by removing the decimal point.
// Example: ParseWithDecimals("20", 6) = 20000000
//
// Unlike a float conversion it rejects fractional digits beyond decimals
// instead of silently truncating them.
func ParseWithDecimals(s string, decimals uint8) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("signed amount %q", s)
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("invalid decimal format")
	}

	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = strings.TrimRight(parts[1], "0")
	}
	if whole == "" {
		whole = "0"
	}

	if len(frac) > int(decimals) {
		return 0, fmt.Errorf("amount %q has more than %d fractional digits", s, decimals)
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	n, err := strconv.ParseUint(whole+frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return n, nil
}

// IsMainnetEndpoint reports whether an RPC endpoint points at mainnet-beta.
func IsMainnetEndpoint(rpcURL string) bool {
	return strings.Contains(strings.ToLower(rpcURL), "mainnet")
}
