// Package address canonicalizes wallet addresses so that format-equivalent
// inputs compare equal.
package address

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"

	"wallet_portfolio/internal/domain"
)

var (
	evmPattern    = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	p2pkhPattern  = regexp.MustCompile(`^[13][a-km-zA-HJ-NP-Z1-9]{25,34}$`)
	bech32Pattern = regexp.MustCompile(`^bc1[ac-hj-np-z02-9]{11,71}$`)
)

// Normalize returns the canonical form of raw for the given family.
// EVM addresses are lower-cased; bitcoin addresses are case-sensitive and
// returned as given once they match an accepted pattern.
func Normalize(raw string, family domain.Family) (string, error) {
	s := strings.TrimSpace(raw)
	switch family {
	case domain.FamilyEVM:
		if !evmPattern.MatchString(s) {
			return "", fmt.Errorf("%w: not a 0x-prefixed 40 hex digit address", domain.ErrInvalidFormat)
		}
		return strings.ToLower(s), nil
	case domain.FamilyBitcoin:
		if !p2pkhPattern.MatchString(s) && !bech32Pattern.MatchString(s) {
			return "", fmt.Errorf("%w: not a bitcoin address", domain.ErrInvalidFormat)
		}
		return s, nil
	default:
		return "", fmt.Errorf("%w: unknown address family %q", domain.ErrInvalidFormat, family)
	}
}

// Detect guesses the family of raw. It returns an error when neither
// family accepts it.
func Detect(raw string) (domain.Family, error) {
	if _, err := Normalize(raw, domain.FamilyEVM); err == nil {
		return domain.FamilyEVM, nil
	}
	if _, err := Normalize(raw, domain.FamilyBitcoin); err == nil {
		return domain.FamilyBitcoin, nil
	}
	return "", fmt.Errorf("%w: unrecognized address", domain.ErrInvalidFormat)
}

// Checksum converts an EVM address to its EIP-55 mixed-case form.
func Checksum(addr string) string {
	addr = strings.TrimPrefix(strings.ToLower(addr), "0x")
	if len(addr) != 40 {
		return "0x" + addr
	}

	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(addr))
	hashBytes := hash.Sum(nil)

	result := make([]byte, 42)
	result[0] = '0'
	result[1] = 'x'
	for i := 0; i < 40; i++ {
		c := addr[i]
		nibble := hashBytes[i/2] & 0x0f
		if i%2 == 0 {
			nibble = hashBytes[i/2] >> 4
		}
		if nibble >= 8 && c >= 'a' && c <= 'f' {
			result[2+i] = c - 32
		} else {
			result[2+i] = c
		}
	}
	return string(result)
}

// Code derives the short 3-letter/3-digit display code of a canonical
// address. It is stable for an address but not unique across users.
func Code(canonical string) string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	const digits = "0123456789"

	charAt := func(i int) int {
		if i < len(canonical) {
			return int(canonical[i])
		}
		return 0
	}

	var b strings.Builder
	for i := 0; i < 3; i++ {
		b.WriteByte(letters[charAt(i+2)%len(letters)])
	}
	for i := 0; i < 3; i++ {
		b.WriteByte(digits[charAt(i+5)%len(digits)])
	}
	return b.String()
}
