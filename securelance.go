package securelance

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ChallengeTemplate is the exact message a wallet signs to log in. The nonce
// is always taken from stored state, never from the request.
const ChallengeTemplate = "Welcome to SecureLance! Sign this message to log in. Nonce: %s"

// IsAddress reports whether s is a well-formed 0x-prefixed Ethereum address.
func IsAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

// NormalizeAddress lowercases a well-formed address. Addresses are stored and
// compared in lowercase everywhere.
func NormalizeAddress(s string) (string, error) {
	if !IsAddress(s) {
		return "", fmt.Errorf("invalid address: %s", s)
	}
	return strings.ToLower(s), nil
}

// PlaceholderName derives the auto-generated display name for a fresh
// identity from the first 6 characters of its normalized address.
func PlaceholderName(address string) string {
	if len(address) < 6 {
		return "user_" + address
	}
	return "user_" + address[:6]
}

// NewNonce returns a 32-char hex token for the login challenge.
func NewNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Challenge builds the login message for the given nonce.
func Challenge(nonce string) string {
	return fmt.Sprintf(ChallengeTemplate, nonce)
}
