package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ComputeHMAC256 returns the hex encoded HMAC-SHA256 of toSign
func ComputeHMAC256(toSign []byte, secretKey string) string {
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write(toSign)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHMAC256 reports whether providedSign is the hex encoded HMAC-SHA256 of
// toSign. The comparison is constant time; malformed hex never matches.
func VerifyHMAC256(toSign []byte, secretKey string, providedSign string) bool {
	provided, err := hex.DecodeString(providedSign)
	if err != nil {
		return false
	}
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write(toSign)
	return hmac.Equal(provided, h.Sum(nil))
}
