// Package testkeys provides an RSA key pair for signing session tokens in tests.
// These keys should NEVER be used in production.
package testkeys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"sync"
)

// TestKeys holds the key pair used to sign and verify RS256 session tokens
type TestKeys struct {
	PrivateKey   *rsa.PrivateKey
	PublicKeyPEM string
}

var (
	once    sync.Once
	keys    *TestKeys
	keysErr error
)

// GetTestKeys returns a process-wide RSA key pair, generated on first use
func GetTestKeys() (*TestKeys, error) {
	once.Do(func() {
		keys, keysErr = GenerateTestKeys()
	})
	return keys, keysErr
}

// GenerateTestKeys creates a new 2048-bit key pair with a PEM encoded public key
func GenerateTestKeys() (*TestKeys, error) {
	private, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	der, err := x509.MarshalPKIXPublicKey(&private.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	return &TestKeys{
		PrivateKey:   private,
		PublicKeyPEM: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
	}, nil
}
