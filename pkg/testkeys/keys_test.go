package testkeys

import (
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTestKeys(t *testing.T) {
	first, err := GetTestKeys()
	require.NoError(t, err)
	second, err := GetTestKeys()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 2048, first.PrivateKey.N.BitLen())
}

func TestGenerateTestKeys_PEMMatchesPrivateKey(t *testing.T) {
	keys, err := GenerateTestKeys()
	require.NoError(t, err)

	block, _ := pem.Decode([]byte(keys.PublicKeyPEM))
	require.NotNil(t, block)
	assert.Equal(t, "PUBLIC KEY", block.Type)

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(t, err)
	assert.Equal(t, &keys.PrivateKey.PublicKey, parsed)
}
