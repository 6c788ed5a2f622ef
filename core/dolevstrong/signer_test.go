package dolevstrong

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSignerSchemes(t *testing.T) {
	assert := assert.New(t)

	s, err := NewSigner("", 3)
	assert.NoError(err)
	assert.IsType(HashSigner{}, s)

	s, err = NewSigner(SchemeECDSA, 3)
	assert.NoError(err)
	assert.IsType(&WalletSigner{}, s)

	s, err = NewSigner(SchemeBLS, 3)
	assert.NoError(err)
	assert.IsType(&BLSSigner{}, s)

	_, err = NewSigner("rsa", 3)
	assert.Error(err)
}

func TestSignersBindIdentityAndMessage(t *testing.T) {
	for _, scheme := range []string{SchemeHash, SchemeECDSA, SchemeBLS} {
		t.Run(scheme, func(t *testing.T) {
			assert := assert.New(t)
			signer, err := NewSigner(scheme, 3)
			require.NoError(t, err)

			sig := signer.Sign(2, "1:1:abc")
			assert.NotEmpty(sig)
			assert.True(signer.Verify(2, "1:1:abc", sig))
			assert.False(signer.Verify(3, "1:1:abc", sig))
			assert.False(signer.Verify(2, "0:1:abc", sig))
			assert.False(signer.Verify(2, "1:1:abc", "not-hex"))
		})
	}
}

func TestKeyedSignersRejectUnknownIdentity(t *testing.T) {
	for _, scheme := range []string{SchemeECDSA, SchemeBLS} {
		t.Run(scheme, func(t *testing.T) {
			signer, err := NewSigner(scheme, 2)
			require.NoError(t, err)

			assert.Equal(t, "", signer.Sign(5, "1"))
			assert.False(t, signer.Verify(5, "1", ""))
		})
	}
}
