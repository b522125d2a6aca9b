package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const privateKeyOne = "0000000000000000000000000000000000000000000000000000000000000001"

func TestPayoutKeyFromHex_KnownKey(t *testing.T) {
	key, err := PayoutKeyFromHex(privateKeyOne)
	require.NoError(t, err)

	assert.Equal(t, "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798", hex.EncodeToString(key.PublicKey))
	assert.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6", hex.EncodeToString(Hash160(key.PublicKey)))
	assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", key.Address())
	assert.Equal(t, privateKeyOne, key.PrivateKeyHex())
}

func TestPayoutKeyFromHex_Errors(t *testing.T) {
	_, err := PayoutKeyFromHex("zz")
	require.Error(t, err)

	_, err = PayoutKeyFromHex("0102")
	require.Error(t, err)
}

func TestNewPayoutKey(t *testing.T) {
	key1, err := NewPayoutKey()
	require.NoError(t, err)

	key2, err := NewPayoutKey()
	require.NoError(t, err)

	assert.Len(t, key1.PublicKey, 33)
	assert.NotEqual(t, key1.Address(), key2.Address())

	restored, err := PayoutKeyFromHex(key1.PrivateKeyHex())
	require.NoError(t, err)
	assert.Equal(t, key1.PublicKey, restored.PublicKey)
}

func TestAddress_RoundTrip(t *testing.T) {
	pubKeyHash, err := hex.DecodeString("751e76e8199196d454941c45d1b3a323f1433bd6")
	require.NoError(t, err)

	address := EncodeAddress(pubKeyHash)

	decoded, err := DecodeAddress(address)
	require.NoError(t, err)
	assert.Equal(t, pubKeyHash, decoded)
}

func TestDecodeAddress_Errors(t *testing.T) {
	_, err := DecodeAddress("0OIl")
	require.Error(t, err, "invalid base58 characters")

	_, err = DecodeAddress("1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMJ")
	require.Error(t, err, "checksum mismatch")

	_, err = DecodeAddress("1111")
	require.Error(t, err, "too short")
}

func TestScriptForAddress(t *testing.T) {
	script, err := ScriptForAddress("")
	require.NoError(t, err)
	assert.Equal(t, []byte{OpTrue}, script)

	script, err = ScriptForAddress("1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH")
	require.NoError(t, err)
	assert.Equal(t, "76a914751e76e8199196d454941c45d1b3a323f1433bd688ac", hex.EncodeToString(script))

	_, err = ScriptForAddress("not-an-address")
	require.Error(t, err)
}
