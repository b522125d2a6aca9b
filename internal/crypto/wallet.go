package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // hash160 is defined over RIPEMD-160
)

const (
	// AddressVersion is the version byte for pay-to-pubkey-hash addresses
	AddressVersion = 0x00

	// ChecksumLength is the length of address checksum
	ChecksumLength = 4

	// PubKeyHashLength is the length of a RIPEMD160(SHA256(pubKey)) digest
	PubKeyHashLength = 20
)

// Script opcodes used by payout scripts
const (
	OpTrue        = 0x51
	OpDup         = 0x76
	OpHash160     = 0xa9
	OpEqualVerify = 0x88
	OpCheckSig    = 0xac
)

// PayoutKey is a secp256k1 key pair that receives the coinbase reward
type PayoutKey struct {
	PrivateKey *btcec.PrivateKey
	PublicKey  []byte // compressed
}

// NewPayoutKey generates a fresh payout key
func NewPayoutKey() (*PayoutKey, error) {
	privateKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %v", err)
	}

	return &PayoutKey{
		PrivateKey: privateKey,
		PublicKey:  privateKey.PubKey().SerializeCompressed(),
	}, nil
}

// PayoutKeyFromHex restores a payout key from its 32-byte hex scalar
func PayoutKeyFromHex(hexKey string) (*PayoutKey, error) {
	b, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %v", err)
	}

	return PayoutKeyFromBytes(b)
}

// PayoutKeyFromBytes restores a payout key from its 32-byte scalar
func PayoutKeyFromBytes(b []byte) (*PayoutKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}

	privateKey, publicKey := btcec.PrivKeyFromBytes(b)

	return &PayoutKey{
		PrivateKey: privateKey,
		PublicKey:  publicKey.SerializeCompressed(),
	}, nil
}

// PrivateKeyHex returns the private scalar as hex
func (k *PayoutKey) PrivateKeyHex() string {
	return hex.EncodeToString(k.PrivateKey.Serialize())
}

// Address returns the base58check P2PKH address of the key
func (k *PayoutKey) Address() string {
	return EncodeAddress(Hash160(k.PublicKey))
}

// Hash160 returns RIPEMD160(SHA256(data))
func Hash160(data []byte) []byte {
	sha256Hash := sha256.Sum256(data)
	ripemd160Hasher := ripemd160.New()
	ripemd160Hasher.Write(sha256Hash[:])
	return ripemd160Hasher.Sum(nil)
}

// EncodeAddress encodes a public key hash into a base58check address
func EncodeAddress(pubKeyHash []byte) string {
	versionedPayload := append([]byte{AddressVersion}, pubKeyHash...)
	fullPayload := append(versionedPayload, Checksum(versionedPayload)...)

	return base58.Encode(fullPayload)
}

// DecodeAddress decodes a base58check P2PKH address to its public key hash
func DecodeAddress(address string) ([]byte, error) {
	decoded, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("failed to decode address: %v", err)
	}

	if len(decoded) != 1+PubKeyHashLength+ChecksumLength {
		return nil, fmt.Errorf("invalid address length %d", len(decoded))
	}

	payload := decoded[:len(decoded)-ChecksumLength]
	checksumProvided := decoded[len(decoded)-ChecksumLength:]

	if !bytes.Equal(Checksum(payload), checksumProvided) {
		return nil, fmt.Errorf("invalid address checksum")
	}

	return payload[1:], nil
}

// Checksum generates a 4-byte checksum for address encoding
func Checksum(payload []byte) []byte {
	hash := DoubleHash(payload)
	return hash[:ChecksumLength]
}

// PayToPubKeyHashScript builds OP_DUP OP_HASH160 <hash> OP_EQUALVERIFY OP_CHECKSIG
func PayToPubKeyHashScript(pubKeyHash []byte) []byte {
	script := make([]byte, 0, 25)
	script = append(script, OpDup, OpHash160, byte(len(pubKeyHash)))
	script = append(script, pubKeyHash...)
	script = append(script, OpEqualVerify, OpCheckSig)

	return script
}

// ScriptForAddress returns the P2PKH locking script for address, or OP_TRUE when address is empty
func ScriptForAddress(address string) ([]byte, error) {
	if address == "" {
		return []byte{OpTrue}, nil
	}

	pubKeyHash, err := DecodeAddress(address)
	if err != nil {
		return nil, err
	}

	return PayToPubKeyHashScript(pubKeyHash), nil
}
