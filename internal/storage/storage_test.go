package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/btminer/internal/crypto"
	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/internal/tx"
	"github.com/yourusername/btminer/pkg/types"
)

func openStorage(t *testing.T) (*Storage, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "blocks.db")

	s, err := NewStorage(path)
	require.NoError(t, err)

	return s, path
}

func testBlock(t *testing.T, prev types.Hash, extraNonce uint64) *StoredBlock {
	t.Helper()

	coinbase, err := tx.NewCoinbaseTx(tx.CoinbaseParams{
		Text:       "/btminer/",
		ExtraNonce: extraNonce,
		Payouts:    []tx.Payout{{Script: []byte{crypto.OpTrue}, Value: 5000000000}},
	})
	require.NoError(t, err)

	spend := tx.NewTransaction(
		[]tx.TxInput{{
			PrevOut:   tx.OutPoint{TxID: coinbase.TxID(), Index: 0},
			ScriptSig: []byte{0x01, 0x02},
			Sequence:  tx.MaxSequence,
			Witness:   [][]byte{{0x30, 0x44}},
		}},
		[]tx.TxOutput{{Value: 4999990000, PkScript: []byte{crypto.OpTrue}}},
	)

	return &StoredBlock{
		ID:      uuid.New(),
		MinedAt: time.Unix(1700000100, 0),
		Header: types.BlockHeader{
			Version:       1,
			PrevBlockHash: prev,
			MerkleRoot:    crypto.DoubleHashPair(coinbase.TxID(), spend.TxID()),
			Timestamp:     1700000000,
			Bits:          0x2000ffff,
			Nonce:         530,
		},
		Transactions: []*tx.Transaction{coinbase, spend},
	}
}

func TestSaveBlock_RoundTrip(t *testing.T) {
	s, _ := openStorage(t)
	defer s.Close()

	block := testBlock(t, types.Hash{}, 0)
	require.NoError(t, s.SaveBlock(block))

	loaded, err := s.GetBlock(block.Hash())
	require.NoError(t, err)

	assert.Equal(t, block.ID, loaded.ID)
	assert.Equal(t, block.Header, loaded.Header)
	assert.Equal(t, uint32(0), loaded.Height)
	assert.True(t, block.MinedAt.Equal(loaded.MinedAt))
	require.Len(t, loaded.Transactions, 2)

	for i := range block.Transactions {
		assert.True(t, block.Transactions[i].Equal(loaded.Transactions[i]), "tx %d", i)
	}

	assert.True(t, s.BlockExists(block.Hash()))
}

func TestSaveBlock_TipAndHeight(t *testing.T) {
	s, path := openStorage(t)

	_, err := s.GetChainTip()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	first := testBlock(t, types.Hash{}, 0)
	require.NoError(t, s.SaveBlock(first))

	second := testBlock(t, first.Hash(), 1)
	require.NoError(t, s.SaveBlock(second))
	assert.Equal(t, uint32(1), second.Height)

	tip, err := s.GetChainTip()
	require.NoError(t, err)
	assert.Equal(t, second.Hash(), tip)

	require.NoError(t, s.Close())

	// survives reopening
	s, err = NewStorage(path)
	require.NoError(t, err)
	defer s.Close()

	tip, err = s.GetChainTip()
	require.NoError(t, err)
	assert.Equal(t, second.Hash(), tip)

	chain, err := s.Ancestors(tip, 10)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, second.Hash(), chain[0].Hash())
	assert.Equal(t, first.Hash(), chain[1].Hash())

	chain, err = s.Ancestors(tip, 1)
	require.NoError(t, err)
	assert.Len(t, chain, 1)

	n, err := s.CountBlocks()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGetBlock_NotFound(t *testing.T) {
	s, _ := openStorage(t)
	defer s.Close()

	_, err := s.GetBlock(crypto.DoubleHash([]byte("missing")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.False(t, s.BlockExists(crypto.DoubleHash([]byte("missing"))))
}

func TestDeserializeBlock_RejectsCorruption(t *testing.T) {
	data := serializeBlock(testBlock(t, types.Hash{}, 0))

	_, err := deserializeBlock(data[:len(data)-1])
	require.Error(t, err)

	_, err = deserializeBlock(append(data, 0x00))
	require.Error(t, err)

	_, err = deserializeBlock(data[:40])
	require.Error(t, err)
}

func TestPayoutKeys(t *testing.T) {
	s, _ := openStorage(t)
	defer s.Close()

	addresses, err := s.PayoutAddresses()
	require.NoError(t, err)
	assert.Empty(t, addresses)

	key, err := crypto.PayoutKeyFromHex("0000000000000000000000000000000000000000000000000000000000000001")
	require.NoError(t, err)

	other, err := crypto.NewPayoutKey()
	require.NoError(t, err)

	require.NoError(t, s.SavePayoutKey(key))
	require.NoError(t, s.SavePayoutKey(other))
	require.NoError(t, s.SavePayoutKey(key))

	addresses, err = s.PayoutAddresses()
	require.NoError(t, err)
	assert.Len(t, addresses, 2)
	assert.Contains(t, addresses, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH")

	loaded, err := s.GetPayoutKey("1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH")
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey, loaded.PublicKey)

	require.NoError(t, s.DeletePayoutKey(key.Address()))

	_, err = s.GetPayoutKey(key.Address())
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSaveBlock_RefusesDuplicate(t *testing.T) {
	s, _ := openStorage(t)
	defer s.Close()

	first := testBlock(t, types.Hash{}, 0)
	require.NoError(t, s.SaveBlock(first))

	second := testBlock(t, first.Hash(), 1)
	require.NoError(t, s.SaveBlock(second))

	again := testBlock(t, types.Hash{}, 0)
	require.Equal(t, first.Hash(), again.Hash())

	err := s.SaveBlock(again)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	tip, err := s.GetChainTip()
	require.NoError(t, err)
	assert.Equal(t, second.Hash(), tip)

	n, err := s.CountBlocks()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAncestors(t *testing.T) {
	s, _ := openStorage(t)
	defer s.Close()

	n, err := s.CountBlocks()
	require.NoError(t, err)
	assert.Zero(t, n)

	var chain []*StoredBlock

	prev := types.Hash{}
	for i := 0; i < 3; i++ {
		block := testBlock(t, prev, uint64(i))
		require.NoError(t, s.SaveBlock(block))
		assert.Equal(t, uint32(i), block.Height)

		chain = append(chain, block)
		prev = block.Hash()
	}

	n, err = s.CountBlocks()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := s.Ancestors(prev, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)

	for i, block := range all {
		assert.Equal(t, chain[2-i].Hash(), block.Hash())
		assert.Equal(t, uint32(2-i), block.Height)
	}

	limited, err := s.Ancestors(prev, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, chain[1].Hash(), limited[1].Hash())

	fromMiddle, err := s.Ancestors(chain[1].Hash(), 10)
	require.NoError(t, err)
	assert.Len(t, fromMiddle, 2)

	unknown, err := s.Ancestors(crypto.DoubleHash([]byte("unknown")), 5)
	require.NoError(t, err)
	assert.Empty(t, unknown)

	for _, limit := range []int{0, -1} {
		require.NotPanics(t, func() {
			_, err = s.Ancestors(prev, limit)
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidArgument), "limit %d", limit)
	}
}
