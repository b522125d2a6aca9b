package assembler

import (
	"github.com/google/uuid"
	"github.com/yourusername/btminer/internal/crypto"
	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/internal/merkle"
	"github.com/yourusername/btminer/internal/tx"
	"github.com/yourusername/btminer/pkg/types"
)

// Block is a candidate block: a header and its transactions, coinbase first
type Block struct {
	ID           uuid.UUID
	Header       types.BlockHeader
	Transactions []*tx.Transaction

	coinbase       tx.CoinbaseParams
	coinbaseBranch []types.Hash
}

func (b *Block) Coinbase() *tx.Transaction {
	if len(b.Transactions) == 0 {
		return nil
	}

	return b.Transactions[0]
}

// TxIDs returns the legacy ids of the block's transactions in block order
func (b *Block) TxIDs() []types.Hash {
	ids := make([]types.Hash, len(b.Transactions))
	for i, t := range b.Transactions {
		ids[i] = t.TxID()
	}

	return ids
}

func (b *Block) Hash() types.Hash {
	return crypto.HashBlockHeader(&b.Header)
}

// ExtraNonce is the value currently pushed into the coinbase script
func (b *Block) ExtraNonce() uint64 {
	return b.coinbase.ExtraNonce
}

// CheckMerkleRoot verifies that the header commits to exactly this transaction list
func (b *Block) CheckMerkleRoot() error {
	if len(b.Transactions) == 0 || !b.Transactions[0].IsCoinbase() {
		return errors.NewProcessingError("block %s does not start with a coinbase", b.ID)
	}

	root, err := merkle.BuildMerkleRoot(b.TxIDs())
	if err != nil {
		return err
	}

	if root != b.Header.MerkleRoot {
		return errors.NewProcessingError("block %s merkle root %s does not match transactions (%s)", b.ID, b.Header.MerkleRoot, root)
	}

	return nil
}

// RollExtraNonce replaces the coinbase with one carrying the next extra nonce and recomputes the merkle root
// from the coinbase branch. The nonce is reset and the other transactions are left untouched.
func (b *Block) RollExtraNonce() error {
	params := b.coinbase
	params.ExtraNonce++

	coinbase, err := tx.NewCoinbaseTx(params)
	if err != nil {
		return err
	}

	b.coinbase = params
	b.Transactions[0] = coinbase
	b.Header.MerkleRoot = merkle.RootFromBranch(coinbase.TxID(), 0, b.coinbaseBranch)
	b.Header.Nonce = 0

	return nil
}
