// Package storage keeps mined blocks and payout keys in LevelDB.
package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/yourusername/btminer/internal/crypto"
	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/internal/tx"
	"github.com/yourusername/btminer/internal/wire"
	"github.com/yourusername/btminer/pkg/types"
)

const (
	// Database prefixes
	blockPrefix = "block_"
	tipKey      = "chain_tip"

	// minimum encoded transaction: version, two counts, one empty output, locktime
	minTxSize = 4 + 1 + 1 + 9 + 4
)

// StoredBlock is a mined block as persisted
type StoredBlock struct {
	ID           uuid.UUID
	Height       uint32
	MinedAt      time.Time
	Header       types.BlockHeader
	Transactions []*tx.Transaction
}

func (b *StoredBlock) Hash() types.Hash {
	return crypto.HashBlockHeader(&b.Header)
}

// Storage represents the LevelDB storage layer
type Storage struct {
	db *leveldb.DB
}

// NewStorage opens, or creates, the database at path
func NewStorage(path string) (*Storage, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.NewStorageError("failed to open database %s", path, err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.NewStorageError("failed to close database", err)
	}

	return nil
}

// SaveBlock stores a block and makes it the chain tip. The block height is one above its parent when the parent
// is known, 0 otherwise. A block that is already stored is refused and the tip is left alone.
func (s *Storage) SaveBlock(block *StoredBlock) error {
	hash := block.Hash()
	if s.BlockExists(hash) {
		return errors.NewInvalidArgumentError("block %s is already stored", hash)
	}

	block.Height = 0

	parent, err := s.GetBlock(block.Header.PrevBlockHash)
	if err == nil {
		block.Height = parent.Height + 1
	} else if !errors.Is(err, errors.ErrNotFound) {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put(blockKey(hash), serializeBlock(block))
	batch.Put([]byte(tipKey), hash[:])

	if err = s.db.Write(batch, nil); err != nil {
		return errors.NewStorageError("failed to save block %s", hash, err)
	}

	return nil
}

// GetBlock retrieves a block by hash
func (s *Storage) GetBlock(hash types.Hash) (*StoredBlock, error) {
	data, err := s.db.Get(blockKey(hash), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.NewNotFoundError("block %s not found", hash)
	}

	if err != nil {
		return nil, errors.NewStorageError("failed to read block %s", hash, err)
	}

	block, err := deserializeBlock(data)
	if err != nil {
		return nil, errors.NewStorageError("failed to deserialize block %s", hash, err)
	}

	return block, nil
}

// BlockExists checks if a block exists in the database
func (s *Storage) BlockExists(hash types.Hash) bool {
	exists, _ := s.db.Has(blockKey(hash), nil)
	return exists
}

// GetChainTip returns the hash of the last saved block
func (s *Storage) GetChainTip() (types.Hash, error) {
	var tip types.Hash

	data, err := s.db.Get([]byte(tipKey), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return tip, errors.NewNotFoundError("no chain tip")
	}

	if err != nil {
		return tip, errors.NewStorageError("failed to read chain tip", err)
	}

	if len(data) != types.HashSize {
		return tip, errors.NewStorageError("chain tip has %d bytes", len(data))
	}

	copy(tip[:], data)

	return tip, nil
}

// Ancestors walks back from hash through stored parents, returning at most limit blocks, newest first
func (s *Storage) Ancestors(hash types.Hash, limit int) ([]*StoredBlock, error) {
	if limit <= 0 {
		return nil, errors.NewInvalidArgumentError("ancestor limit must be positive, got %d", limit)
	}

	blocks := make([]*StoredBlock, 0, limit)

	for len(blocks) < limit {
		block, err := s.GetBlock(hash)
		if errors.Is(err, errors.ErrNotFound) {
			break
		}

		if err != nil {
			return nil, err
		}

		blocks = append(blocks, block)
		hash = block.Header.PrevBlockHash
	}

	return blocks, nil
}

// CountBlocks returns the number of stored blocks
func (s *Storage) CountBlocks() (int, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(blockPrefix)), nil)
	defer iter.Release()

	n := 0
	for iter.Next() {
		n++
	}

	if err := iter.Error(); err != nil {
		return 0, errors.NewStorageError("failed to iterate blocks", err)
	}

	return n, nil
}

func blockKey(hash types.Hash) []byte {
	return append([]byte(blockPrefix), hash[:]...)
}

// serializeBlock encodes: header, candidate id, height, mined-at unix seconds, tx count, length-prefixed txs
func serializeBlock(block *StoredBlock) []byte {
	w := wire.NewWriter(types.BlockHeaderSize + 16 + 4 + 8 + 9)

	w.WriteBytes(block.Header.Serialize())
	w.WriteBytes(block.ID[:])
	w.WriteU32LE(block.Height)
	w.WriteU64LE(uint64(block.MinedAt.Unix()))
	w.WriteCompactSize(uint64(len(block.Transactions)))

	for _, t := range block.Transactions {
		w.WriteVarBytes(t.Bytes())
	}

	return w.Bytes()
}

func deserializeBlock(data []byte) (*StoredBlock, error) {
	r := wire.NewReader(data)

	raw, err := r.ReadExact(types.BlockHeaderSize, "header")
	if err != nil {
		return nil, err
	}

	header, err := types.DeserializeBlockHeader(raw)
	if err != nil {
		return nil, err
	}

	id, err := r.ReadExact(16, "id")
	if err != nil {
		return nil, err
	}

	height, err := r.ReadU32LE("height")
	if err != nil {
		return nil, err
	}

	minedAt, err := r.ReadU64LE("mined at")
	if err != nil {
		return nil, err
	}

	count, err := r.ReadCount("tx count", minTxSize)
	if err != nil {
		return nil, err
	}

	block := &StoredBlock{
		Height:       height,
		MinedAt:      time.Unix(int64(minedAt), 0),
		Header:       *header,
		Transactions: make([]*tx.Transaction, count),
	}
	copy(block.ID[:], id)

	for i := range block.Transactions {
		b, err := r.ReadVarBytes("tx")
		if err != nil {
			return nil, err
		}

		if block.Transactions[i], err = tx.Decode(b); err != nil {
			return nil, err
		}
	}

	if r.Remaining() != 0 {
		return nil, wire.NewParseError("block", "trailing bytes", nil)
	}

	return block, nil
}
