package storage

import (
	"sort"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/yourusername/btminer/internal/crypto"
	"github.com/yourusername/btminer/internal/errors"
)

const payoutKeyPrefix = "payoutkey_"

// SavePayoutKey stores a payout key under its address
func (s *Storage) SavePayoutKey(key *crypto.PayoutKey) error {
	address := key.Address()

	if err := s.db.Put([]byte(payoutKeyPrefix+address), key.PrivateKey.Serialize(), nil); err != nil {
		return errors.NewStorageError("failed to save payout key %s", address, err)
	}

	return nil
}

// GetPayoutKey retrieves the payout key for address
func (s *Storage) GetPayoutKey(address string) (*crypto.PayoutKey, error) {
	data, err := s.db.Get([]byte(payoutKeyPrefix+address), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.NewNotFoundError("no payout key for %s", address)
	}

	if err != nil {
		return nil, errors.NewStorageError("failed to read payout key %s", address, err)
	}

	key, err := crypto.PayoutKeyFromBytes(data)
	if err != nil {
		return nil, errors.NewStorageError("stored payout key %s is invalid", address, err)
	}

	return key, nil
}

// PayoutAddresses returns the addresses of all stored payout keys, sorted
func (s *Storage) PayoutAddresses() ([]string, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(payoutKeyPrefix)), nil)
	defer iter.Release()

	var addresses []string
	for iter.Next() {
		addresses = append(addresses, string(iter.Key()[len(payoutKeyPrefix):]))
	}

	if err := iter.Error(); err != nil {
		return nil, errors.NewStorageError("failed to iterate payout keys", err)
	}

	sort.Strings(addresses)

	return addresses, nil
}

// DeletePayoutKey removes the payout key for address
func (s *Storage) DeletePayoutKey(address string) error {
	if err := s.db.Delete([]byte(payoutKeyPrefix+address), nil); err != nil {
		return errors.NewStorageError("failed to delete payout key %s", address, err)
	}

	return nil
}
