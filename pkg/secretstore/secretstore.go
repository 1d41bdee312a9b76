// Package secretstore persists derived API credentials between CLI runs.
package secretstore

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/betcli/gotrade/clob/types"
)

// Store is a small encrypted-at-rest KV wrapper (Badger).
// Note: encryption is provided by Badger options (value log + key registry), not by this wrapper.
type Store struct {
	db *badger.DB
}

type OpenOptions struct {
	Path          string
	EncryptionKey []byte // 32 bytes; if nil, DB is opened without encryption (not recommended)
	ReadOnly      bool
}

func Open(opts OpenOptions) (*Store, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("secretstore: path is required")
	}
	bopts := badger.DefaultOptions(opts.Path).
		WithLogger(nil).
		WithReadOnly(opts.ReadOnly)
	if len(opts.EncryptionKey) > 0 {
		// Badger requires index cache for encrypted workloads
		bopts = bopts.
			WithEncryptionKey(opts.EncryptionKey).
			WithIndexCacheSize(100 << 20)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func credsKey(address string) []byte {
	return []byte("creds:" + strings.ToLower(strings.TrimSpace(address)))
}

// SaveCreds stores the L2 credentials derived for a wallet address.
func (s *Store) SaveCreds(address string, creds *types.ApiKeyCreds) error {
	if s == nil || s.db == nil {
		return errors.New("secretstore: not opened")
	}
	if strings.TrimSpace(address) == "" {
		return errors.New("secretstore: address is empty")
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("secretstore: marshal creds: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(credsKey(address), data)
	})
}

// LoadCreds returns the stored credentials for address, or (nil, false, nil)
// when none were saved yet.
func (s *Store) LoadCreds(address string) (*types.ApiKeyCreds, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, errors.New("secretstore: not opened")
	}
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(credsKey(address))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var creds types.ApiKeyCreds
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, false, fmt.Errorf("secretstore: unmarshal creds: %w", err)
	}
	return &creds, true, nil
}

// DeleteCreds removes the stored credentials for address.
func (s *Store) DeleteCreds(address string) error {
	if s == nil || s.db == nil {
		return errors.New("secretstore: not opened")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(credsKey(address))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// ParseKey expects 32 bytes (base64 or hex). Returns nil if input is empty.
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	rawHex := strings.TrimPrefix(raw, "0x")
	if b, err := hex.DecodeString(rawHex); err == nil {
		if len(b) == 32 {
			return b, nil
		}
		return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	return nil, errors.New("key must be base64(32 bytes) or hex(32 bytes)")
}
