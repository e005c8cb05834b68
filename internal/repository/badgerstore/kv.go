package badgerstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

func key(parts ...string) []byte {
	return []byte(strings.Join(parts, "/"))
}

func prefix(parts ...string) []byte {
	return []byte(strings.Join(parts, "/") + "/")
}

// getJSON decodes the value at k into out, reporting false when k is absent
func getJSON(txn *badger.Txn, k []byte, out any) (bool, error) {
	item, err := txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", k, err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
	if err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", k, err)
	}
	return true, nil
}

func setJSON(txn *badger.Txn, k []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", k, err)
	}
	return txn.Set(k, data)
}

func getString(txn *badger.Txn, k []byte) (string, bool, error) {
	item, err := txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", k, err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", k, err)
	}
	return string(val), true, nil
}

// keysWithPrefix lists the keys under p, in reverse key order when reverse is set
func keysWithPrefix(txn *badger.Txn, p []byte, reverse bool) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Reverse = reverse
	opts.Prefix = p

	it := txn.NewIterator(opts)
	defer it.Close()

	seek := p
	if reverse {
		seek = append(append([]byte(nil), p...), 0xff)
	}

	var keys [][]byte
	for it.Seek(seek); it.ValidForPrefix(p); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// lastSegment returns the part of k after its final slash
func lastSegment(k []byte) string {
	s := string(k)
	return s[strings.LastIndexByte(s, '/')+1:]
}

// deletePrefix removes every key under p
func deletePrefix(txn *badger.Txn, p []byte) error {
	for _, k := range keysWithPrefix(txn, p, false) {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
