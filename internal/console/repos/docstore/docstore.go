// Package docstore provides durable key→JSON-document storage for the
// console's authoritative state (settings overrides, source lists,
// whitelist, per-source status, local records). Documents are opaque to
// the store and replaced wholesale; there are no partial updates.
package docstore

import "encoding/json"

// Store is the document-store contract. Get reports absence via the bool
// rather than an error so callers can treat missing documents as empty.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, doc []byte) error
	Close() error
}

// GetJSON loads and unmarshals the document at key into v. Returns false
// with v untouched when the document is absent.
func GetJSON(s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

// PutJSON marshals v and stores it at key.
func PutJSON(s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(key, raw)
}
