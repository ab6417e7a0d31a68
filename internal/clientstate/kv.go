// Package clientstate persists the per-shopper key/value state the
// storefront UI keeps between visits: the cart, email notification settings,
// and a handful of auxiliary scalars. Keys are string-valued, owned by
// exactly one store each, and written as whole-record overwrites.
package clientstate

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Keys owned by this layer. Each key has a single writer; last-writer-wins
// is acceptable because writes are whole-record overwrites.
const (
	KeyCart          = "cart"
	KeyEmailSettings = "emailSettings"
	KeyLastActivity  = "lastUserActivity"
	KeyDeviceID      = "device_id"
	KeySiteIcon      = "site_icon"
)

// ErrKeyNotFound indicates the requested key has no value for the profile.
var ErrKeyNotFound = errors.New("clientstate: key not found")

// KV is the durable string-keyed, string-valued store scoped per shopper
// profile. Get returns ErrKeyNotFound for absent keys; Delete of an absent
// key is a no-op.
type KV interface {
	Get(ctx context.Context, profileID, key string) (string, error)
	Set(ctx context.Context, profileID, key, value string) error
	Delete(ctx context.Context, profileID, key string) error
}

// MemoryKV is an in-process KV used by tests and local development.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemoryKV constructs an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]map[string]string)}
}

// Get implements KV.
func (m *MemoryKV) Get(ctx context.Context, profileID, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.data[strings.TrimSpace(profileID)]
	if !ok {
		return "", ErrKeyNotFound
	}
	value, ok := profile[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Set implements KV.
func (m *MemoryKV) Set(ctx context.Context, profileID, key, value string) error {
	id := strings.TrimSpace(profileID)
	if id == "" {
		return errors.New("clientstate: profile id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.data[id]
	if !ok {
		profile = make(map[string]string)
		m.data[id] = profile
	}
	profile[key] = value
	return nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(ctx context.Context, profileID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if profile, ok := m.data[strings.TrimSpace(profileID)]; ok {
		delete(profile, key)
	}
	return nil
}

var _ KV = (*MemoryKV)(nil)
