// Package memory provides an in-process [blob.Store] that records every removal and can
// be told to fail for specific objects.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sonsunin65/portfolio-lugsana/pkg/blob"
)

// Object is one stored file.
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryStore implements blob.Store in memory.
type MemoryStore struct {
	mu      sync.Mutex
	base    string
	objects map[string]Object
	removed []string
	fail    func(bucket, path string) error
}

// New creates an empty store whose public URLs start with base.
func New(base string) *MemoryStore {
	return &MemoryStore{
		base:    base,
		objects: make(map[string]Object),
	}
}

func key(bucket, path string) string {
	return bucket + "/" + path
}

// FailRemoveWhen installs a failure injector for Remove. Pass nil to clear it.
func (m *MemoryStore) FailRemoveWhen(fn func(bucket, path string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fn
}

// Put stores an object directly, bypassing Upload.
func (m *MemoryStore) Put(bucket, path string, data []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key(bucket, path)] = Object{Data: data}
	return blob.BuildPublicURL(m.base, bucket, path)
}

// Get returns the object at bucket/path.
func (m *MemoryStore) Get(bucket, path string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key(bucket, path)]
	return obj, ok
}

// Keys returns "bucket/path" for every stored object, sorted.
func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Removed returns "bucket/path" for every successful removal, in call order.
func (m *MemoryStore) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

func (m *MemoryStore) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key(bucket, path)] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return blob.BuildPublicURL(m.base, bucket, path), nil
}

func (m *MemoryStore) PublicURL(bucket, path string) string {
	return blob.BuildPublicURL(m.base, bucket, path)
}

func (m *MemoryStore) Remove(ctx context.Context, bucket string, paths []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		if m.fail != nil {
			if err := m.fail(bucket, p); err != nil {
				return fmt.Errorf("remove %s/%s: %w", bucket, p, err)
			}
		}
	}
	for _, p := range paths {
		delete(m.objects, key(bucket, p))
		m.removed = append(m.removed, key(bucket, p))
	}
	return nil
}

var _ blob.Store = (*MemoryStore)(nil)
