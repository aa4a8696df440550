// Package convert discovers which obfuscated symbols of one build correspond
// to which symbols of the next build and carries a mapping tree across.
package convert

import (
	"errors"
	"fmt"
	"maps"
)

var (
	ErrConflict     = errors.New("conflicting match")
	ErrUnknownClass = errors.New("unknown class")
	ErrRenameCycle  = errors.New("rename cycle")
)

// BiMap is a bijection. An insert that would map two keys to one value, or
// one key to two values, is rejected.
type BiMap[K, V comparable] struct {
	forward map[K]V
	inverse map[V]K
}

func NewBiMap[K, V comparable]() *BiMap[K, V] {
	return &BiMap[K, V]{forward: map[K]V{}, inverse: map[V]K{}}
}

// Put adds k <-> v. Re-adding an existing pair is a no-op.
func (b *BiMap[K, V]) Put(k K, v V) error {
	if cur, ok := b.forward[k]; ok {
		if cur == v {
			return nil
		}
		return fmt.Errorf("%w: %v is already matched to %v", ErrConflict, k, cur)
	}
	if cur, ok := b.inverse[v]; ok {
		return fmt.Errorf("%w: %v is already matched to %v", ErrConflict, v, cur)
	}
	b.forward[k] = v
	b.inverse[v] = k
	return nil
}

func (b *BiMap[K, V]) Get(k K) (V, bool) {
	v, ok := b.forward[k]
	return v, ok
}

func (b *BiMap[K, V]) GetKey(v V) (K, bool) {
	k, ok := b.inverse[v]
	return k, ok
}

func (b *BiMap[K, V]) ContainsKey(k K) bool {
	_, ok := b.forward[k]
	return ok
}

func (b *BiMap[K, V]) ContainsValue(v V) bool {
	_, ok := b.inverse[v]
	return ok
}

func (b *BiMap[K, V]) Delete(k K) {
	if v, ok := b.forward[k]; ok {
		delete(b.forward, k)
		delete(b.inverse, v)
	}
}

func (b *BiMap[K, V]) Len() int { return len(b.forward) }

// All iterates the pairs in no particular order.
func (b *BiMap[K, V]) All() map[K]V { return maps.Clone(b.forward) }

func (b *BiMap[K, V]) Inverse() *BiMap[V, K] {
	return &BiMap[V, K]{forward: maps.Clone(b.inverse), inverse: maps.Clone(b.forward)}
}

func (b *BiMap[K, V]) Clone() *BiMap[K, V] {
	return &BiMap[K, V]{forward: maps.Clone(b.forward), inverse: maps.Clone(b.inverse)}
}
