package state

import "sync"

const shardCount = 16

// shardedMap is a fixed-shard concurrent map keyed by snowflake-style ids.
// Shards keep unrelated keys from contending on a single lock during event
// bursts.
type shardedMap[V any] struct {
	shards [shardCount]struct {
		sync.RWMutex
		m map[int64]V
	}
}

func newShardedMap[V any]() *shardedMap[V] {
	sm := &shardedMap[V]{}
	for i := range sm.shards {
		sm.shards[i].m = make(map[int64]V)
	}
	return sm
}

func (sm *shardedMap[V]) shard(key int64) *struct {
	sync.RWMutex
	m map[int64]V
} {
	// Snowflakes share low bits within bursts; mix the high bits in.
	h := uint64(key)
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return &sm.shards[h%shardCount]
}

func (sm *shardedMap[V]) Get(key int64) (V, bool) {
	s := sm.shard(key)
	s.RLock()
	v, ok := s.m[key]
	s.RUnlock()
	return v, ok
}

func (sm *shardedMap[V]) Put(key int64, v V) {
	s := sm.shard(key)
	s.Lock()
	s.m[key] = v
	s.Unlock()
}

// Update applies fn to the current value under the shard lock.
// fn receives the zero value if the key is absent; returning false deletes
// nothing and stores nothing.
func (sm *shardedMap[V]) Update(key int64, fn func(v V, ok bool) (V, bool)) {
	s := sm.shard(key)
	s.Lock()
	old, ok := s.m[key]
	if nv, store := fn(old, ok); store {
		s.m[key] = nv
	}
	s.Unlock()
}

func (sm *shardedMap[V]) Delete(key int64) {
	s := sm.shard(key)
	s.Lock()
	delete(s.m, key)
	s.Unlock()
}

func (sm *shardedMap[V]) Len() int {
	n := 0
	for i := range sm.shards {
		s := &sm.shards[i]
		s.RLock()
		n += len(s.m)
		s.RUnlock()
	}
	return n
}

// Snapshot copies all entries. Values observed across shards are not a
// point-in-time view, only per-shard consistent.
func (sm *shardedMap[V]) Snapshot() map[int64]V {
	out := make(map[int64]V, sm.Len())
	for i := range sm.shards {
		s := &sm.shards[i]
		s.RLock()
		for k, v := range s.m {
			out[k] = v
		}
		s.RUnlock()
	}
	return out
}
