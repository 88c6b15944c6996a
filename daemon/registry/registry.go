//	Package registry keeps the host values that remote environments hold
//	references to. Every value lives under an identity bucket and a collider
//	slot inside it; each slot counts how many times it has been handed out.
package registry

import (
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/wire"
)

const numShards = 32

//	IdentityFunc returns the identity key of v, or false when v has no
//	stable identity and must get a fresh bucket.
type IdentityFunc func(v interface{}) (key uintptr, ok bool)

type Option func(*Registry)

//	WithIdentity replaces the address based identity.
func WithIdentity(identity IdentityFunc) Option {
	return func(r *Registry) {
		r.identity = identity
	}
}

type bucket struct {
	key       uintptr
	keyed     bool
	colliders map[int][]interface{}
}

type shard struct {
	sync.Mutex
	next    uint32
	buckets map[uint32]*bucket
	keys    map[uintptr]uint32
}

type Registry struct {
	identity IdentityFunc
	shards   [numShards]*shard
	rr       uint32
}

func New(opts ...Option) *Registry {
	r := &Registry{identity: AddressIdentity}
	for i := range r.shards {
		r.shards[i] = &shard{
			next:    1,
			buckets: map[uint32]*bucket{},
			keys:    map[uintptr]uint32{},
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

//	AddressIdentity keys pointer shaped values by address. A struct and its
//	first embedded field share an address and therefore an identity.
func AddressIdentity(v interface{}) (key uintptr, ok bool) {
	if v == nil {
		return
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return
		}
		return rv.Pointer(), true
	case reflect.Slice:
		if rv.Len() == 0 {
			return
		}
		return rv.Pointer(), true
	}
	return
}

func shardOf(identity uint32) uint32 {
	return identity % numShards
}

func (r *Registry) shardFor(key uintptr, keyed bool) uint32 {
	if keyed {
		return uint32((key >> 4) % numShards)
	}
	return atomic.AddUint32(&r.rr, 1) % numShards
}

//	Register stores one more reference to v and returns its handle.
func (r *Registry) Register(v interface{}) wire.Handle {
	key, keyed := r.identity(v)
	index := r.shardFor(key, keyed)
	s := r.shards[index]
	s.Lock()
	defer s.Unlock()

	if keyed {
		if identity, ok := s.keys[key]; ok {
			b := s.buckets[identity]
			return wire.Handle{Identity: identity, Collider: b.push(v)}
		}
	}
	identity := s.next*numShards + index
	s.next++
	b := &bucket{key: key, keyed: keyed, colliders: map[int][]interface{}{1: {v}}}
	s.buckets[identity] = b
	if keyed {
		s.keys[key] = identity
	}
	return wire.Handle{Identity: identity, Collider: 1}
}

func (b *bucket) push(v interface{}) int {
	colliders := make([]int, 0, len(b.colliders))
	for c := range b.colliders {
		colliders = append(colliders, c)
	}
	sort.Ints(colliders)
	for _, c := range colliders {
		if Equal(b.colliders[c][0], v) {
			b.colliders[c] = append(b.colliders[c], v)
			return c
		}
	}
	next := 1
	if n := len(colliders); n > 0 {
		next = colliders[n-1] + 1
	}
	b.colliders[next] = []interface{}{v}
	return next
}

func (r *Registry) Resolve(h wire.Handle) (v interface{}, err error) {
	s := r.shards[shardOf(h.Identity)]
	s.Lock()
	defer s.Unlock()
	b, ok := s.buckets[h.Identity]
	if !ok {
		err = ErrNotFound
		return
	}
	refs, ok := b.colliders[h.Collider]
	if !ok {
		err = ErrNotFound
		return
	}
	v = refs[len(refs)-1]
	return
}

//	Release drops one reference per handle. Unknown handles are ignored.
func (r *Registry) Release(handles ...wire.Handle) {
	for _, h := range handles {
		s := r.shards[shardOf(h.Identity)]
		s.Lock()
		s.pop(h)
		s.Unlock()
	}
}

func (s *shard) pop(h wire.Handle) {
	b, ok := s.buckets[h.Identity]
	if !ok {
		return
	}
	refs, ok := b.colliders[h.Collider]
	if !ok {
		return
	}
	refs[len(refs)-1] = nil
	refs = refs[:len(refs)-1]
	if len(refs) > 0 {
		b.colliders[h.Collider] = refs
		return
	}
	delete(b.colliders, h.Collider)
	if len(b.colliders) > 0 {
		return
	}
	delete(s.buckets, h.Identity)
	if b.keyed {
		delete(s.keys, b.key)
	}
}

//	Size is the number of identity buckets.
func (r *Registry) Size() (size int) {
	for _, s := range r.shards {
		s.Lock()
		size += len(s.buckets)
		s.Unlock()
	}
	return
}

//	Count is the number of outstanding references held under h.
func (r *Registry) Count(h wire.Handle) int {
	s := r.shards[shardOf(h.Identity)]
	s.Lock()
	defer s.Unlock()
	if b, ok := s.buckets[h.Identity]; ok {
		return len(b.colliders[h.Collider])
	}
	return 0
}
