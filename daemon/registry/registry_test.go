package registry

import (
	"sync"
	"testing"

	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/wire"
)

type point struct {
	X, Y int
}

func TestRegisterReleaseBalance(t *testing.T) {
	r := New()
	p := &point{1, 2}
	var handles []wire.Handle
	for i := 0; i < 5; i++ {
		handles = append(handles, r.Register(p))
	}
	for _, h := range handles[1:] {
		if h != handles[0] {
			t.Fatalf("same pointer got handles %v and %v", handles[0], h)
		}
	}
	if r.Count(handles[0]) != 5 || r.Size() != 1 {
		t.Fatalf("count %d size %d", r.Count(handles[0]), r.Size())
	}
	for i := 0; i < 4; i++ {
		r.Release(handles[0])
		if _, err := r.Resolve(handles[0]); err != nil {
			t.Fatalf("released too early after %d releases: %v", i+1, err)
		}
	}
	r.Release(handles[0])
	if _, err := r.Resolve(handles[0]); err != ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if r.Size() != 0 {
		t.Fatalf("bucket survived, size %d", r.Size())
	}
}

func TestDistinctPointersDistinctBuckets(t *testing.T) {
	r := New()
	a := r.Register(&point{1, 2})
	b := r.Register(&point{1, 2})
	if a.Identity == b.Identity {
		t.Fatal("distinct allocations share an identity")
	}
	if r.Size() != 2 {
		t.Fatalf("size %d", r.Size())
	}
}

type animal struct {
	Name string
}

type dog struct {
	animal
	Barks int
}

func TestEmbeddedSharesIdentity(t *testing.T) {
	r := New()
	d := &dog{animal: animal{Name: "rex"}}
	hd := r.Register(d)
	ha := r.Register(&d.animal)
	if hd.Identity != ha.Identity {
		t.Fatal("struct and first embedded field should share an identity")
	}
	if hd.Collider == ha.Collider {
		t.Fatal("different values share a collider")
	}
	v, err := r.Resolve(ha)
	if err != nil {
		t.Fatal(err)
	}
	if v.(*animal) != &d.animal {
		t.Fatal("resolved the wrong value")
	}
	r.Release(hd)
	if r.Size() != 1 {
		t.Fatal("bucket removed while a collider remains")
	}
	r.Release(ha)
	if r.Size() != 0 {
		t.Fatal("bucket not removed")
	}
}

func constantIdentity(v interface{}) (uintptr, bool) {
	return 7, true
}

func TestAliasingAndCollision(t *testing.T) {
	r := New(WithIdentity(constantIdentity))
	first := r.Register("same")
	alias := r.Register("same")
	other := r.Register("different")
	if first != alias {
		t.Fatalf("equal values got %v and %v", first, alias)
	}
	if other.Identity != first.Identity || other.Collider != 2 {
		t.Fatalf("collision got %v", other)
	}
	r.Release(first)
	third := r.Register(42)
	if third.Collider != 3 {
		t.Fatalf("expected collider 3, got %v", third)
	}
	r.Release(other)
	r.Release(other)
	v, err := r.Resolve(first)
	if err != nil || v != "same" {
		t.Fatalf("alias lost: %v %v", v, err)
	}
}

func TestUnknownRelease(t *testing.T) {
	r := New()
	r.Release(wire.Handle{Identity: 999, Collider: 1})
	h := r.Register(&point{})
	r.Release(wire.Handle{Identity: h.Identity, Collider: 9})
	if r.Count(h) != 1 {
		t.Fatal("release of unknown collider touched the slot")
	}
	if _, err := r.Resolve(wire.Handle{Identity: h.Identity, Collider: 9}); !IsKind(err, ResolutionError) {
		t.Fatalf("expected resolution error, got %v", err)
	}
}

func TestValuesWithoutIdentity(t *testing.T) {
	r := New()
	a := r.Register(3)
	b := r.Register(3)
	if a == b {
		t.Fatal("values without identity share a handle")
	}
}

type tagged struct {
	id   int
	note string
}

func (t *tagged) Equal(other interface{}) bool {
	o, ok := other.(*tagged)
	return ok && o.id == t.id
}

func TestEqualMethod(t *testing.T) {
	if !Equal(&tagged{1, "a"}, &tagged{1, "b"}) {
		t.Fatal("Equal method ignored")
	}
	if Equal([]int{1}, []int{1}) {
		t.Fatal("separate slices compared equal")
	}
	s := []int{1, 2}
	if !Equal(s, s) {
		t.Fatal("slice not equal to itself")
	}
	if Equal(map[string]int{}, 1) {
		t.Fatal("different types compared equal")
	}
}

func TestConcurrentRegister(t *testing.T) {
	r := New()
	p := &point{}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Release(r.Register(p))
				r.Register(p)
			}
		}()
	}
	wg.Wait()
	h := r.Register(p)
	if r.Count(h) != 1601 {
		t.Fatalf("count %d", r.Count(h))
	}
}
