package catalog

import (
	"fmt"

	"hostgate.io/hg/daemon/registry"
)

//	List is the host side growable list handed to remote environments.
type List struct {
	items []interface{}
}

func NewList() *List {
	return &List{}
}

func NewListFrom(capacity int) *List {
	return &List{items: make([]interface{}, 0, capacity)}
}

func (l *List) Add(v interface{}) {
	l.items = append(l.items, v)
}

func (l *List) check(i int) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("index %d out of bounds for size %d", i, len(l.items))
	}
	return nil
}

func (l *List) Get(i int) (interface{}, error) {
	if err := l.check(i); err != nil {
		return nil, err
	}
	return l.items[i], nil
}

//	Set returns the element it replaced.
func (l *List) Set(i int, v interface{}) (old interface{}, err error) {
	if err = l.check(i); err != nil {
		return
	}
	old, l.items[i] = l.items[i], v
	return
}

func (l *List) Size() int {
	return len(l.items)
}

func (l *List) Remove(i int) (removed interface{}, err error) {
	if err = l.check(i); err != nil {
		return
	}
	removed = l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	return
}

func (l *List) Clear() {
	l.items = nil
}

func (l *List) IndexOf(v interface{}) int {
	for i, item := range l.items {
		if registry.Equal(item, v) {
			return i
		}
	}
	return -1
}

func (l *List) Contains(v interface{}) bool {
	return l.IndexOf(v) >= 0
}
