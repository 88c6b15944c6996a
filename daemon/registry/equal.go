package registry

import (
	"reflect"
)

type equaler interface {
	Equal(other interface{}) bool
}

//	Equal decides whether two stored values are the same logical object.
func Equal(a, b interface{}) (equal bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if e, ok := a.(equaler); ok {
		return e.Equal(b)
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Kind() == reflect.Slice {
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !ta.Comparable() {
		return false
	}
	//	comparable types may still hold uncomparable values in interface fields
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}
