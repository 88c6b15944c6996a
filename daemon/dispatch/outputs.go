package dispatch

import (
	"math"
	"reflect"

	"hostgate.io/hg/common/wire"
)

//	outputs accumulates the results of a vectorized request in index order.
type outputs struct {
	env  *Environment
	list wire.List
}

func (e *Environment) newOutputs() *outputs {
	return &outputs{env: e}
}

//	add returns primitives by value and registers anything else. nil
//	results are dropped.
func (o *outputs) add(v interface{}) {
	if v == nil {
		return
	}
	if p, ok := primitiveOf(v); ok {
		o.list = append(o.list, p)
		return
	}
	o.register(v)
}

//	register stores v even when it is a primitive.
func (o *outputs) register(v interface{}) {
	h := o.env.Registry.Register(v)
	t := o.env.Catalog.TypeOfValue(v)
	o.list = append(o.list, wire.Reference{TypeName: t.Name, Handle: h})
}

func (o *outputs) value() interface{} {
	switch len(o.list) {
	case 0:
		return nil
	case 1:
		return o.list[0]
	}
	return o.list
}

//	primitiveOf normalizes named primitive types to the values the codec
//	knows.
func primitiveOf(v interface{}) (p interface{}, ok bool) {
	rv := reflect.ValueOf(v)
	ok = true
	switch rv.Kind() {
	case reflect.Bool:
		p = rv.Bool()
	case reflect.String:
		p = rv.String()
	case reflect.Int:
		p = int(rv.Int())
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		p = rv.Int()
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		p = int64(rv.Uint())
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u <= math.MaxInt64 {
			p = int64(u)
		} else {
			p = float64(u)
		}
	case reflect.Float32:
		p = float32(rv.Float())
	case reflect.Float64:
		p = rv.Float()
	default:
		ok = false
	}
	return
}
