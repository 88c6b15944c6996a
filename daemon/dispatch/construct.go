package dispatch

import (
	"context"
	"reflect"

	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/wire"
	"hostgate.io/hg/daemon/catalog"
)

//	construct handles co, conu, coar and cona. Every constructed value is
//	registered, primitives included.
func (e *Environment) construct(ctx context.Context, tokens []string) (out interface{}, err error) {
	code := tokens[0]
	switch code {
	case wire.ConstructCode, wire.ConstructNullCode, wire.ConstructArrayCode, wire.ConstructNullArrayCode:
	default:
		err = Errorf(ProtocolFormatError, "%s: %q", ErrUnknownRequest.Message, code)
		return
	}
	if len(tokens) < 2 {
		err = Errorf(ProtocolFormatError, "a construction request needs a type name")
		return
	}
	t, err := e.lookupType(tokens[1])
	if err != nil {
		return
	}
	args, err := e.marshal(tokens[2:])
	if err != nil {
		return
	}
	results := e.newOutputs()

	if args.empty() {
		var v interface{}
		switch code {
		case wire.ConstructNullCode:
			v = catalog.Absent{Type: t}
		case wire.ConstructArrayCode, wire.ConstructNullArrayCode:
			err = Errorf(IllegalUseError, "constructing an array requires at least one integer dimension")
		default:
			v, err = e.newInstance(ctx, t, nil, nil)
		}
		if err != nil {
			return
		}
		if v != nil {
			results.register(v)
		}
		out = results.value()
		return
	}

	n, err := vectorLength(args.lengths()...)
	if err != nil {
		return
	}
	for i := 0; i < n; i++ {
		row := args.row(i)
		var v interface{}
		switch code {
		case wire.ConstructNullCode:
			v = catalog.Absent{Type: t}
		case wire.ConstructArrayCode:
			v, err = newArray(t, row)
		case wire.ConstructNullArrayCode:
			var array interface{}
			array, err = newArray(t, row)
			v = catalog.Absent{Type: e.Catalog.TypeOfValue(array)}
		default:
			v, err = e.newInstance(ctx, t, row, args.types)
		}
		if err != nil {
			return
		}
		if v == nil {
			continue
		}
		results.register(v)
	}
	out = results.value()
	return
}

func (e *Environment) newInstance(ctx context.Context, t *catalog.Type, row []interface{}, types []*catalog.Type) (v interface{}, err error) {
	constructors := t.Constructors()
	if len(row) == 0 {
		if m := catalog.Exact(constructors, nil); m != nil {
			return m.Call(ctx, nil, nil)
		}
		return t.Zero()
	}
	if t.IsPrimitive() && len(row) == 1 && len(constructors) == 0 {
		var rv reflect.Value
		rv, err = catalog.Convert(row[0], t.GoType)
		if err != nil {
			return
		}
		v = rv.Interface()
		return
	}
	key := resolutionKey(t, catalog.ConstructorMember, t.Name, types)
	m, ok := e.cache.get(key)
	if !ok {
		m, err = catalog.Resolve(constructors, types)
		if err != nil {
			err = Errorf(ResolutionError, "%s: constructor of %s accepting (%s)", ErrNoSuchMember.Message, t.Name, typeNames(types))
			return
		}
		e.cache.add(key, m)
	}
	return m.Call(ctx, nil, row)
}

//	newArray builds nested slices of t, one dimension per integer argument.
func newArray(t *catalog.Type, dims []interface{}) (array interface{}, err error) {
	sizes := make([]int, len(dims))
	for i, d := range dims {
		rv := reflect.ValueOf(d)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			sizes[i] = int(rv.Int())
		default:
			err = Errorf(IllegalUseError, "array dimensions must be integers, got %T", d)
			return
		}
		if sizes[i] < 0 {
			err = Errorf(IllegalUseError, "negative array dimension %d", sizes[i])
			return
		}
	}
	g := t.GoType
	for range sizes {
		g = reflect.SliceOf(g)
	}
	array = fill(g, sizes).Interface()
	return
}

func fill(g reflect.Type, sizes []int) reflect.Value {
	v := reflect.MakeSlice(g, sizes[0], sizes[0])
	if len(sizes) > 1 {
		for i := 0; i < sizes[0]; i++ {
			v.Index(i).Set(fill(g.Elem(), sizes[1:]))
		}
	}
	return v
}
