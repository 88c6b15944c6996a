package dispatch

import (
	"reflect"
	"strings"

	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/wire"
	"hostgate.io/hg/daemon/catalog"
)

//	target is what a method or field request applies to: registry objects,
//	decoded primitives, or a type when the request addresses statics.
type target struct {
	typ    *catalog.Type
	values []interface{}
	static bool
}

//	A single string naming a catalog type addresses that type's statics;
//	any other string stays a string instance.
func (e *Environment) target(token string) (t target, err error) {
	if wire.IsObjectArgument(token) {
		t.values, err = wire.DecodeArgument(token, e.Registry)
		if err != nil {
			return
		}
		types := make([]*catalog.Type, len(t.values))
		for i, v := range t.values {
			types[i] = e.Catalog.TypeOfValue(v)
		}
		t.typ = catalog.Common(types)
		return
	}
	prefix := wire.ArgumentPrefix(token)
	if prefix == "" {
		err = Errorf(ProtocolFormatError, "malformed target %q", token)
		return
	}
	t.values, err = wire.DecodePrimitiveArgument(prefix, strings.TrimPrefix(token, prefix))
	if err != nil {
		return
	}
	if len(t.values) == 1 {
		if name, ok := t.values[0].(string); ok {
			if typ, found := e.Catalog.Lookup(name); found {
				t = target{typ: typ, values: []interface{}{nil}, static: true}
				return
			}
		}
	}
	t.typ = e.Catalog.TypeOfValue(t.values[0])
	return
}

func (t target) isString() bool {
	return !t.static && t.typ.GoType.Kind() == reflect.String
}
