package dispatch

import (
	"reflect"

	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/daemon/catalog"
)

type fieldAccess struct {
	instance *catalog.Field
	static   *catalog.StaticField
}

func (f fieldAccess) get(target interface{}) (interface{}, error) {
	if f.static != nil {
		return f.static.Get(), nil
	}
	return f.instance.Get(target)
}

func (f fieldAccess) set(target interface{}, v interface{}) error {
	if f.static != nil {
		return f.static.Set(v)
	}
	return f.instance.Set(target, v)
}

//	field handles field/;target/;name with no argument to read and one
//	argument to write.
func (e *Environment) field(tokens []string) (out interface{}, err error) {
	if len(tokens) < 3 {
		err = Errorf(ProtocolFormatError, "a field request needs a target and a field name")
		return
	}
	t, err := e.target(tokens[1])
	if err != nil {
		return
	}
	name := tokens[2]
	args, err := e.marshal(tokens[3:])
	if err != nil {
		return
	}
	if len(args.values) > 1 {
		err = Errorf(IllegalUseError, "a field can only be set to a single argument")
		return
	}
	if t.typ.IsArray() && name == LengthMember && args.empty() && !t.static {
		return e.lengths(t)
	}

	access, err := e.lookupField(t, name)
	if err != nil {
		return
	}
	results := e.newOutputs()
	if args.empty() {
		for _, v := range t.values {
			var result interface{}
			result, err = access.get(v)
			if err != nil {
				return
			}
			results.add(result)
		}
		out = results.value()
		return
	}

	values := args.values[0]
	n, err := vectorLength(len(t.values), len(values))
	if err != nil {
		return
	}
	for i := 0; i < n; i++ {
		err = access.set(pick(t.values, i), pick(values, i))
		if err != nil {
			return
		}
	}
	return
}

func (e *Environment) lookupField(t target, name string) (access fieldAccess, err error) {
	instance, hasInstance := t.typ.Field(name)
	static, hasStatic := t.typ.StaticField(name)
	switch {
	case hasStatic:
		access.static = static
	case hasInstance && t.static:
		err = Errorf(IllegalUseError, "field %s of %s is not a static field", name, t.typ.Name)
	case hasInstance:
		access.instance = instance
	case t.isString():
		err = Errorf(ResolutionError, "no field %s in %s (the target was treated as a string)", name, t.typ.Name)
	default:
		err = Errorf(ResolutionError, "no field %s in %s", name, t.typ.Name)
	}
	return
}

func (e *Environment) lengths(t target) (out interface{}, err error) {
	results := e.newOutputs()
	for _, v := range t.values {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			err = Errorf(IllegalUseError, "a %T has no length", v)
			return
		}
		results.add(rv.Len())
	}
	out = results.value()
	return
}
