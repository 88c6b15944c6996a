package dispatch

import (
	"context"
	"reflect"

	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/daemon/catalog"
)

//	invoke handles method/;target/;name/;args...
func (e *Environment) invoke(ctx context.Context, tokens []string) (out interface{}, err error) {
	if len(tokens) < 3 {
		err = Errorf(ProtocolFormatError, "a method request needs a target and a method name")
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
	if t.typ.IsArray() && name == CloneMember && args.empty() && !t.static {
		return e.clone(t)
	}

	n, err := vectorLength(append([]int{len(t.values)}, args.lengths()...)...)
	if err != nil {
		return
	}
	//	each element dispatches on its own type, so a subtype's method wins
	//	over the one of the common type
	resolved := map[*catalog.Type]*catalog.Member{}
	results := e.newOutputs()
	for i := 0; i < n; i++ {
		receiver := pick(t.values, i)
		var member *catalog.Member
		member, err = e.memberFor(t, receiver, name, args.types, resolved)
		if err != nil {
			return
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = Wrap(InvocationError, member.String()+" was interrupted", ctxErr)
			return
		}
		var result interface{}
		result, err = member.Call(ctx, receiver, args.row(i))
		if err != nil {
			return
		}
		results.add(result)
	}
	out = results.value()
	return
}

//	memberFor resolves name on the dynamic type of receiver. Static targets
//	and nil receivers use the target type.
func (e *Environment) memberFor(t target, receiver interface{}, name string, args []*catalog.Type, resolved map[*catalog.Type]*catalog.Member) (m *catalog.Member, err error) {
	owner := t.typ
	if !t.static && receiver != nil {
		owner = e.Catalog.TypeOfValue(receiver)
	}
	if m = resolved[owner]; m != nil {
		return
	}
	m, err = e.member(owner, name, args)
	if err != nil {
		return
	}
	if t.static && !m.IsStatic() {
		err = Errorf(IllegalUseError, "%s is not a static method", m)
		return
	}
	resolved[owner] = m
	return
}

func (e *Environment) member(owner *catalog.Type, name string, args []*catalog.Type) (m *catalog.Member, err error) {
	key := resolutionKey(owner, catalog.MethodMember, name, args)
	if m, ok := e.cache.get(key); ok {
		return m, nil
	}
	candidates := append(owner.Methods(name), owner.Statics(name)...)
	m, err = catalog.Resolve(candidates, args)
	if err != nil {
		err = Errorf(ResolutionError, "%s: method %s of %s accepting (%s)", ErrNoSuchMember.Message, name, owner.Name, typeNames(args))
		return
	}
	e.cache.add(key, m)
	return
}

func typeNames(types []*catalog.Type) (names string) {
	for i, t := range types {
		if i > 0 {
			names += ", "
		}
		names += t.Name
	}
	return
}

func (e *Environment) clone(t target) (out interface{}, err error) {
	results := e.newOutputs()
	for _, v := range t.values {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice {
			err = Errorf(IllegalUseError, "cannot clone a %T", v)
			return
		}
		copied := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(copied, rv)
		results.register(copied.Interface())
	}
	out = results.value()
	return
}
