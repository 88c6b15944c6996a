package catalog

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	. "hostgate.io/hg/common/util"
)

type MemberKind int

const (
	ConstructorMember MemberKind = iota
	MethodMember
	StaticMember
)

//	Member is one callable signature. Params excludes the receiver and a
//	leading context.Context.
type Member struct {
	Name   string
	Owner  *Type
	Kind   MemberKind
	Params []*Type

	fn       reflect.Value
	receiver reflect.Type
	context  bool
	outs     int
	errOut   bool
}

func (m *Member) IsStatic() bool {
	return m.Kind != MethodMember
}

func (m *Member) String() string {
	names := ""
	for i, p := range m.Params {
		if i > 0 {
			names += ", "
		}
		names += p.Name
	}
	return fmt.Sprintf("%s.%s(%s)", m.Owner.Name, m.Name, names)
}

func (c *Catalog) newMember(name string, owner *Type, kind MemberKind, fn reflect.Value) (m *Member, err error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		err = Errorf(IllegalUseError, "%s: not a function", name)
		return
	}
	ft := fn.Type()
	if ft.IsVariadic() {
		err = Errorf(IllegalUseError, "%s: variadic functions are not supported", name)
		return
	}
	m = &Member{Name: name, Owner: owner, Kind: kind, fn: fn}
	in := 0
	if kind == MethodMember {
		if ft.NumIn() == 0 {
			err = Errorf(IllegalUseError, "%s: a method needs a receiver parameter", name)
			return
		}
		m.receiver = ft.In(0)
		in = 1
	}
	if ft.NumIn() > in && ft.In(in) == contextType {
		m.context = true
		in++
	}
	for ; in < ft.NumIn(); in++ {
		m.Params = append(m.Params, c.typeOf(ft.In(in)))
	}
	m.outs = ft.NumOut()
	switch m.outs {
	case 0:
	case 1:
		m.errOut = ft.Out(0) == errorType
	case 2:
		if ft.Out(1) != errorType {
			err = Errorf(IllegalUseError, "%s: a second result must be an error", name)
		}
		m.errOut = true
	default:
		err = Errorf(IllegalUseError, "%s: too many results", name)
	}
	if kind == ConstructorMember && (m.outs == 0 || (m.outs == 1 && m.errOut)) {
		err = Errorf(IllegalUseError, "%s: a constructor must return a value", name)
	}
	return
}

//	Call invokes m. receiver is ignored for static members and
//	constructors. A returned error or a panic becomes an InvocationError.
func (m *Member) Call(ctx context.Context, receiver interface{}, args []interface{}) (result interface{}, err error) {
	if len(args) != len(m.Params) {
		err = Errorf(ArityOrLengthError, "%s takes %d arguments, got %d", m, len(m.Params), len(args))
		return
	}
	in := make([]reflect.Value, 0, len(args)+2)
	if m.receiver != nil {
		var rv reflect.Value
		rv, err = Convert(receiver, m.receiver)
		if err != nil {
			return
		}
		in = append(in, rv)
	}
	if m.context {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(&ctx).Elem())
	}
	for i, arg := range args {
		var rv reflect.Value
		rv, err = Convert(arg, m.Params[i].GoType)
		if err != nil {
			return
		}
		in = append(in, rv)
	}
	err = RecoverToError(func() (callErr error) {
		result, callErr = m.unpack(m.fn.Call(in))
		return
	})
	if err != nil {
		err = invocationError(m, err)
	}
	return
}

func (m *Member) unpack(out []reflect.Value) (result interface{}, err error) {
	switch {
	case len(out) == 0:
	case len(out) == 1 && m.errOut:
		err = errorOf(out[0])
	case len(out) == 1:
		result = valueOf(out[0])
	default:
		result = valueOf(out[0])
		err = errorOf(out[1])
	}
	return
}

func errorOf(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

//	valueOf turns typed nils into a plain nil.
func valueOf(v reflect.Value) interface{} {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

func invocationError(m *Member, err error) error {
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(InvocationError, m.String()+" was interrupted", err)
	}
	return Wrap(InvocationError, m.String()+" failed", err)
}

func isBasic(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

//	Convert prepares v for a parameter of type to: embedded super types are
//	taken by address, primitives convert to named counterparts and to
//	pointers.
func Convert(v interface{}, to reflect.Type) (rv reflect.Value, err error) {
	if _, absent := v.(Absent); absent || v == nil {
		if nilable(to.Kind()) || absent {
			rv = reflect.Zero(to)
			return
		}
		err = Errorf(ResolutionError, "cannot use null as %s", to)
		return
	}
	rv = reflect.ValueOf(v)
	if up, ok := upcast(rv, to); ok {
		rv = up
		return
	}
	from := rv.Type()
	switch {
	case isBasic(to.Kind()) && to.Kind() == from.Kind():
		rv = rv.Convert(to)
	case to.Kind() == reflect.Ptr && isBasic(to.Elem().Kind()) && to.Elem().Kind() == from.Kind():
		p := reflect.New(to.Elem())
		p.Elem().Set(rv.Convert(to.Elem()))
		rv = p
	default:
		err = Errorf(ResolutionError, "cannot use %s as %s", from, to)
	}
	return
}

func upcast(rv reflect.Value, to reflect.Type) (reflect.Value, bool) {
	for {
		if rv.Type().AssignableTo(to) {
			return rv, true
		}
		next, ok := embeddedOf(rv)
		if !ok {
			return rv, false
		}
		rv = next
	}
}

func embeddedOf(rv reflect.Value) (next reflect.Value, ok bool) {
	s := rv
	if s.Kind() == reflect.Ptr {
		if s.IsNil() {
			return
		}
		s = s.Elem()
	}
	ft, found := firstEmbedded(s.Type())
	if !found {
		return
	}
	f := s.Field(0)
	switch {
	case ft.Kind() == reflect.Ptr:
		if f.IsNil() {
			return
		}
		next, ok = f, true
	case f.CanAddr():
		next, ok = f.Addr(), true
	default:
		next, ok = f, true
	}
	return
}

type Field struct {
	Name  string
	Owner *Type
	Type  *Type
	index []int
}

func (f *Field) value(target interface{}) (fv reflect.Value, err error) {
	rv, err := Convert(target, f.Owner.GoType)
	if err != nil {
		return
	}
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			err = Errorf(IllegalUseError, "field %s of a null %s", f.Name, f.Owner.Name)
			return
		}
		rv = rv.Elem()
	}
	fv, err = rv.FieldByIndexErr(f.index)
	if err != nil {
		err = Wrap(IllegalUseError, "field "+f.Name+" is behind a null embedded value", err)
	}
	return
}

func (f *Field) Get(target interface{}) (v interface{}, err error) {
	fv, err := f.value(target)
	if err != nil {
		return
	}
	v = valueOf(fv)
	return
}

func (f *Field) Set(target interface{}, v interface{}) (err error) {
	fv, err := f.value(target)
	if err != nil {
		return
	}
	if !fv.CanSet() {
		err = Errorf(IllegalUseError, "field %s of %s is not settable on a value", f.Name, f.Owner.Name)
		return
	}
	rv, err := Convert(v, fv.Type())
	if err != nil {
		return
	}
	fv.Set(rv)
	return
}

//	StaticField is a registered package level variable.
type StaticField struct {
	Name  string
	Owner *Type
	Type  *Type
	ptr   reflect.Value
	mutex sync.Mutex
}

func (f *StaticField) Get() interface{} {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return valueOf(f.ptr.Elem())
}

func (f *StaticField) Set(v interface{}) (err error) {
	rv, err := Convert(v, f.ptr.Elem().Type())
	if err != nil {
		return
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.ptr.Elem().Set(rv)
	return
}
