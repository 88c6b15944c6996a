//	Package catalog describes the host types remote environments can reach:
//	their constructors, methods, statics and fields, and how well a list of
//	argument types fits a parameter list.
package catalog

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"

	. "hostgate.io/hg/common/util"
)

const ObjectName = "Object"

var objectType = reflect.TypeOf((*interface{})(nil)).Elem()
var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
var errorType = reflect.TypeOf((*error)(nil)).Elem()

//	Catalog is safe for concurrent lookups. Register is meant for startup;
//	types first seen at run time are catalogued on demand.
type Catalog struct {
	mutex  sync.Mutex
	byName map[string]*Type
	byGo   map[reflect.Type]*Type
	Object *Type
}

type Type struct {
	Name   string
	GoType reflect.Type
	Super  *Type
	Elem   *Type

	constructors []*Member
	methods      map[string][]*Member
	statics      map[string][]*Member
	fields       map[string]*Field
	staticFields map[string]*StaticField
}

func newType(name string, g reflect.Type) *Type {
	return &Type{
		Name:         name,
		GoType:       g,
		methods:      map[string][]*Member{},
		statics:      map[string][]*Member{},
		fields:       map[string]*Field{},
		staticFields: map[string]*StaticField{},
	}
}

func New() *Catalog {
	c := &Catalog{
		byName: map[string]*Type{},
		byGo:   map[reflect.Type]*Type{},
	}
	c.Object = newType(ObjectName, objectType)
	c.byName[ObjectName] = c.Object
	c.byGo[objectType] = c.Object
	registerBuiltins(c)
	return c
}

//	Register catalogues the dynamic type of sample and applies opts to it.
//	Registering a type twice adds to the existing entry.
func (c *Catalog) Register(sample interface{}, opts ...Option) (t *Type, err error) {
	if sample == nil {
		err = Errorf(IllegalUseError, "cannot register nil")
		return
	}
	return c.register(reflect.TypeOf(sample), opts)
}

//	RegisterInterface catalogues the interface pointed to by ptr, as in
//	RegisterInterface((*Speaker)(nil)).
func (c *Catalog) RegisterInterface(ptr interface{}, opts ...Option) (t *Type, err error) {
	g := reflect.TypeOf(ptr)
	if g == nil || g.Kind() != reflect.Ptr || g.Elem().Kind() != reflect.Interface {
		err = Errorf(IllegalUseError, "RegisterInterface needs a pointer to an interface, got %v", g)
		return
	}
	return c.register(g.Elem(), opts)
}

func (c *Catalog) register(g reflect.Type, opts []Option) (t *Type, err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	t = c.typeOf(g)
	for _, opt := range opts {
		err = opt(c, t)
		if err != nil {
			return
		}
	}
	return
}

//	Lookup finds a type by its catalog name or one of its aliases.
func (c *Catalog) Lookup(name string) (t *Type, ok bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.lookup(name)
}

//	lookup also understands slice names such as "[]numeric" and
//	"[]*zoo.Dog" for element types it knows.
func (c *Catalog) lookup(name string) (t *Type, ok bool) {
	if t, ok = c.byName[name]; ok {
		return
	}
	var elem *Type
	switch {
	case strings.HasPrefix(name, "[]"):
		if elem, ok = c.lookup(name[2:]); ok {
			t = c.typeOf(reflect.SliceOf(elem.GoType))
		}
	case strings.HasPrefix(name, "*"):
		if elem, ok = c.lookup(name[1:]); ok {
			t, ok = elem, elem.GoType.Kind() == reflect.Ptr
		}
	}
	return
}

func (c *Catalog) TypeOf(g reflect.Type) *Type {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.typeOf(g)
}

func (c *Catalog) TypeOfValue(v interface{}) *Type {
	if absent, ok := v.(Absent); ok {
		return absent.Type
	}
	if v == nil {
		return c.Object
	}
	return c.TypeOf(reflect.TypeOf(v))
}

//	SliceOf is the catalog type of a slice of elem, nested dims times.
func (c *Catalog) SliceOf(elem *Type, dims int) *Type {
	g := elem.GoType
	for i := 0; i < dims; i++ {
		g = reflect.SliceOf(g)
	}
	return c.TypeOf(g)
}

func (c *Catalog) alias(name string, t *Type) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.byName[name] = t
}

func (c *Catalog) rename(t *Type, name string) {
	if c.byName[t.Name] == t {
		delete(c.byName, t.Name)
	}
	t.Name = name
	c.byName[name] = t
}

func nameOf(g reflect.Type) string {
	if g.Kind() == reflect.Ptr && g.Elem().Kind() == reflect.Struct && g.Elem().Name() != "" {
		return g.Elem().String()
	}
	return g.String()
}

//	typeOf must be called with the mutex held. The new entry is published
//	before its members are discovered so self referencing signatures resolve.
func (c *Catalog) typeOf(g reflect.Type) *Type {
	if g == nil || (g.Kind() == reflect.Interface && g.NumMethod() == 0) {
		return c.Object
	}
	if t, ok := c.byGo[g]; ok {
		return t
	}
	t := newType(nameOf(g), g)
	c.byGo[g] = t
	if _, taken := c.byName[t.Name]; !taken || g.Kind() == reflect.Ptr {
		c.byName[t.Name] = t
	}
	t.Super = c.superOf(g)
	switch g.Kind() {
	case reflect.Slice, reflect.Array:
		t.Elem = c.typeOf(g.Elem())
	case reflect.Struct:
		c.typeOf(reflect.PtrTo(g))
	}
	c.discover(t)
	return t
}

func firstEmbedded(s reflect.Type) (ft reflect.Type, ok bool) {
	if s.Kind() != reflect.Struct || s.NumField() == 0 {
		return
	}
	f := s.Field(0)
	if !f.Anonymous || !f.IsExported() {
		return
	}
	ft = f.Type
	switch {
	case ft.Kind() == reflect.Struct:
		ok = true
	case ft.Kind() == reflect.Ptr && ft.Elem().Kind() == reflect.Struct:
		ok = true
	}
	return
}

//	The super type of a struct is its first embedded struct field.
func (c *Catalog) superOf(g reflect.Type) *Type {
	switch {
	case g.Kind() == reflect.Ptr && g.Elem().Kind() == reflect.Struct:
		if ft, ok := firstEmbedded(g.Elem()); ok {
			if ft.Kind() == reflect.Struct {
				return c.typeOf(reflect.PtrTo(ft))
			}
			return c.typeOf(ft)
		}
	case g.Kind() == reflect.Struct:
		if ft, ok := firstEmbedded(g); ok && ft.Kind() == reflect.Struct {
			return c.typeOf(ft)
		}
	}
	return c.Object
}

func (c *Catalog) discover(t *Type) {
	g := t.GoType
	if g.Kind() != reflect.Interface {
		for i := 0; i < g.NumMethod(); i++ {
			method := g.Method(i)
			if !method.IsExported() {
				continue
			}
			m, err := c.newMember(method.Name, t, MethodMember, method.Func)
			if err != nil {
				continue
			}
			t.methods[m.Name] = append(t.methods[m.Name], m)
		}
	}
	s := g
	if s.Kind() == reflect.Ptr {
		s = s.Elem()
	}
	if s.Kind() != reflect.Struct {
		return
	}
	for _, f := range reflect.VisibleFields(s) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		if _, ok := t.fields[f.Name]; ok {
			continue
		}
		t.fields[f.Name] = &Field{Name: f.Name, Owner: t, Type: c.typeOf(f.Type), index: f.Index}
	}
}

func (t *Type) IsInterface() bool {
	return t.GoType.Kind() == reflect.Interface
}

func (t *Type) IsArray() bool {
	return t.Elem != nil
}

func (t *Type) IsPrimitive() bool {
	return isBasic(t.GoType.Kind())
}

//	IsA reports whether other is t or one of its super types.
func (t *Type) IsA(other *Type) bool {
	for s := t; s != nil; s = s.Super {
		if s == other {
			return true
		}
	}
	return false
}

//	Implements is false for the root type and for non interface targets.
func (t *Type) Implements(iface *Type) bool {
	if !iface.IsInterface() || iface.GoType == objectType || t.GoType == objectType {
		return false
	}
	return t.GoType.Implements(iface.GoType)
}

func (t *Type) Constructors() []*Member {
	return t.constructors
}

//	Methods returns the instance methods called name on t and its super
//	types. A super type method with the signature of one already found is
//	hidden.
func (t *Type) Methods(name string) []*Member {
	return t.collect(name, func(s *Type) []*Member { return s.methods[name] })
}

func (t *Type) Statics(name string) []*Member {
	return t.collect(name, func(s *Type) []*Member { return s.statics[name] })
}

func (t *Type) collect(name string, own func(*Type) []*Member) (members []*Member) {
	for s := t; s != nil; s = s.Super {
		for _, m := range own(s) {
			if !hidden(members, m) {
				members = append(members, m)
			}
		}
	}
	return
}

func hidden(members []*Member, m *Member) bool {
	for _, other := range members {
		if sameParams(other.Params, m.Params) {
			return true
		}
	}
	return false
}

func sameParams(a, b []*Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (t *Type) Field(name string) (f *Field, ok bool) {
	f, ok = t.fields[name]
	return
}

func (t *Type) StaticField(name string) (f *StaticField, ok bool) {
	for s := t; s != nil; s = s.Super {
		if f, ok = s.staticFields[name]; ok {
			return
		}
	}
	return
}

//	MethodNames lists instance and static method names, sorted.
func (t *Type) MethodNames() []string {
	seen := map[string]bool{}
	for s := t; s != nil; s = s.Super {
		for name := range s.methods {
			seen[name] = true
		}
		for name := range s.statics {
			seen[name] = true
		}
	}
	return sortedKeys(seen)
}

func (t *Type) FieldNames() []string {
	seen := map[string]bool{}
	for name := range t.fields {
		seen[name] = true
	}
	for s := t; s != nil; s = s.Super {
		for name := range s.staticFields {
			seen[name] = true
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

//	Zero builds the value used for a construction without arguments when no
//	zero argument constructor is registered.
func (t *Type) Zero() (v interface{}, err error) {
	g := t.GoType
	switch {
	case g.Kind() == reflect.Ptr:
		v = reflect.New(g.Elem()).Interface()
	case g.Kind() == reflect.Slice:
		v = reflect.MakeSlice(g, 0, 0).Interface()
	case g.Kind() == reflect.Map:
		v = reflect.MakeMap(g).Interface()
	case g.Kind() == reflect.Interface:
		err = Errorf(IllegalUseError, "cannot instantiate %s", t.Name)
	default:
		v = reflect.Zero(g).Interface()
	}
	return
}

//	Absent is a typed null held in the registry for conu and cona.
type Absent struct {
	Type *Type
}
