package catalog

import (
	"reflect"

	. "hostgate.io/hg/common/util"
)

//	Option configures a type during Register. Options run with the catalog
//	lock held.
type Option func(c *Catalog, t *Type) error

func Named(name string) Option {
	return func(c *Catalog, t *Type) error {
		c.rename(t, name)
		return nil
	}
}

//	Constructor adds fn as a constructor; it must return the instance,
//	optionally followed by an error.
func Constructor(fn interface{}) Option {
	return func(c *Catalog, t *Type) (err error) {
		m, err := c.newMember(t.Name, t, ConstructorMember, reflect.ValueOf(fn))
		if err != nil {
			return
		}
		t.constructors = append(t.constructors, m)
		return
	}
}

//	Method adds an instance method whose first parameter is the receiver.
//	Several functions under one name are overloads.
func Method(name string, fn interface{}) Option {
	return func(c *Catalog, t *Type) (err error) {
		m, err := c.newMember(name, t, MethodMember, reflect.ValueOf(fn))
		if err != nil {
			return
		}
		t.methods[name] = append(t.methods[name], m)
		return
	}
}

func Static(name string, fn interface{}) Option {
	return func(c *Catalog, t *Type) (err error) {
		m, err := c.newMember(name, t, StaticMember, reflect.ValueOf(fn))
		if err != nil {
			return
		}
		t.statics[name] = append(t.statics[name], m)
		return
	}
}

//	StaticVar exposes the variable ptr points to as a static field.
func StaticVar(name string, ptr interface{}) Option {
	return func(c *Catalog, t *Type) error {
		rv := reflect.ValueOf(ptr)
		if rv.Kind() != reflect.Ptr || rv.IsNil() {
			return Errorf(IllegalUseError, "static field %s needs a non nil pointer", name)
		}
		t.staticFields[name] = &StaticField{Name: name, Owner: t, Type: c.typeOf(rv.Type().Elem()), ptr: rv}
		return nil
	}
}

//	Alias makes the type reachable under another name as well.
func Alias(name string) Option {
	return func(c *Catalog, t *Type) error {
		c.byName[name] = t
		return nil
	}
}
