package catalog

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

//	primitive names used by request argument prefixes
var primitiveAliases = map[string]interface{}{
	"integer":   0,
	"numeric":   0.0,
	"logical":   false,
	"character": "",
	"long":      int64(0),
	"float":     float32(0),
}

type arrays struct{}
type maths struct{}
type clock struct{}

var Pi = math.Pi
var E = math.E

func registerBuiltins(c *Catalog) {
	for alias, sample := range primitiveAliases {
		c.alias(alias, c.TypeOfValue(sample))
	}
	must(c.Register(arrays{}, Named("Array"),
		Static("Get", arrayGet),
		Static("Set", arraySet),
		Static("GetLength", arrayLength),
	))
	must(c.Register(maths{}, Named("Math"),
		Static("Abs", math.Abs),
		Static("Abs", func(x int) int {
			if x < 0 {
				return -x
			}
			return x
		}),
		Static("Sqrt", math.Sqrt),
		Static("Pow", math.Pow),
		Static("Floor", math.Floor),
		Static("Ceil", math.Ceil),
		Static("Round", math.Round),
		Static("Log", math.Log),
		Static("Exp", math.Exp),
		Static("Max", math.Max),
		Static("Max", func(a, b int) int {
			if a > b {
				return a
			}
			return b
		}),
		Static("Min", math.Min),
		Static("Min", func(a, b int) int {
			if a < b {
				return a
			}
			return b
		}),
		StaticVar("PI", &Pi),
		StaticVar("E", &E),
	))
	must(c.Register(clock{}, Named("Clock"),
		Static("Sleep", sleep),
		Static("NowMillis", func() int64 { return time.Now().UnixNano() / int64(time.Millisecond) }),
	))
	must(c.Register(&List{}, Named("List"),
		Constructor(NewList),
		Constructor(NewListFrom),
	))
	must(c.Register(&strings.Builder{}, Named("StringBuilder")))
	must(c.Register("",
		Method("Length", func(s string) int { return len([]rune(s)) }),
		Method("ToUpper", strings.ToUpper),
		Method("ToLower", strings.ToLower),
		Method("TrimSpace", strings.TrimSpace),
		Method("Contains", strings.Contains),
		Method("HasPrefix", strings.HasPrefix),
		Method("HasSuffix", strings.HasSuffix),
		Method("Index", strings.Index),
		Method("Repeat", strings.Repeat),
		Method("Split", strings.Split),
		Method("Replace", strings.ReplaceAll),
		Method("Concat", func(s, other string) string { return s + other }),
		Method("Substring", substring),
	))
}

func must(t *Type, err error) {
	if err != nil {
		panic(err)
	}
}

func sliceValue(array interface{}) (rv reflect.Value, err error) {
	rv = reflect.ValueOf(array)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		err = fmt.Errorf("%T is not an array", array)
	}
	return
}

func arrayGet(array interface{}, i int) (v interface{}, err error) {
	rv, err := sliceValue(array)
	if err != nil {
		return
	}
	if i < 0 || i >= rv.Len() {
		err = fmt.Errorf("index %d out of bounds for length %d", i, rv.Len())
		return
	}
	v = valueOf(rv.Index(i))
	return
}

func arraySet(array interface{}, i int, v interface{}) (err error) {
	rv, err := sliceValue(array)
	if err != nil {
		return
	}
	if i < 0 || i >= rv.Len() {
		return fmt.Errorf("index %d out of bounds for length %d", i, rv.Len())
	}
	elem := rv.Index(i)
	if !elem.CanSet() {
		return fmt.Errorf("%T is not settable", array)
	}
	converted, err := Convert(v, elem.Type())
	if err != nil {
		return
	}
	elem.Set(converted)
	return
}

func arrayLength(array interface{}) (n int, err error) {
	rv, err := sliceValue(array)
	if err != nil {
		return
	}
	n = rv.Len()
	return
}

func sleep(ctx context.Context, millis int) error {
	select {
	case <-time.After(time.Duration(millis) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func substring(s string, begin, end int) (string, error) {
	runes := []rune(s)
	if begin < 0 || end > len(runes) || begin > end {
		return "", fmt.Errorf("range [%d, %d) out of bounds for length %d", begin, end, len(runes))
	}
	return string(runes[begin:end]), nil
}
