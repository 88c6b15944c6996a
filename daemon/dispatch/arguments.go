package dispatch

import (
	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/wire"
	"hostgate.io/hg/daemon/catalog"
)

//	arguments holds one element vector per argument token and the type each
//	position is resolved against.
type arguments struct {
	values [][]interface{}
	types  []*catalog.Type
}

func (e *Environment) marshal(tokens []string) (args arguments, err error) {
	for _, token := range tokens {
		var values []interface{}
		values, err = wire.DecodeArgument(token, e.Registry)
		if err != nil {
			return
		}
		types := make([]*catalog.Type, len(values))
		for i, v := range values {
			types[i] = e.Catalog.TypeOfValue(v)
		}
		args.values = append(args.values, values)
		args.types = append(args.types, catalog.Common(types))
	}
	return
}

func (a arguments) empty() bool {
	return len(a.values) == 0
}

func (a arguments) lengths() []int {
	lengths := make([]int, len(a.values))
	for i, values := range a.values {
		lengths[i] = len(values)
	}
	return lengths
}

//	row is the i-th argument tuple; single element vectors broadcast.
func (a arguments) row(i int) []interface{} {
	row := make([]interface{}, len(a.values))
	for j, values := range a.values {
		row[j] = pick(values, i)
	}
	return row
}

func pick(values []interface{}, i int) interface{} {
	if len(values) == 1 {
		return values[0]
	}
	return values[i]
}

//	vectorLength is the common length of vectors that are each of length 1
//	or n.
func vectorLength(lengths ...int) (n int, err error) {
	n = 1
	for _, l := range lengths {
		if l > n {
			n = l
		}
	}
	for _, l := range lengths {
		if l != 1 && l != n {
			err = Errorf(ArityOrLengthError, "vectors of lengths %v cannot be paired", lengths)
			return
		}
	}
	return
}
