package catalog

import (
	"reflect"

	. "hostgate.io/hg/common/util"
)

//	Distance measures how far arg is from param: 0 for the same type or a
//	primitive counterpart, the number of super type hops otherwise, plus one
//	half when the match goes through an interface. -1 means no match.
func Distance(param, arg *Type) float64 {
	if param == arg || counterpart(param.GoType, arg.GoType) {
		return 0
	}
	hops := 0.0
	for t := arg; t != nil; t = t.Super {
		if t == param {
			return hops
		}
		if t.Implements(param) && (t.Super == nil || !t.Super.Implements(param)) {
			return hops + 0.5
		}
		hops++
	}
	return -1
}

func counterpart(p, a reflect.Type) bool {
	if p == nil || a == nil {
		return false
	}
	if isBasic(p.Kind()) && p.Kind() == a.Kind() {
		return true
	}
	return p.Kind() == reflect.Ptr && isBasic(p.Elem().Kind()) && p.Elem().Kind() == a.Kind()
}

//	Score sums the distances of each position, or -1 when the lengths differ
//	or one position does not match.
func Score(params, args []*Type) float64 {
	if len(params) != len(args) {
		return -1
	}
	total := 0.0
	for i := range params {
		d := Distance(params[i], args[i])
		if d < 0 {
			return -1
		}
		total += d
	}
	return total
}

//	Nearest picks the candidate with the lowest score. Ties keep the first
//	one encountered.
func Nearest(candidates []*Member, args []*Type) (best *Member, err error) {
	bestScore := -1.0
	for _, m := range candidates {
		score := Score(m.Params, args)
		if score < 0 {
			continue
		}
		if best == nil || score < bestScore {
			best, bestScore = m, score
		}
	}
	if best == nil {
		err = ErrNoSuchMember
	}
	return
}

//	Exact returns the candidate whose parameter types are exactly args.
func Exact(candidates []*Member, args []*Type) *Member {
	for _, m := range candidates {
		if sameParams(m.Params, args) {
			return m
		}
	}
	return nil
}

//	Resolve tries an exact match first and falls back on scoring when there
//	is at least one argument.
func Resolve(candidates []*Member, args []*Type) (m *Member, err error) {
	if m = Exact(candidates, args); m != nil {
		return
	}
	if len(args) == 0 {
		err = ErrNoSuchMember
		return
	}
	return Nearest(candidates, args)
}

//	Common is the most specific type every one of types is a kind of.
func Common(types []*Type) *Type {
	if len(types) == 0 {
		return nil
	}
	common := types[0]
	for _, t := range types[1:] {
		for !t.IsA(common) && common.Super != nil {
			common = common.Super
		}
	}
	return common
}
