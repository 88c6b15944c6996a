package wire

import (
	"strconv"
	"strings"

	. "hostgate.io/hg/common/util"
)

//	Resolver maps object handles back to live host values.
type Resolver interface {
	Resolve(h Handle) (interface{}, error)
}

func NewRequest(code string, tokens ...string) string {
	return strings.Join(append([]string{code}, tokens...), MainSplitter)
}

func SplitRequest(request string) []string {
	return strings.Split(request, MainSplitter)
}

//	ArgumentPrefix returns the primitive prefix of token, or "" when token
//	is not a primitive argument.
func ArgumentPrefix(token string) string {
	for _, prefix := range ArgumentPrefixes {
		if strings.HasPrefix(token, prefix) {
			return prefix
		}
	}
	return ""
}

func IsObjectArgument(token string) bool {
	return strings.HasPrefix(token, ObjectRefPrefix)
}

//	DecodeArgument turns one argument token into its element vector.
//	Object elements are looked up through r.
func DecodeArgument(token string, r Resolver) (values []interface{}, err error) {
	if IsObjectArgument(token) {
		handles, parseErr := ParseHandles(token)
		if parseErr != nil {
			err = parseErr
			return
		}
		for _, h := range handles {
			var v interface{}
			v, err = r.Resolve(h)
			if err != nil {
				return
			}
			values = append(values, v)
		}
		return
	}
	prefix := ArgumentPrefix(token)
	if prefix == "" {
		err = Errorf(ProtocolFormatError, "unknown argument token %q", token)
		return
	}
	return DecodePrimitiveArgument(prefix, strings.TrimPrefix(token, prefix))
}

func DecodePrimitiveArgument(prefix string, body string) (values []interface{}, err error) {
	for _, literal := range strings.Split(body, SubSplitter) {
		var v interface{}
		switch prefix {
		case CharacterArg:
			v = literal
		case NumericArg:
			v, err = parseFloat(literal, 64)
		case IntegerArg:
			var i int64
			i, err = parseInt(literal, strconv.IntSize)
			v = int(i)
		case LongArg:
			v, err = parseInt(literal, 64)
		case FloatArg:
			var f float64
			f, err = parseFloat(literal, 32)
			v = float32(f)
		case LogicalArg:
			v, err = parseBool(literal)
		default:
			err = Errorf(ProtocolFormatError, "unknown argument prefix %q", prefix)
		}
		if err != nil {
			return
		}
		values = append(values, v)
	}
	return
}

//	ParseHandles reads ObjectRefPrefix + "12_1/,13_1".
func ParseHandles(token string) (handles []Handle, err error) {
	if !IsObjectArgument(token) {
		err = Errorf(ProtocolFormatError, "not an object reference %q", token)
		return
	}
	for _, part := range strings.Split(strings.TrimPrefix(token, ObjectRefPrefix), SubSplitter) {
		var h Handle
		h, err = parseHandle(part)
		if err != nil {
			return
		}
		handles = append(handles, h)
	}
	return
}

func parseHandle(s string) (h Handle, err error) {
	parts := strings.Split(s, ColliderSplitter)
	if len(parts) != 2 {
		err = Errorf(ProtocolFormatError, "malformed object handle %q", s)
		return
	}
	identity, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		err = Wrap(ProtocolFormatError, "malformed object identity "+strconv.Quote(parts[0]), err)
		return
	}
	collider, err := strconv.Atoi(parts[1])
	if err != nil {
		err = Wrap(ProtocolFormatError, "malformed collider "+strconv.Quote(parts[1]), err)
		return
	}
	h = Handle{Identity: uint32(identity), Collider: collider}
	return
}

//	EncodeHandles renders handles as one object argument.
func EncodeHandles(handles ...Handle) string {
	parts := make([]string, len(handles))
	for i, h := range handles {
		parts[i] = h.String()
	}
	return ObjectRefPrefix + strings.Join(parts, SubSplitter)
}

//	EncodeArgument renders a homogeneous vector as one request argument.
func EncodeArgument(values ...interface{}) (token string, err error) {
	if len(values) == 0 {
		err = Errorf(ProtocolFormatError, "an argument needs at least one element")
		return
	}
	switch values[0].(type) {
	case Reference, Handle:
		handles := make([]Handle, len(values))
		for i, v := range values {
			switch x := v.(type) {
			case Reference:
				handles[i] = x.Handle
			case Handle:
				handles[i] = x
			default:
				err = Errorf(ProtocolFormatError, "mixed object and %T elements", v)
				return
			}
		}
		token = EncodeHandles(handles...)
		return
	}
	prefix := argumentPrefixOf(values[0])
	if prefix == "" {
		err = Errorf(ProtocolFormatError, "cannot send a value of type %T", values[0])
		return
	}
	literals := make([]string, len(values))
	for i, v := range values {
		if argumentPrefixOf(v) != prefix {
			err = Errorf(ProtocolFormatError, "mixed %T and %T elements", values[0], v)
			return
		}
		literals[i] = literalOf(v)
	}
	token = prefix + strings.Join(literals, SubSplitter)
	return
}

func argumentPrefixOf(v interface{}) string {
	switch v.(type) {
	case int, int32:
		return IntegerArg
	case int64:
		return LongArg
	case float64:
		return NumericArg
	case float32:
		return FloatArg
	case bool:
		return LogicalArg
	case string:
		return CharacterArg
	}
	return ""
}

func literalOf(v interface{}) string {
	switch x := v.(type) {
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	}
	return ""
}
