package wire

import (
	"regexp"
	"strconv"
	"strings"

	. "hostgate.io/hg/common/util"
)

var referencePattern = regexp.MustCompile(`^([^@]+)@([0-9]+)_([0-9]+)$`)

//	Encode renders a reply value as a token.
func Encode(v interface{}) (token string, err error) {
	switch x := v.(type) {
	case nil, Null:
		token = NullToken
	case float64:
		token = NumericTag + strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		token = NumericTag + strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int:
		token = IntegerTag + strconv.FormatInt(int64(x), 10)
	case int8:
		token = IntegerTag + strconv.FormatInt(int64(x), 10)
	case int16:
		token = IntegerTag + strconv.FormatInt(int64(x), 10)
	case int32:
		token = IntegerTag + strconv.FormatInt(int64(x), 10)
	case int64:
		token = IntegerTag + strconv.FormatInt(x, 10)
	case uint8:
		token = IntegerTag + strconv.FormatUint(uint64(x), 10)
	case uint16:
		token = IntegerTag + strconv.FormatUint(uint64(x), 10)
	case uint32:
		token = IntegerTag + strconv.FormatUint(uint64(x), 10)
	case bool:
		token = LogicalTag + strconv.FormatBool(x)
	case string:
		token = CharacterTag + x
	case Reference:
		token = ObjectTag + MainSplitter + x.String()
	case List:
		token, err = encodeList(x)
	default:
		err = Errorf(ProtocolFormatError, "cannot encode a value of type %T", v)
	}
	return
}

func encodeList(list List) (token string, err error) {
	var sb strings.Builder
	sb.WriteString(ListTag + MainSplitter)
	for _, elem := range list {
		if _, nested := elem.(List); nested {
			err = Errorf(ProtocolFormatError, "lists cannot be nested")
			return
		}
		var elemToken string
		elemToken, err = Encode(elem)
		if err != nil {
			return
		}
		//	a lone object inside a list does not repeat the object tag
		elemToken = strings.TrimPrefix(elemToken, ObjectTag+MainSplitter)
		sb.WriteString(elemToken)
		sb.WriteString(SubSplitter)
	}
	token = sb.String()
	return
}

//	EncodeError renders err as an error reply.
func EncodeError(err error) string {
	message := err.Error()
	if typed, ok := err.(*Error); ok {
		message = typed.Message
		if typed.Err != nil {
			message += ": " + typed.Err.Error()
		}
	}
	return ErrorTag + MainSplitter + string(KindOf(err)) + MainSplitter + message
}

//	Decode parses a reply token. An error reply decodes to a nil value and
//	the remote *Error.
func Decode(token string) (v interface{}, err error) {
	switch {
	case token == NullToken:
		v = Null{}
	case strings.HasPrefix(token, ErrorTag+MainSplitter):
		err = decodeError(token)
	case strings.HasPrefix(token, ListTag+MainSplitter):
		v, err = decodeList(strings.TrimPrefix(token, ListTag+MainSplitter))
	case strings.HasPrefix(token, ObjectTag+MainSplitter):
		v, err = parseReference(strings.TrimPrefix(token, ObjectTag+MainSplitter))
	default:
		v, err = decodePrimitive(token)
	}
	return
}

func decodeError(token string) error {
	parts := strings.SplitN(token, MainSplitter, 3)
	if len(parts) < 3 {
		return Errorf(ProtocolFormatError, "malformed error reply %q", token)
	}
	return &Error{Kind: ErrorKind(parts[1]), Message: parts[2]}
}

func decodeList(body string) (list List, err error) {
	elems := strings.Split(body, SubSplitter)
	if len(elems) > 0 && elems[len(elems)-1] == "" {
		elems = elems[:len(elems)-1]
	}
	list = make(List, 0, len(elems))
	for _, elem := range elems {
		var v interface{}
		switch {
		case elem == NullToken:
			v = Null{}
		default:
			v, err = decodeElement(elem)
		}
		if err != nil {
			return
		}
		list = append(list, v)
	}
	return
}

//	decodeElement prefers the primitive reading of a tagged element, so that
//	a string such as "user@12_3" survives. Channel type names are the only
//	references that start with a tag.
func decodeElement(elem string) (v interface{}, err error) {
	isReference := referencePattern.MatchString(elem)
	if isReference && strings.HasPrefix(elem, "chan") {
		return parseReference(elem)
	}
	v, err = decodePrimitive(elem)
	if err != nil && isReference {
		return parseReference(elem)
	}
	return
}

func parseReference(s string) (ref Reference, err error) {
	m := referencePattern.FindStringSubmatch(s)
	if m == nil {
		err = Errorf(ProtocolFormatError, "malformed object reference %q", s)
		return
	}
	h, err := parseHandle(m[2] + ColliderSplitter + m[3])
	if err != nil {
		return
	}
	ref = Reference{TypeName: m[1], Handle: h}
	return
}

func decodePrimitive(token string) (v interface{}, err error) {
	if len(token) < 2 {
		err = Errorf(ProtocolFormatError, "token too short %q", token)
		return
	}
	literal := token[2:]
	switch token[:2] {
	case NumericTag:
		v, err = parseFloat(literal, 64)
	case IntegerTag:
		v, err = parseInt(literal, 64)
	case LogicalTag:
		v, err = parseBool(literal)
	case CharacterTag:
		v = literal
	default:
		err = Errorf(ProtocolFormatError, "unknown token %q", token)
	}
	return
}

func parseFloat(literal string, bits int) (float64, error) {
	f, err := strconv.ParseFloat(literal, bits)
	if err != nil {
		return 0, Wrap(ProtocolFormatError, "malformed numeric literal "+strconv.Quote(literal), err)
	}
	return f, nil
}

func parseInt(literal string, bits int) (int64, error) {
	i, err := strconv.ParseInt(literal, 10, bits)
	if err != nil {
		return 0, Wrap(ProtocolFormatError, "malformed integer literal "+strconv.Quote(literal), err)
	}
	return i, nil
}

func parseBool(literal string) (bool, error) {
	b, err := strconv.ParseBool(strings.ToLower(literal))
	if err != nil {
		return false, Wrap(ProtocolFormatError, "malformed logical literal "+strconv.Quote(literal), err)
	}
	return b, nil
}
