package wire

import (
	"testing"

	. "hostgate.io/hg/common/util"
)

type mapResolver map[Handle]interface{}

func (m mapResolver) Resolve(h Handle) (interface{}, error) {
	v, ok := m[h]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func TestDecodeVectorArguments(t *testing.T) {
	values, err := DecodeArgument("integer1/,2/,3", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 3 || values[0] != 1 || values[2] != 3 {
		t.Fatalf("unexpected values %#v", values)
	}

	values, err = DecodeArgument("long9", nil)
	if err != nil {
		t.Fatal(err)
	}
	if values[0] != int64(9) {
		t.Fatalf("long decoded as %T", values[0])
	}

	values, err = DecodeArgument("logicalTRUE/,false", nil)
	if err != nil {
		t.Fatal(err)
	}
	if values[0] != true || values[1] != false {
		t.Fatalf("unexpected logicals %#v", values)
	}

	values, err = DecodeArgument("character", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 1 || values[0] != "" {
		t.Fatalf("empty string argument decoded as %#v", values)
	}

	if _, err = DecodeArgument("numericx", nil); !IsKind(err, ProtocolFormatError) {
		t.Fatalf("expected format error, got %v", err)
	}
	if _, err = DecodeArgument("bogus1", nil); !IsKind(err, ProtocolFormatError) {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestDecodeObjectArguments(t *testing.T) {
	r := mapResolver{
		{Identity: 1, Collider: 1}: "first",
		{Identity: 2, Collider: 3}: "second",
	}
	values, err := DecodeArgument("go.objecthashcode1_1/,2_3", r)
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 2 || values[1] != "second" {
		t.Fatalf("unexpected values %#v", values)
	}
	_, err = DecodeArgument("go.objecthashcode5_1", r)
	if !IsKind(err, ResolutionError) {
		t.Fatalf("expected resolution error, got %v", err)
	}
	_, err = DecodeArgument("go.objecthashcode5", r)
	if !IsKind(err, ProtocolFormatError) {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestEncodeArgument(t *testing.T) {
	token, err := EncodeArgument(1, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if token != "integer1/,2/,3" {
		t.Fatalf("unexpected token %q", token)
	}
	token, err = EncodeArgument(Handle{Identity: 3, Collider: 1}, Reference{TypeName: "x", Handle: Handle{Identity: 4, Collider: 2}})
	if err != nil {
		t.Fatal(err)
	}
	if token != "go.objecthashcode3_1/,4_2" {
		t.Fatalf("unexpected token %q", token)
	}
	if _, err = EncodeArgument(1, "a"); err == nil {
		t.Fatal("mixed vector encoded")
	}
	if _, err = EncodeArgument(); err == nil {
		t.Fatal("empty vector encoded")
	}
}

func TestNewRequest(t *testing.T) {
	request := NewRequest(MethodCode, "go.objecthashcode1_1", "Size")
	if request != "method/;go.objecthashcode1_1/;Size" {
		t.Fatalf("unexpected request %q", request)
	}
	if tokens := SplitRequest(request); len(tokens) != 3 {
		t.Fatalf("unexpected split %v", tokens)
	}
}
