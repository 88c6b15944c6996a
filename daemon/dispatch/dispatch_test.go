package dispatch

import (
	"context"
	"strings"
	"testing"

	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/wire"
	"hostgate.io/hg/daemon/catalog"
	"hostgate.io/hg/daemon/registry"
)

type Counter struct {
	Count int
	Label string
}

func (c *Counter) Increment() int {
	c.Count++
	return c.Count
}

func (c *Counter) Self() *Counter {
	return c
}

type Animal struct {
	Name string
}

type Dog struct {
	Animal
}

type Beast struct {
	Legs int
}

func (b *Beast) Speak() string {
	return "beast"
}

type Hound struct {
	Beast
}

func (h *Hound) Speak() string {
	return "woof"
}

type calc struct{}
type kennel struct{}
type shelter struct{}

var Total = 0

func testEnvironment(t *testing.T) *Environment {
	c := catalog.New()
	register := func(sample interface{}, opts ...catalog.Option) {
		if _, err := c.Register(sample, opts...); err != nil {
			t.Fatal(err)
		}
	}
	register(&Counter{})
	register(&Dog{})
	register(&Beast{})
	register(&Hound{})
	register(calc{}, catalog.Named("Calc"),
		catalog.Static("Add", func(a, b int) int { return a + b }),
		catalog.StaticVar("Total", &Total),
	)
	register(kennel{}, catalog.Named("Kennel"),
		catalog.Static("Pick", func(o interface{}) string { return "object" }),
		catalog.Static("Pick", func(a *Animal) string { return "animal" }),
		catalog.Static("Pick", func(d *Dog) string { return "dog" }),
	)
	register(shelter{}, catalog.Named("Shelter"),
		catalog.Static("Pick", func(o interface{}) string { return "object" }),
		catalog.Static("Pick", func(a *Animal) string { return "animal" }),
		catalog.Static("Describe", func(c *Counter) string {
			if c == nil {
				return "no counter"
			}
			return c.Label
		}),
	)
	return New(c, registry.New(), nil)
}

func process(t *testing.T, e *Environment, tokens ...string) string {
	reply, err := e.Process(context.Background(), wire.NewRequest(tokens[0], tokens[1:]...))
	if err != nil {
		t.Fatalf("%v failed: %v", tokens, err)
	}
	return reply
}

func processErr(e *Environment, tokens ...string) error {
	_, err := e.Process(context.Background(), wire.NewRequest(tokens[0], tokens[1:]...))
	return err
}

func reference(t *testing.T, reply string) wire.Reference {
	v, err := wire.Decode(reply)
	if err != nil {
		t.Fatal(err)
	}
	ref, ok := v.(wire.Reference)
	if !ok {
		t.Fatalf("expected a reference, got %q", reply)
	}
	return ref
}

func TestConstructInvokeRelease(t *testing.T) {
	e := testEnvironment(t)
	ref := reference(t, process(t, e, wire.ConstructCode, "dispatch.Counter"))
	if ref.TypeName != "dispatch.Counter" {
		t.Fatalf("constructed %s", ref.TypeName)
	}
	token := wire.EncodeHandles(ref.Handle)
	if got := process(t, e, wire.MethodCode, token, "Increment"); got != "in1" {
		t.Fatalf("first call gave %q", got)
	}
	if got := process(t, e, wire.MethodCode, token, "Increment"); got != "in2" {
		t.Fatalf("second call gave %q", got)
	}
	if e.Registry.Size() != 1 {
		t.Fatalf("size %d after reads", e.Registry.Size())
	}
	if got := process(t, e, wire.SizeCode); got != "GL/;in1/," {
		t.Fatalf("size reply %q", got)
	}
	if got := process(t, e, wire.FlushCode, token); got != wire.NullToken {
		t.Fatalf("flush reply %q", got)
	}
	if err := processErr(e, wire.MethodCode, token, "Increment"); !IsKind(err, ResolutionError) {
		t.Fatalf("released object still reachable: %v", err)
	}
	if e.Registry.Size() != 0 {
		t.Fatal("registry not empty")
	}
}

func TestReturnedSelfAliases(t *testing.T) {
	e := testEnvironment(t)
	ref := reference(t, process(t, e, wire.ConstructCode, "dispatch.Counter"))
	self := reference(t, process(t, e, wire.MethodCode, wire.EncodeHandles(ref.Handle), "Self"))
	if self.Handle != ref.Handle {
		t.Fatalf("self came back as %v, constructed as %v", self.Handle, ref.Handle)
	}
	if e.Registry.Count(ref.Handle) != 2 {
		t.Fatal("self should add a reference")
	}
}

func TestBroadcast(t *testing.T) {
	e := testEnvironment(t)
	got := process(t, e, wire.MethodCode, "characterCalc", "Add", "integer10", "integer1/,2/,3")
	if got != "GL/;in11/,in12/,in13/," {
		t.Fatalf("broadcast gave %q", got)
	}
	err := processErr(e, wire.MethodCode, "characterCalc", "Add", "integer1/,2", "integer1/,2/,3")
	if !IsKind(err, ArityOrLengthError) {
		t.Fatalf("expected arity error, got %v", err)
	}
}

func TestVectorTargets(t *testing.T) {
	e := testEnvironment(t)
	err := processErr(e, wire.ConstructCode, "dispatch.Counter", "integer1/,2/,3", "characterx")
	if !IsKind(err, ResolutionError) {
		t.Fatalf("expected no matching constructor, got %v", err)
	}
	a := reference(t, process(t, e, wire.ConstructCode, "dispatch.Counter"))
	b := reference(t, process(t, e, wire.ConstructCode, "dispatch.Counter"))
	targets := wire.EncodeHandles(a.Handle, b.Handle)
	process(t, e, wire.FieldCode, targets, "Count", "integer5/,7")
	if got := process(t, e, wire.FieldCode, targets, "Count"); got != "GL/;in5/,in7/," {
		t.Fatalf("fields gave %q", got)
	}
	if got := process(t, e, wire.MethodCode, targets, "Increment"); got != "GL/;in6/,in8/," {
		t.Fatalf("increments gave %q", got)
	}
	err = processErr(e, wire.FieldCode, targets, "Count", "integer1/,2/,3")
	if !IsKind(err, ArityOrLengthError) {
		t.Fatalf("expected arity error, got %v", err)
	}
}

func TestOverloadScoring(t *testing.T) {
	e := testEnvironment(t)
	dog := reference(t, process(t, e, wire.ConstructCode, "dispatch.Dog"))
	token := wire.EncodeHandles(dog.Handle)
	if got := process(t, e, wire.MethodCode, "characterKennel", "Pick", token); got != "chdog" {
		t.Fatalf("kennel picked %q", got)
	}
	if got := process(t, e, wire.MethodCode, "characterShelter", "Pick", token); got != "chanimal" {
		t.Fatalf("shelter picked %q", got)
	}
	if got := process(t, e, wire.MethodCode, "characterShelter", "Pick", "integer1"); got != "chobject" {
		t.Fatalf("shelter picked %q for an integer", got)
	}
	shelter, _ := e.Catalog.Lookup("Shelter")
	key := resolutionKey(shelter, catalog.MethodMember, "Pick", []*catalog.Type{e.Catalog.TypeOfValue(1)})
	if _, ok := e.cache.get(key); !ok {
		t.Fatal("resolutions were not cached")
	}
}

func TestStaticAndStringTargets(t *testing.T) {
	e := testEnvironment(t)
	err := processErr(e, wire.MethodCode, "characterdispatch.Counter", "Increment")
	if !IsKind(err, IllegalUseError) {
		t.Fatalf("expected illegal use, got %v", err)
	}
	if got := process(t, e, wire.MethodCode, "characterhello", "ToUpper"); got != "chHELLO" {
		t.Fatalf("string method gave %q", got)
	}
	err = processErr(e, wire.FieldCode, "characterhello", "Missing")
	if !IsKind(err, ResolutionError) || !strings.Contains(err.Error(), "string") {
		t.Fatalf("expected string fallback note, got %v", err)
	}
	err = processErr(e, wire.FieldCode, "characterdispatch.Counter", "Count")
	if !IsKind(err, IllegalUseError) {
		t.Fatalf("expected illegal use, got %v", err)
	}
	process(t, e, wire.FieldCode, "characterCalc", "Total", "integer4")
	if got := process(t, e, wire.FieldCode, "characterCalc", "Total"); got != "in4" {
		t.Fatalf("static field gave %q", got)
	}
	err = processErr(e, wire.FieldCode, "characterCalc", "Total", "integer1", "integer2")
	if !IsKind(err, IllegalUseError) {
		t.Fatalf("expected illegal use, got %v", err)
	}
}

func TestArrays(t *testing.T) {
	e := testEnvironment(t)
	ref := reference(t, process(t, e, wire.ConstructArrayCode, "numeric", "integer3"))
	if ref.TypeName != "[]float64" {
		t.Fatalf("array type %s", ref.TypeName)
	}
	token := wire.EncodeHandles(ref.Handle)
	if got := process(t, e, wire.FieldCode, token, LengthMember); got != "in3" {
		t.Fatalf("length gave %q", got)
	}
	process(t, e, wire.MethodCode, "characterArray", "Set", token, "integer1", "numeric2.5")
	if got := process(t, e, wire.MethodCode, "characterArray", "Get", token, "integer1"); got != "nu2.5" {
		t.Fatalf("get gave %q", got)
	}
	clone := reference(t, process(t, e, wire.MethodCode, token, CloneMember))
	if clone.Handle == ref.Handle {
		t.Fatal("clone aliased the original")
	}

	matrix := reference(t, process(t, e, wire.ConstructArrayCode, "integer", "integer2", "integer4"))
	if matrix.TypeName != "[][]int" {
		t.Fatalf("matrix type %s", matrix.TypeName)
	}
	if err := processErr(e, wire.ConstructArrayCode, "numeric"); !IsKind(err, IllegalUseError) {
		t.Fatalf("expected illegal use, got %v", err)
	}

	info := process(t, e, wire.ClassInfoCode, "[]float64")
	if info != "GL/;chclone/,chendOfMethods/,chlength/," {
		t.Fatalf("class info %q", info)
	}
}

func TestNullPlaceholders(t *testing.T) {
	e := testEnvironment(t)
	ref := reference(t, process(t, e, wire.ConstructNullCode, "dispatch.Counter"))
	if ref.TypeName != "dispatch.Counter" {
		t.Fatalf("placeholder type %s", ref.TypeName)
	}
	got := process(t, e, wire.MethodCode, "characterShelter", "Describe", wire.EncodeHandles(ref.Handle))
	if got != "chno counter" {
		t.Fatalf("placeholder argument gave %q", got)
	}
	array := reference(t, process(t, e, wire.ConstructNullArrayCode, "numeric", "integer2", "integer2"))
	if array.TypeName != "[][]float64" {
		t.Fatalf("null array type %s", array.TypeName)
	}
}

func TestClassInfo(t *testing.T) {
	e := testEnvironment(t)
	got := process(t, e, wire.ClassInfoCode, "dispatch.Counter")
	if got != "GL/;chIncrement/,chSelf/,chendOfMethods/,chCount/,chLabel/," {
		t.Fatalf("class info %q", got)
	}
	if err := processErr(e, wire.ClassInfoCode, "no.Such"); !IsKind(err, ResolutionError) {
		t.Fatalf("expected resolution error, got %v", err)
	}
}

func TestInterruptedCall(t *testing.T) {
	e := testEnvironment(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Process(ctx, wire.NewRequest(wire.MethodCode, "characterClock", "Sleep", "integer10000"))
	if !IsKind(err, InvocationError) {
		t.Fatalf("expected invocation error, got %v", err)
	}
}

func TestUnknownRequest(t *testing.T) {
	e := testEnvironment(t)
	if err := processErr(e, "bogus"); !IsKind(err, ProtocolFormatError) {
		t.Fatalf("expected format error, got %v", err)
	}
	if got := process(t, e, wire.VersionCode); !strings.HasPrefix(got, "ch") {
		t.Fatalf("version reply %q", got)
	}
}

func TestVectorTargetsDispatchOnElementType(t *testing.T) {
	e := testEnvironment(t)
	hound := reference(t, process(t, e, wire.ConstructCode, "dispatch.Hound"))
	beast := reference(t, process(t, e, wire.ConstructCode, "dispatch.Beast"))
	if got := process(t, e, wire.MethodCode, wire.EncodeHandles(hound.Handle), "Speak"); got != "chwoof" {
		t.Fatalf("hound alone said %q", got)
	}
	targets := wire.EncodeHandles(hound.Handle, beast.Handle, hound.Handle)
	if got := process(t, e, wire.MethodCode, targets, "Speak"); got != "GL/;chwoof/,chbeast/,chwoof/," {
		t.Fatalf("mixed targets said %q", got)
	}
	if got := process(t, e, wire.FieldCode, targets, "Legs"); got != "GL/;in0/,in0/,in0/," {
		t.Fatalf("inherited field gave %q", got)
	}
}
