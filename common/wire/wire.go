//	Package wire implements the token grammar spoken between hosted
//	environments and hgd. A request is a list of tokens joined by
//	MainSplitter; vector elements inside a token are joined by SubSplitter.
package wire

import (
	"fmt"
	"strconv"
)

const MainSplitter = "/;"
const SubSplitter = "/,"
const ColliderSplitter = "_"

//	Request side object references: ObjectRefPrefix + "<identity>_<collider>"
//	repeated per element.
const ObjectRefPrefix = "go.objecthashcode"

//	reply tags
const (
	NumericTag   = "nu"
	IntegerTag   = "in"
	LogicalTag   = "lo"
	CharacterTag = "ch"
	ObjectTag    = "GO"
	ListTag      = "GL"
	ErrorTag     = "ER"
	NullToken    = "null"
)

//	request argument prefixes
const (
	NumericArg   = "numeric"
	IntegerArg   = "integer"
	LogicalArg   = "logical"
	CharacterArg = "character"
	LongArg      = "long"
	FloatArg     = "float"
)

//	ArgumentPrefixes is ordered so that no prefix shadows a longer one.
var ArgumentPrefixes = []string{NumericArg, IntegerArg, LogicalArg, CharacterArg, LongArg, FloatArg}

//	command codes
const (
	ConstructCode          = "co"
	ConstructNullArrayCode = "cona"
	ConstructNullCode      = "conu"
	ConstructArrayCode     = "coar"
	MethodCode             = "method"
	FieldCode              = "field"
	ClassInfoCode          = "cli"
	FlushCode              = "flush"
	SizeCode               = "size"
	VersionCode            = "version"
	CloseConnection        = "closeConnection"
)

//	administrative requests accepted on the backdoor port
const (
	EmergencyShutdown = "emergencyShutdown"
	SoftExit          = "softExit"
	Interrupt         = "interrupt"
)

//	Marks the end of method names in a class info reply; field names follow.
const EndOfMethods = "endOfMethods"

//	Handle addresses one registry slot.
type Handle struct {
	Identity uint32
	Collider int
}

func (h Handle) String() string {
	return strconv.FormatUint(uint64(h.Identity), 10) + ColliderSplitter + strconv.Itoa(h.Collider)
}

//	Reference is a registered host object as the remote side sees it.
type Reference struct {
	TypeName string
	Handle
}

func (r Reference) String() string {
	return fmt.Sprintf("%s@%s", r.TypeName, r.Handle.String())
}

//	Null is the reply for a request that produced no value.
type Null struct{}

//	List is a heterogeneous reply of several values.
type List []interface{}
