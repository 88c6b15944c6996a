//	Package dispatch interprets requests against the catalog and the
//	registry: construction, method calls, field access, introspection and
//	reference release.
package dispatch

import (
	"context"
	"strings"

	"github.com/op/go-logging"

	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/version"
	"hostgate.io/hg/common/wire"
	"hostgate.io/hg/daemon/catalog"
	"hostgate.io/hg/daemon/registry"
)

const CloneMember = "clone"
const LengthMember = "length"

//	Environment is safe for concurrent use by every worker of a server.
type Environment struct {
	Catalog  *catalog.Catalog
	Registry *registry.Registry
	log      *logging.Logger
	cache    *resolutionCache
}

func New(c *catalog.Catalog, r *registry.Registry, log *logging.Logger) *Environment {
	return &Environment{
		Catalog:  c,
		Registry: r,
		log:      log,
		cache:    newResolutionCache(resolutionCacheSize),
	}
}

//	Process executes one request and returns its reply token. Failures come
//	back as *util.Error for the caller to serialize.
func (e *Environment) Process(ctx context.Context, request string) (reply string, err error) {
	if e.log != nil {
		e.log.Debug("processing request:", request)
	}
	tokens := wire.SplitRequest(request)
	var out interface{}
	switch {
	case request == wire.CloseConnection:
		reply = wire.CloseConnection
		return
	case strings.HasPrefix(tokens[0], wire.ConstructCode):
		out, err = e.construct(ctx, tokens)
	case tokens[0] == wire.MethodCode:
		out, err = e.invoke(ctx, tokens)
	case tokens[0] == wire.FieldCode:
		out, err = e.field(tokens)
	case tokens[0] == wire.ClassInfoCode:
		out, err = e.classInfo(tokens)
	case tokens[0] == wire.FlushCode:
		err = e.flush(tokens)
	case tokens[0] == wire.SizeCode:
		out = wire.List{e.Registry.Size()}
	case tokens[0] == wire.VersionCode:
		out = version.String()
	default:
		err = Errorf(ProtocolFormatError, "%s: %q", ErrUnknownRequest.Message, request)
	}
	if err != nil {
		return
	}
	reply, err = wire.Encode(out)
	return
}

func (e *Environment) lookupType(name string) (t *catalog.Type, err error) {
	t, ok := e.Catalog.Lookup(name)
	if !ok {
		err = Errorf(ResolutionError, "unknown type %q", name)
	}
	return
}

func (e *Environment) flush(tokens []string) (err error) {
	if len(tokens) < 2 || !wire.IsObjectArgument(tokens[1]) {
		return
	}
	handles, err := wire.ParseHandles(tokens[1])
	if err != nil {
		return
	}
	e.Registry.Release(handles...)
	return
}

func (e *Environment) classInfo(tokens []string) (out interface{}, err error) {
	if len(tokens) < 2 {
		err = Errorf(ProtocolFormatError, "a class info request needs a type name")
		return
	}
	t, err := e.lookupType(tokens[1])
	if err != nil {
		return
	}
	results := e.newOutputs()
	for _, name := range t.MethodNames() {
		results.add(name)
	}
	if t.IsArray() {
		results.add(CloneMember)
	}
	results.add(wire.EndOfMethods)
	for _, name := range t.FieldNames() {
		results.add(name)
	}
	if t.IsArray() {
		results.add(LengthMember)
	}
	out = results.value()
	return
}
