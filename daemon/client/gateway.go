package client

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"

	"hostgate.io/hg/common/config"
	"hostgate.io/hg/common/socket"
	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/version"
	"hostgate.io/hg/common/wire"
)

const membersCacheSize = 256

//	Vector is an argument carrying several elements, applied element-wise
//	by the server.
type Vector []interface{}

//	Static names a type as the target of a static call.
type Static string

//	Members of a type as reported by a class info request.
type Members struct {
	Methods []string
	Fields  []string
}

//	Gateway opens a fresh connection per call, rotating over the call ports.
//	Release and Size go through the housekeeping port.
type Gateway struct {
	host             string
	ports            []int
	housekeepingPort int
	key              int
	timeoutSeconds   int
	opts             []Option
	next             uint32
	members          *lru.Cache
}

func NewGateway(host string, info config.ServerInfo, timeoutSeconds int, opts ...Option) (g *Gateway, err error) {
	if len(info.Ports) == 0 {
		err = Errorf(IllegalUseError, "the server publishes no call port")
		return
	}
	members, err := lru.New(membersCacheSize)
	if err != nil {
		return
	}
	g = &Gateway{
		host:             host,
		ports:            append([]int(nil), info.Ports...),
		housekeepingPort: info.HousekeepingPort,
		key:              info.Key,
		timeoutSeconds:   timeoutSeconds,
		opts:             opts,
		members:          members,
	}
	return
}

func (g *Gateway) callAddr() string {
	n := atomic.AddUint32(&g.next, 1)
	return socket.Address(g.host, g.ports[int(n-1)%len(g.ports)])
}

func (g *Gateway) call(addr string, request string) (v interface{}, err error) {
	c, err := Connect(addr, g.key, g.timeoutSeconds, g.opts...)
	if err != nil {
		return
	}
	defer c.Close()
	return c.Call(request)
}

//	Do sends a raw request to the next call port.
func (g *Gateway) Do(request string) (interface{}, error) {
	return g.call(g.callAddr(), request)
}

func (g *Gateway) housekeeping(request string) (interface{}, error) {
	return g.call(socket.Address(g.host, g.housekeepingPort), request)
}

func encodeArgument(arg interface{}) (string, error) {
	switch x := arg.(type) {
	case Vector:
		return wire.EncodeArgument(x...)
	case []wire.Reference:
		values := make([]interface{}, len(x))
		for i, ref := range x {
			values[i] = ref
		}
		return wire.EncodeArgument(values...)
	}
	return wire.EncodeArgument(arg)
}

//	encodeTarget renders the receiver of a call. The server reads a single
//	string naming a type as a static target, so Static is sent as a string.
func encodeTarget(target interface{}) (string, error) {
	if name, ok := target.(Static); ok {
		return encodeArgument(string(name))
	}
	return encodeArgument(target)
}

func (g *Gateway) request(code string, head []string, args []interface{}) (request string, err error) {
	tokens := append([]string(nil), head...)
	for _, arg := range args {
		var token string
		token, err = encodeArgument(arg)
		if err != nil {
			return
		}
		tokens = append(tokens, token)
	}
	request = wire.NewRequest(code, tokens...)
	return
}

func (g *Gateway) construct(code string, typeName string, args []interface{}) (v interface{}, err error) {
	request, err := g.request(code, []string{typeName}, args)
	if err != nil {
		return
	}
	return g.Do(request)
}

//	Construct builds and registers one instance per element of the
//	argument vectors.
func (g *Gateway) Construct(typeName string, args ...interface{}) (interface{}, error) {
	return g.construct(wire.ConstructCode, typeName, args)
}

func (g *Gateway) ConstructArray(typeName string, dims ...int) (interface{}, error) {
	args := make([]interface{}, len(dims))
	for i, d := range dims {
		args[i] = d
	}
	return g.construct(wire.ConstructArrayCode, typeName, args)
}

//	ConstructNull registers a typed absent value, or a typed absent array
//	when dims are given.
func (g *Gateway) ConstructNull(typeName string, dims ...int) (interface{}, error) {
	if len(dims) == 0 {
		return g.construct(wire.ConstructNullCode, typeName, nil)
	}
	args := make([]interface{}, len(dims))
	for i, d := range dims {
		args[i] = d
	}
	return g.construct(wire.ConstructNullArrayCode, typeName, args)
}

func (g *Gateway) Invoke(target interface{}, method string, args ...interface{}) (v interface{}, err error) {
	targetToken, err := encodeTarget(target)
	if err != nil {
		return
	}
	request, err := g.request(wire.MethodCode, []string{targetToken, method}, args)
	if err != nil {
		return
	}
	return g.Do(request)
}

func (g *Gateway) GetField(target interface{}, name string) (v interface{}, err error) {
	targetToken, err := encodeTarget(target)
	if err != nil {
		return
	}
	return g.Do(wire.NewRequest(wire.FieldCode, targetToken, name))
}

func (g *Gateway) SetField(target interface{}, name string, value interface{}) (err error) {
	targetToken, err := encodeTarget(target)
	if err != nil {
		return
	}
	request, err := g.request(wire.FieldCode, []string{targetToken, name}, []interface{}{value})
	if err != nil {
		return
	}
	_, err = g.Do(request)
	return
}

//	Release drops one registration per reference.
func (g *Gateway) Release(refs ...wire.Reference) (err error) {
	if len(refs) == 0 {
		return
	}
	handles := make([]wire.Handle, len(refs))
	for i, ref := range refs {
		handles[i] = ref.Handle
	}
	_, err = g.housekeeping(wire.NewRequest(wire.FlushCode, wire.EncodeHandles(handles...)))
	return
}

//	Size is the number of live registry slots on the server.
func (g *Gateway) Size() (n int, err error) {
	v, err := g.housekeeping(wire.SizeCode)
	if err != nil {
		return
	}
	list, ok := v.(wire.List)
	if ok && len(list) == 1 {
		if size, isInt := list[0].(int64); isInt {
			n = int(size)
			return
		}
	}
	err = Errorf(ProtocolFormatError, "unexpected size reply %v", v)
	return
}

//	Members lists the methods and fields of typeName. Replies are cached
//	since the catalog does not change while a server runs.
func (g *Gateway) Members(typeName string) (m Members, err error) {
	if cached, ok := g.members.Get(typeName); ok {
		m = cached.(Members)
		return
	}
	v, err := g.Do(wire.NewRequest(wire.ClassInfoCode, typeName))
	if err != nil {
		return
	}
	list, _ := v.(wire.List)
	if s, ok := v.(string); ok {
		list = wire.List{s}
	}
	names := &m.Methods
	for _, elem := range list {
		name, ok := elem.(string)
		if !ok {
			err = Errorf(ProtocolFormatError, "unexpected member name %v", elem)
			return
		}
		if name == wire.EndOfMethods {
			names = &m.Fields
			continue
		}
		*names = append(*names, name)
	}
	g.members.Add(typeName, m)
	return
}

//	ServerVersion asks the server for its release and checks it against
//	this build.
func (g *Gateway) ServerVersion() (v string, compatible bool, err error) {
	reply, err := g.Do(wire.VersionCode)
	if err != nil {
		return
	}
	v, ok := reply.(string)
	if !ok {
		err = Errorf(ProtocolFormatError, "unexpected version reply %v", reply)
		return
	}
	compatible = version.IsCompatible(v)
	return
}

//	Ping checks that a call port accepts the key, then hangs up.
func (g *Gateway) Ping() (err error) {
	c, err := Connect(g.callAddr(), g.key, g.timeoutSeconds, g.opts...)
	if err != nil {
		return
	}
	return c.Close()
}
