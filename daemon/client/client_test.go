package client

import (
	"errors"
	"net"
	"testing"
	"time"

	"hostgate.io/hg/common/config"
	"hostgate.io/hg/common/socket"
	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/wire"
)

const testKey = 77

//	scriptedServer handshakes each connection and hands it to script.
func scriptedServer(t *testing.T, script func(conn *socket.Conn)) (addr string) {
	listener, err := socket.Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { listener.Close() })
	go func() {
		for {
			netConn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				conn := socket.NewConn(netConn)
				defer conn.Close()
				conn.WriteMessage(socket.CallAccepted)
				if ok, _ := conn.ServerHandshake(testKey); ok {
					script(conn)
				}
			}()
		}
	}()
	return socket.Address("127.0.0.1", socket.PortOf(listener))
}

func TestCallReadsPayloadAndClosing(t *testing.T) {
	requests := make(chan string, 1)
	addr := scriptedServer(t, func(conn *socket.Conn) {
		request, _ := conn.ReadMessage()
		requests <- request
		conn.WriteMessage("GL/;in1/,chdé/,")
		conn.WriteMessage(socket.ClosingConnection)
	})
	c, err := Connect(addr, testKey, 5, WithEncoding(socket.Latin1))
	if err != nil {
		t.Fatal(err)
	}
	if c.Encoding().Name != socket.Latin1.Name {
		t.Fatalf("negotiated %s", c.Encoding().Name)
	}
	v, err := c.Call(wire.SizeCode)
	if err != nil {
		t.Fatal(err)
	}
	list, ok := v.(wire.List)
	if !ok || len(list) != 2 || list[1] != "dé" {
		t.Fatalf("decoded %#v", v)
	}
	if got := <-requests; got != wire.SizeCode {
		t.Fatalf("server read %q", got)
	}
	if _, err = c.Call(wire.SizeCode); !errors.Is(err, ErrAlreadyUsed) {
		t.Fatalf("second call on one connection gave %v", err)
	}
}

func TestRemoteError(t *testing.T) {
	addr := scriptedServer(t, func(conn *socket.Conn) {
		conn.ReadMessage()
		conn.WriteMessage(wire.EncodeError(Errorf(ArityOrLengthError, "lengths 2 and 3 differ")))
	})
	c, err := Connect(addr, testKey, 5)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Call("method/;characterx/;Length")
	if !IsKind(err, ArityOrLengthError) {
		t.Fatalf("expected the remote error, got %v", err)
	}
}

func TestCallTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	addr := scriptedServer(t, func(conn *socket.Conn) {
		conn.ReadMessage()
		<-release
	})
	c, err := Connect(addr, testKey, 1)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	_, err = c.Call(wire.VersionCode)
	if !errors.Is(err, ErrCallTooLong) {
		t.Fatalf("expected a timeout, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("timeout not honoured")
	}
}

func TestBypassTimeout(t *testing.T) {
	addr := scriptedServer(t, func(conn *socket.Conn) {
		conn.ReadMessage()
		time.Sleep(1500 * time.Millisecond)
		conn.WriteMessage("chok")
		conn.WriteMessage(socket.ClosingConnection)
	})
	c, err := Connect(addr, testKey, 1)
	if err != nil {
		t.Fatal(err)
	}
	c.SetBypassTimeout(true)
	v, err := c.Call(wire.VersionCode)
	if err != nil || v != "ok" {
		t.Fatalf("got %v, %v", v, err)
	}
}

func TestConnectionFailures(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := listener.Addr().String()
	listener.Close()
	_, err = Connect(addr, testKey, 5)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("expected a connection failure, got %v", err)
	}

	addr = scriptedServer(t, func(conn *socket.Conn) {
		conn.ReadMessage()
	})
	c, err := Connect(addr, testKey, 5)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Call(wire.VersionCode)
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected a connection error, got %v", err)
	}
}

func TestCloseAnnouncesItself(t *testing.T) {
	requests := make(chan string, 1)
	addr := scriptedServer(t, func(conn *socket.Conn) {
		request, _ := conn.ReadMessage()
		requests <- request
	})
	c, err := Connect(addr, testKey, 5)
	if err != nil {
		t.Fatal(err)
	}
	c.Close()
	if got := <-requests; got != wire.CloseConnection {
		t.Fatalf("server read %q", got)
	}
}

func TestGatewayMembersAreCached(t *testing.T) {
	calls := make(chan string, 4)
	addr := scriptedServer(t, func(conn *socket.Conn) {
		request, _ := conn.ReadMessage()
		calls <- request
		conn.WriteMessage("GL/;chAdd/,chSize/,chendOfMethods/,chCount/,")
		conn.WriteMessage(socket.ClosingConnection)
	})
	_, port, _ := net.SplitHostPort(addr)
	ports, _ := config.ParsePorts(port)
	g, err := NewGateway("127.0.0.1", config.ServerInfo{Ports: ports, Key: testKey}, 5)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		m, err := g.Members("List")
		if err != nil {
			t.Fatal(err)
		}
		if len(m.Methods) != 2 || m.Methods[1] != "Size" || len(m.Fields) != 1 || m.Fields[0] != "Count" {
			t.Fatalf("members %+v", m)
		}
	}
	if got := <-calls; got != "cli/;List" {
		t.Fatalf("server read %q", got)
	}
	if len(calls) != 0 {
		t.Fatal("members were not cached")
	}
}

func TestEncodeRequests(t *testing.T) {
	ref := wire.Reference{TypeName: "List", Handle: wire.Handle{Identity: 3, Collider: 1}}
	g := &Gateway{}
	request, err := g.request(wire.MethodCode, []string{"go.objecthashcode3_1", "Add"},
		[]interface{}{Vector{1, 2}, []wire.Reference{ref, ref}, "x"})
	if err != nil {
		t.Fatal(err)
	}
	want := "method/;go.objecthashcode3_1/;Add/;integer1/,2/;go.objecthashcode3_1/,3_1/;characterx"
	if request != want {
		t.Fatalf("got %q, want %q", request, want)
	}
	token, err := encodeTarget(Static("Math"))
	if err != nil || token != "characterMath" {
		t.Fatalf("static target %q, %v", token, err)
	}
	if _, err = encodeArgument(Vector{1, "a"}); err == nil {
		t.Fatal("mixed vector encoded")
	}
}
