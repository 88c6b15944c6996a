package server

import (
	"errors"
	"net"
	"time"

	"hostgate.io/hg/common/socket"
	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/wire"
)

var ErrAdminDisabled = Errorf(IllegalUseError, "this command is disabled on public servers")

type backdoor struct {
	listener net.Listener
	server   *Server
	done     chan struct{}
}

func (s *Server) newBackdoor(listener net.Listener) *backdoor {
	return &backdoor{
		listener: listener,
		server:   s,
		done:     make(chan struct{}),
	}
}

func (b *backdoor) Port() int {
	return socket.PortOf(b.listener)
}

//	run serves one administrative request at a time until a soft exit.
func (b *backdoor) run() {
	defer close(b.done)
	log := b.server.log
	for {
		netConn, err := b.listener.Accept()
		if err != nil {
			if b.server.isShuttingDown() || errors.Is(err, net.ErrClosed) {
				log.Info("backdoor shut down")
				return
			}
			log.Error("backdoor accept error:", err.Error())
			time.Sleep(acceptBackoff)
			continue
		}
		exit := false
		RecoverToLog(func() {
			exit = b.handle(socket.NewConn(netConn))
		}, log)
		if exit {
			b.listener.Close()
			log.Notice("backdoor exited")
			return
		}
	}
}

func (b *backdoor) handle(conn *socket.Conn) (exit bool) {
	defer conn.Close()
	s := b.server
	if !s.handshake(conn) {
		return
	}
	conn.SetReadDeadline(time.Now().Add(s.timeouts.Handshake))
	request, err := conn.ReadMessage()
	if err != nil {
		s.log.Debug("backdoor read error:", err.Error())
		return
	}
	conn.SetReadDeadline(time.Time{})

	switch request {
	case wire.EmergencyShutdown:
		if !s.IsPrivate() {
			conn.WriteMessage(wire.EncodeError(ErrAdminDisabled))
			return
		}
		s.log.Critical("emergency shutdown requested by", conn.RemoteIP())
		conn.WriteMessage(socket.Done)
		s.exit(1)
		exit = true
	case wire.SoftExit:
		if !s.IsPrivate() && !s.isShuttingDown() {
			conn.WriteMessage(wire.EncodeError(ErrAdminDisabled))
			return
		}
		conn.WriteMessage(socket.Done)
		exit = true
	case wire.Interrupt:
		n := s.assignments.interrupt(conn.RemoteIP())
		s.log.Notice("interrupted", n, "calls from", conn.RemoteIP())
		conn.WriteMessage(socket.Done)
	default:
		conn.WriteMessage(wire.EncodeError(Errorf(ProtocolFormatError, "%s: %q", ErrUnknownRequest.Message, request)))
	}
	return
}

//	softExit asks the backdoor to stop through its own port, and closes
//	the listener if that does not work within timeout.
func (b *backdoor) softExit(key int, timeout time.Duration) {
	select {
	case <-b.done:
		return
	default:
	}
	err := b.selfConnect(key, timeout)
	if err != nil {
		b.server.log.Warning("backdoor soft exit failed:", err.Error())
	}
	select {
	case <-b.done:
	case <-time.After(timeout):
		b.listener.Close()
		<-b.done
	}
}

func (b *backdoor) selfConnect(key int, timeout time.Duration) (err error) {
	conn, err := socket.Dial(socket.Address("127.0.0.1", b.Port()), timeout)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))
	err = conn.ClientHandshake(key, socket.DefaultEncoding)
	if err != nil {
		return
	}
	err = conn.WriteMessage(wire.SoftExit)
	if err != nil {
		return
	}
	reply, err := conn.ReadMessage()
	if err != nil {
		return
	}
	_, err = wire.Decode(reply)
	if reply == socket.Done {
		err = nil
	}
	return
}
