package server

import (
	"errors"
	"net"
	"time"

	"hostgate.io/hg/common/socket"
	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/wire"
)

//	receiver accepts connections on one port, handshakes them and queues
//	them for its pool.
type receiver struct {
	name     string
	listener net.Listener
	queue    *connQueue
	server   *Server
}

func (s *Server) newReceiver(name string, listener net.Listener, limit int) *receiver {
	return &receiver{
		name:     name,
		listener: listener,
		queue:    newConnQueue(limit),
		server:   s,
	}
}

func (r *receiver) Port() int {
	return socket.PortOf(r.listener)
}

func (r *receiver) run() {
	defer r.server.wg.Done()
	log := r.server.log
	for {
		netConn, err := r.listener.Accept()
		if err != nil {
			if r.server.isShuttingDown() || errors.Is(err, net.ErrClosed) {
				log.Info(r.name + " shut down")
				return
			}
			log.Error(r.name+" accept error:", err.Error())
			time.Sleep(acceptBackoff)
			continue
		}
		go RecoverToLog(func() {
			r.admit(socket.NewConn(netConn))
		}, log)
	}
}

//	admit runs the handshake and queues conn, or turns it away when the
//	queue is full.
func (r *receiver) admit(conn *socket.Conn) {
	log := r.server.log
	if r.queue.Full() {
		log.Warning(r.name+" is busy, rejecting", conn.RemoteAddr())
		conn.WriteMessage(socket.IAmBusyCallBackLater)
		conn.Close()
		return
	}
	if !r.server.handshake(conn) {
		conn.Close()
		return
	}
	if !r.queue.Offer(conn) {
		conn.WriteMessage(wire.EncodeError(ErrServerBusy))
		conn.Close()
		return
	}
	log.Debug(r.name+" queued session", conn.ID)
}

//	close stops accepting and drops the connections still waiting.
func (r *receiver) close() {
	r.listener.Close()
	for _, conn := range r.queue.Close() {
		conn.Close()
	}
}
