package server

import (
	"context"

	"hostgate.io/hg/common/socket"
	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/wire"
)

type worker struct {
	id     int
	queue  *connQueue
	server *Server
}

func (w *worker) run() {
	defer w.server.wg.Done()
	for {
		conn, ok := w.queue.Take()
		if !ok {
			w.server.log.Debug("worker", w.id, "stopped")
			return
		}
		RecoverToLog(func() {
			w.serve(conn)
		}, w.server.log)
		conn.Close()
	}
}

//	serve answers the single request of conn: the payload followed by
//	ClosingConnection, or the error token alone.
func (w *worker) serve(conn *socket.Conn) {
	s := w.server
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	s.assignments.assign(w.id, conn, cancel)
	defer s.assignments.release(w.id)

	request, err := conn.ReadMessage()
	if err != nil {
		s.log.Debug("worker", w.id, "read error:", err.Error())
		return
	}
	reply, err := s.env.Process(ctx, request)
	if err != nil {
		s.log.Info("worker", w.id, "request failed:", err.Error())
		conn.WriteMessage(wire.EncodeError(err))
		return
	}
	err = conn.WriteMessage(reply)
	if err != nil {
		s.log.Debug("worker", w.id, "write error:", err.Error())
		return
	}
	conn.WriteMessage(socket.ClosingConnection)
}
