package server

import (
	"context"
	"sync"

	"hostgate.io/hg/common/socket"
)

type assignment struct {
	ip     string
	conn   *socket.Conn
	cancel context.CancelFunc
}

//	assignments records which peer each worker is serving while a call is
//	in flight.
type assignments struct {
	sync.Mutex
	byWorker map[int]assignment
}

func newAssignments() *assignments {
	return &assignments{byWorker: map[int]assignment{}}
}

func (a *assignments) assign(worker int, conn *socket.Conn, cancel context.CancelFunc) {
	a.Lock()
	defer a.Unlock()
	a.byWorker[worker] = assignment{ip: conn.RemoteIP(), conn: conn, cancel: cancel}
}

func (a *assignments) release(worker int) {
	a.Lock()
	defer a.Unlock()
	delete(a.byWorker, worker)
}

//	interrupt cancels every call served for ip and returns how many there
//	were.
func (a *assignments) interrupt(ip string) (n int) {
	a.Lock()
	defer a.Unlock()
	for _, current := range a.byWorker {
		if current.ip == ip {
			current.cancel()
			n++
		}
	}
	return
}

//	abort cancels every in-flight call and closes its connection so that
//	workers blocked on a read return.
func (a *assignments) abort() {
	a.Lock()
	defer a.Unlock()
	for _, current := range a.byWorker {
		current.cancel()
		current.conn.Close()
	}
}

func (a *assignments) Len() int {
	a.Lock()
	defer a.Unlock()
	return len(a.byWorker)
}
