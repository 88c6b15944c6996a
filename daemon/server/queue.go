package server

import (
	"sync"

	"hostgate.io/hg/common/socket"
)

//	connQueue hands handshaken connections from a receiver to its workers.
//	It is unbounded unless limit is positive.
type connQueue struct {
	mutex    sync.Mutex
	notEmpty *sync.Cond
	conns    []*socket.Conn
	limit    int
	closed   bool
}

func newConnQueue(limit int) *connQueue {
	q := &connQueue{limit: limit}
	q.notEmpty = sync.NewCond(&q.mutex)
	return q
}

func (q *connQueue) full() bool {
	return q.limit > 0 && len(q.conns) >= q.limit
}

func (q *connQueue) Full() bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.full()
}

//	Offer queues conn unless the queue is closed or full.
func (q *connQueue) Offer(conn *socket.Conn) bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if q.closed || q.full() {
		return false
	}
	q.conns = append(q.conns, conn)
	q.notEmpty.Signal()
	return true
}

//	Take blocks until a connection is available. ok is false once the queue
//	is closed.
func (q *connQueue) Take() (conn *socket.Conn, ok bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	for len(q.conns) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.closed {
		return
	}
	conn = q.conns[0]
	q.conns[0] = nil
	q.conns = q.conns[1:]
	ok = true
	return
}

//	Close wakes every waiting worker and returns the connections nobody will
//	serve.
func (q *connQueue) Close() (pending []*socket.Conn) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.closed = true
	pending, q.conns = q.conns, nil
	q.notEmpty.Broadcast()
	return
}

func (q *connQueue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.conns)
}
