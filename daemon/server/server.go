//	Package server runs the gateway daemon: one receiver and worker pool per
//	call port, a housekeeping pool, and the administrative backdoor.
package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/op/go-logging"

	"hostgate.io/hg/common/config"
	"hostgate.io/hg/common/socket"
	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/version"
	"hostgate.io/hg/daemon/catalog"
	"hostgate.io/hg/daemon/dispatch"
	"hostgate.io/hg/daemon/registry"
)

//	Worker ids are pool*1000+n; the housekeeping pool is pool 99.
const (
	workerIDBase       = 1000
	housekeepingPoolID = 99
)

const acceptBackoff = 50 * time.Millisecond

type Server struct {
	cfg         config.Config
	log         *logging.Logger
	env         *dispatch.Environment
	timeouts    Timeouts
	exit        func(code int)
	assignments *assignments

	receivers    []*receiver
	housekeeping *receiver
	backdoor     *backdoor

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started      int32
	shuttingDown int32
	shutdownOnce sync.Once
	done         chan struct{}
}

type Option func(s *Server)

//	WithExit replaces os.Exit for emergency shutdowns.
func WithExit(exit func(code int)) Option {
	return func(s *Server) {
		s.exit = exit
	}
}

func WithEnvironment(env *dispatch.Environment) Option {
	return func(s *Server) {
		s.env = env
	}
}

func WithTimeouts(timeouts Timeouts) Option {
	return func(s *Server) {
		s.timeouts = timeouts
	}
}

//	New validates cfg and binds every port. Nothing is served before Start.
func New(cfg config.Config, log *logging.Logger, opts ...Option) (s *Server, err error) {
	err = cfg.Validate()
	if err != nil {
		return
	}
	srv := &Server{
		cfg:         cfg,
		log:         log,
		timeouts:    DefaultTimeouts(),
		exit:        os.Exit,
		assignments: newAssignments(),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.env == nil {
		srv.env = dispatch.New(catalog.New(), registry.New(), log)
	}
	srv.ctx, srv.cancel = context.WithCancel(context.Background())

	var listeners []net.Listener
	defer func() {
		if err != nil {
			for _, l := range listeners {
				l.Close()
			}
		}
	}()
	listen := func(port int) (l net.Listener, err error) {
		l, err = socket.Listen(cfg.ListenHost(), port)
		if err != nil {
			err = fmt.Errorf("failed to listen on port %d: %v", port, err)
			return
		}
		listeners = append(listeners, l)
		return
	}

	for i, port := range cfg.Ports {
		var l net.Listener
		l, err = listen(port)
		if err != nil {
			return
		}
		srv.receivers = append(srv.receivers, srv.newReceiver(fmt.Sprintf("receiver %d", i+1), l, cfg.MaxPending))
	}
	l, err := listen(cfg.HousekeepingPort)
	if err != nil {
		return
	}
	srv.housekeeping = srv.newReceiver("housekeeping receiver", l, cfg.MaxPending)
	l, err = listen(cfg.BackdoorPort)
	if err != nil {
		return
	}
	srv.backdoor = srv.newBackdoor(l)
	s = srv
	return
}

//	Start launches the worker pools before the receivers so that no
//	accepted connection waits on a pool that does not exist yet.
func (s *Server) Start() (err error) {
	if !atomic.CompareAndSwapInt32(&s.started, 0, 1) {
		return fmt.Errorf("server already started")
	}
	for i, r := range s.receivers {
		s.startPool(i+1, r)
	}
	s.startPool(housekeepingPoolID, s.housekeeping)

	for _, r := range append(append([]*receiver{}, s.receivers...), s.housekeeping) {
		s.wg.Add(1)
		go r.run()
	}
	go s.backdoor.run()

	addrs := s.Addrs()
	s.log.Notice("hgd", version.CURRENT_VERSION.String(), "serving on ports", config.FormatPorts(addrs.Ports),
		"housekeeping", addrs.HousekeepingPort, "backdoor", addrs.BackdoorPort)

	if s.IsPrivate() && s.cfg.WorkingDir != "" {
		err = config.InfoPersister{Dir: s.cfg.WorkingDir}.Save(config.ServerInfo{
			Ports:            addrs.Ports,
			BackdoorPort:     addrs.BackdoorPort,
			HousekeepingPort: addrs.HousekeepingPort,
			Key:              s.cfg.Key,
			Version:          version.CURRENT_VERSION.String(),
		})
		if err != nil {
			s.log.Error("failed to write the info file:", err.Error())
		}
	}
	return
}

func (s *Server) startPool(pool int, r *receiver) {
	for j := 1; j <= s.cfg.WorkersPerListener; j++ {
		w := &worker{
			id:     pool*workerIDBase + j,
			queue:  r.queue,
			server: s,
		}
		s.wg.Add(1)
		go w.run()
	}
}

//	handshake greets conn and checks its key within the handshake timeout.
func (s *Server) handshake(conn *socket.Conn) bool {
	conn.SetDeadline(time.Now().Add(s.timeouts.Handshake))
	defer conn.SetDeadline(time.Time{})
	err := conn.WriteMessage(socket.CallAccepted)
	if err != nil {
		return false
	}
	ok, err := conn.ServerHandshake(s.cfg.Key)
	if err != nil {
		s.log.Info("handshake with", conn.RemoteAddr(), "failed:", err.Error())
	} else if !ok {
		s.log.Warning("rejected", conn.RemoteAddr(), "with a wrong key")
	}
	return ok && err == nil
}

//	RequestShutdown stops receiving, aborts in-flight calls and waits for
//	the workers up to the join timeout before the backdoor exits. It is
//	safe to call more than once.
func (s *Server) RequestShutdown() {
	s.shutdownOnce.Do(func() {
		atomic.StoreInt32(&s.shuttingDown, 1)
		s.log.Notice("shutting down")
		for _, r := range s.receivers {
			r.close()
		}
		s.housekeeping.close()
		s.cancel()
		s.assignments.abort()

		joined := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(joined)
		}()
		select {
		case <-joined:
		case <-time.After(s.timeouts.Join):
			s.log.Warning("workers did not stop within", s.timeouts.Join)
		}

		if atomic.LoadInt32(&s.started) == 1 {
			s.backdoor.softExit(s.cfg.Key, s.timeouts.Join)
		} else {
			s.backdoor.listener.Close()
		}
		close(s.done)
	})
}

//	Wait blocks until RequestShutdown has completed.
func (s *Server) Wait() {
	<-s.done
}

//	BackdoorDone is closed once the backdoor stops serving, either through
//	a soft exit or at shutdown.
func (s *Server) BackdoorDone() <-chan struct{} {
	return s.backdoor.done
}

func (s *Server) isShuttingDown() bool {
	return atomic.LoadInt32(&s.shuttingDown) == 1
}

func (s *Server) IsPrivate() bool {
	return s.cfg.IsPrivate()
}

func (s *Server) Environment() *dispatch.Environment {
	return s.env
}

//	Addrs are the ports actually bound.
type Addrs struct {
	Ports            []int
	HousekeepingPort int
	BackdoorPort     int
}

func (s *Server) Addrs() (addrs Addrs) {
	for _, r := range s.receivers {
		addrs.Ports = append(addrs.Ports, r.Port())
	}
	addrs.HousekeepingPort = s.housekeeping.Port()
	addrs.BackdoorPort = s.backdoor.Port()
	return
}

//	InFlight is the number of calls currently being served.
func (s *Server) InFlight() int {
	return s.assignments.Len()
}
