package socket

import (
	"context"
	"net"
)

//	Listen binds a TCP listener. An empty host binds every interface.
func Listen(host string, port int) (listener net.Listener, err error) {
	lc := net.ListenConfig{Control: controlListener}
	listener, err = lc.Listen(context.Background(), "tcp", Address(host, port))
	return
}

func PortOf(listener net.Listener) int {
	if addr, ok := listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}
