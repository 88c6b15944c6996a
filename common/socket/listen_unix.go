//go:build !windows
// +build !windows

package socket

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func controlListener(network, address string, rawConn syscall.RawConn) (err error) {
	controlErr := rawConn.Control(func(fd uintptr) {
		err = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if controlErr != nil {
		err = controlErr
	}
	return
}
