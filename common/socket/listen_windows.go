package socket

import (
	"syscall"
)

func controlListener(network, address string, rawConn syscall.RawConn) error {
	return nil
}
