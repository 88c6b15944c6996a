package client

import (
	"errors"
	"io"

	"hostgate.io/hg/common/socket"
	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/wire"
)

const adminTimeoutSeconds = 10

//	Admin sends one administrative command to a backdoor port. An
//	emergency shutdown may end the server before it answers; that is not
//	an error.
func Admin(addr string, key int, command string, opts ...Option) (err error) {
	c, err := Connect(addr, key, adminTimeoutSeconds, opts...)
	if err != nil {
		return
	}
	defer c.conn.Close()
	reply, err := c.exchange(command)
	if err != nil {
		if command == wire.EmergencyShutdown && errors.Is(err, io.EOF) {
			err = nil
		}
		return
	}
	if reply == socket.Done {
		return
	}
	_, err = wire.Decode(reply)
	if err == nil {
		err = Errorf(ProtocolFormatError, "unexpected backdoor reply %q", reply)
	}
	return
}
