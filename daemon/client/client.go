//	Package client speaks the hostgate protocol from the hosted side. Every
//	Client carries exactly one request.
package client

import (
	"errors"
	"net"
	"strings"
	"time"

	"hostgate.io/hg/common/socket"
	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/wire"
)

//	How long to wait for the ClosingConnection that follows a payload.
const closingWait = time.Second

var ErrAlreadyUsed = Errorf(IllegalUseError, "a connection carries a single request")

type options struct {
	encoding socket.Candidate
	timeouts Timeouts
}

type Option func(o *options)

func WithEncoding(candidate socket.Candidate) Option {
	return func(o *options) {
		o.encoding = candidate
	}
}

func WithTimeouts(timeouts Timeouts) Option {
	return func(o *options) {
		o.timeouts = timeouts
	}
}

type Client struct {
	conn          *socket.Conn
	timeout       time.Duration
	bypassTimeout bool
	used          bool
}

//	Connect dials addr and completes the handshake. timeoutSeconds bounds
//	the wait for a reply; zero or less waits forever.
func Connect(addr string, key int, timeoutSeconds int, opts ...Option) (c *Client, err error) {
	o := options{
		encoding: socket.DefaultEncoding,
		timeouts: DefaultTimeouts(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	conn, err := socket.Dial(addr, o.timeouts.Connect)
	if err != nil {
		err = Wrap(TransportError, ErrConnectionFailed.Message, err)
		return
	}
	conn.SetDeadline(time.Now().Add(o.timeouts.Handshake))
	err = conn.ClientHandshake(key, o.encoding)
	if err != nil {
		conn.Close()
		return
	}
	conn.SetDeadline(time.Time{})
	c = &Client{
		conn:    conn,
		timeout: time.Duration(timeoutSeconds) * time.Second,
	}
	return
}

//	SetBypassTimeout lifts the reply timeout for long running calls.
func (c *Client) SetBypassTimeout(bypass bool) {
	c.bypassTimeout = bypass
}

func (c *Client) Encoding() socket.Candidate {
	return c.conn.Encoding()
}

//	exchange sends request and reads a single reply line.
func (c *Client) exchange(request string) (reply string, err error) {
	if c.used {
		err = ErrAlreadyUsed
		return
	}
	c.used = true
	err = c.conn.WriteMessage(request)
	if err != nil {
		c.conn.Close()
		err = Wrap(TransportError, ErrConnection.Message, err)
		return
	}
	var wait time.Duration
	if !c.bypassTimeout {
		wait = c.timeout
	}
	reply, err = c.conn.ReadMessageTimeout(wait)
	if err != nil {
		c.conn.Close()
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			err = Wrap(TransportError, ErrCallTooLong.Message, err)
		} else {
			err = Wrap(TransportError, ErrConnection.Message, err)
		}
	}
	return
}

//	CallRaw returns the reply token of request without decoding it.
func (c *Client) CallRaw(request string) (reply string, err error) {
	reply, err = c.exchange(request)
	if err != nil {
		return
	}
	defer c.conn.Close()
	if !strings.HasPrefix(reply, wire.ErrorTag+wire.MainSplitter) {
		c.conn.ReadMessageTimeout(closingWait)
	}
	return
}

//	Call sends request and decodes the reply. A remote failure comes back
//	as the server's *util.Error.
func (c *Client) Call(request string) (v interface{}, err error) {
	reply, err := c.CallRaw(request)
	if err != nil {
		return
	}
	return wire.Decode(reply)
}

//	Close notifies the server when no request was sent, then closes.
func (c *Client) Close() error {
	if !c.used {
		c.used = true
		c.conn.WriteMessage(wire.CloseConnection)
	}
	return c.conn.Close()
}
