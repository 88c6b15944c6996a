package socket

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/satori/go.uuid"
	"golang.org/x/text/encoding"
)

//	Conn is one accepted or dialed connection speaking newline framed
//	messages in a negotiated text encoding.
type Conn struct {
	net.Conn
	ID            string
	Authenticated bool

	reader   *bufio.Reader
	mutex    sync.Mutex
	encoding Candidate
	closed   bool
}

func NewConn(conn net.Conn) *Conn {
	return &Conn{
		Conn:     conn,
		ID:       uuid.NewV4().String(),
		reader:   bufio.NewReader(conn),
		encoding: DefaultEncoding,
	}
}

func Dial(addr string, timeout time.Duration) (conn *Conn, err error) {
	netConn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return
	}
	conn = NewConn(netConn)
	return
}

func (c *Conn) Encoding() Candidate {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.encoding
}

func (c *Conn) SetEncoding(candidate Candidate) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.encoding = candidate
}

//	RemoteIP is the peer host without port, used to match interrupt
//	requests against in-flight calls.
func (c *Conn) RemoteIP() string {
	return HostOf(c.RemoteAddr())
}

func HostOf(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

func (c *Conn) readRaw() (raw []byte, err error) {
	raw, err = c.reader.ReadBytes('\n')
	if err != nil {
		return
	}
	raw = raw[:len(raw)-1]
	if n := len(raw); n > 0 && raw[n-1] == '\r' {
		raw = raw[:n-1]
	}
	return
}

func (c *Conn) ReadMessage() (msg string, err error) {
	raw, err := c.readRaw()
	if err != nil {
		return
	}
	decoded, err := c.Encoding().Encoding.NewDecoder().Bytes(raw)
	if err != nil {
		return
	}
	msg = unescape(string(decoded))
	return
}

//	ReadMessageTimeout bounds the wait for the next message; d <= 0 waits
//	forever.
func (c *Conn) ReadMessageTimeout(d time.Duration) (msg string, err error) {
	if d > 0 {
		c.SetReadDeadline(time.Now().Add(d))
		defer c.SetReadDeadline(time.Time{})
	}
	return c.ReadMessage()
}

func (c *Conn) WriteMessage(msg string) (err error) {
	encoder := encoding.ReplaceUnsupported(c.Encoding().Encoding.NewEncoder())
	encoded, err := encoder.String(escape(msg))
	if err != nil {
		return
	}
	_, err = c.Write([]byte(encoded + "\n"))
	return
}

func (c *Conn) Close() (err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	err = c.Conn.Close()
	return
}

var escaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`)

func escape(msg string) string {
	return escaper.Replace(msg)
}

func unescape(msg string) string {
	if !strings.Contains(msg, `\`) {
		return msg
	}
	var sb strings.Builder
	for i := 0; i < len(msg); i++ {
		if msg[i] != '\\' || i == len(msg)-1 {
			sb.WriteByte(msg[i])
			continue
		}
		i++
		switch msg[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		default:
			sb.WriteByte(msg[i])
		}
	}
	return sb.String()
}

func Address(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
