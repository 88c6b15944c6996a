package socket

import (
	"strconv"

	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/wire"
)

//	server replies
const (
	IAmBusyCallBackLater = "IAmBusyCallBackLater"
	CallAccepted         = "CallAccepted"
	ClosingConnection    = "ClosingConnection"
	Done                 = "Done"
	SecurityChecked      = "SecurityChecked"
	SecurityFailed       = "SecurityFailed"
	EncodingIdentified   = "EncodingIdentified"
	EncodingUnidentified = "EncodingUnidentified"
)

//	ServerHandshake checks the shared key and negotiates the text encoding.
//	The caller has already sent CallAccepted. It returns false when the
//	connection must not be served.
func (c *Conn) ServerHandshake(key int) (ok bool, err error) {
	msg, err := c.ReadMessage()
	if err != nil {
		return
	}
	clientKey, convErr := strconv.Atoi(msg)
	if convErr != nil {
		err = c.WriteMessage(wire.EncodeError(Wrap(ProtocolFormatError, "the key must be an integer", convErr)))
		return
	}
	if clientKey != key {
		err = c.WriteMessage(SecurityFailed)
		return
	}
	err = c.WriteMessage(SecurityChecked)
	if err != nil {
		return
	}
	c.Authenticated = true

	raw, err := c.readRaw()
	if err != nil {
		return
	}
	candidate, identified := DetectEncoding(raw, Candidates)
	c.SetEncoding(candidate)
	if identified {
		err = c.WriteMessage(EncodingIdentified)
	} else {
		err = c.WriteMessage(EncodingUnidentified)
	}
	if err != nil {
		return
	}
	ok = true
	return
}

//	ClientHandshake is the client half: wait for acceptance, present the
//	key and announce the encoding through the probe.
func (c *Conn) ClientHandshake(key int, candidate Candidate) (err error) {
	reply, err := c.ReadMessage()
	if err != nil {
		return Wrap(TransportError, ErrConnection.Message, err)
	}
	switch reply {
	case CallAccepted:
	case IAmBusyCallBackLater:
		return ErrServerBusy
	default:
		return Errorf(ProtocolFormatError, "unexpected server greeting %q", reply)
	}

	err = c.WriteMessage(strconv.Itoa(key))
	if err != nil {
		return Wrap(TransportError, ErrConnection.Message, err)
	}
	reply, err = c.ReadMessage()
	if err != nil {
		return Wrap(TransportError, ErrConnection.Message, err)
	}
	switch reply {
	case SecurityChecked:
	case SecurityFailed:
		return ErrSecurityFailed
	default:
		if _, decodeErr := wire.Decode(reply); decodeErr != nil {
			return decodeErr
		}
		return Errorf(ProtocolFormatError, "unexpected security reply %q", reply)
	}
	c.Authenticated = true

	c.SetEncoding(candidate)
	err = c.WriteMessage(EncodingProbe)
	if err != nil {
		return Wrap(TransportError, ErrConnection.Message, err)
	}
	reply, err = c.ReadMessage()
	if err != nil {
		return Wrap(TransportError, ErrConnection.Message, err)
	}
	if reply == EncodingUnidentified {
		c.SetEncoding(DefaultEncoding)
	}
	return
}
