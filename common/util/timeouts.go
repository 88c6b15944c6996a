package util

import (
	"time"
)

type Timeouts struct {
	Connect   time.Duration
	Handshake time.Duration
	Join      time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Connect:   5 * time.Second,
		Handshake: 10 * time.Second,
		Join:      5 * time.Second,
	}
}
