package util

import (
	"fmt"
	"runtime/debug"

	"github.com/op/go-logging"
)

func RecoverToLog(f func(), log *logging.Logger) {
	defer func() {
		if x := recover(); x != nil {
			if log != nil {
				log.Error(fmt.Sprintf("run time panic: %v", x))
				log.Error(string(debug.Stack()))
			}
		}
	}()
	f()
}

//	RecoverToError runs f and turns a panic into an InvocationError.
func RecoverToError(f func() error) (err error) {
	defer func() {
		if x := recover(); x != nil {
			err = Errorf(InvocationError, "panic during invocation: %v", x)
		}
	}()
	err = f()
	return
}
