package backend

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

type ErrorKind uint8

const (
	KindBackend ErrorKind = iota
	KindIO
	KindUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindUnsupported:
		return "unsupported"
	default:
		return "backend"
	}
}

// Error is the error returned by every Repository method.
type Error struct {
	Kind ErrorKind
	Op   string
	// Capability names the missing feature for KindUnsupported.
	Capability string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindUnsupported:
		return fmt.Sprintf("%s: unsupported: %s", e.Op, e.Capability)
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Unsupported reports that the backend cannot provide capability.
func Unsupported(op, capability string) error {
	return &Error{Kind: KindUnsupported, Op: op, Capability: capability}
}

func IsUnsupported(err error) bool {
	return KindOf(err) == KindUnsupported
}

// KindOf classifies err. Errors that did not come from a backend are treated
// as IO failures when they wrap a filesystem or exec error.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	var pathErr *fs.PathError
	var execErr *exec.Error
	if errors.As(err, &pathErr) || errors.As(err, &execErr) {
		return KindIO
	}
	return KindBackend
}

func ioError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindIO, Op: op, Err: err}
}

func backendError(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	return &Error{Kind: KindOf(err), Op: op, Err: err}
}
