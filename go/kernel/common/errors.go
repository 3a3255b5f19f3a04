package common

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errno is a Linux error number.
type Errno int

const (
	EPERM  Errno = 1
	ESRCH  Errno = 3
	EINTR  Errno = 4
	EAGAIN Errno = 11
	EFAULT Errno = 14
	EINVAL Errno = 22
	ENOSYS Errno = 38
)

var errnoNames = map[Errno]string{
	EPERM:  "EPERM",
	ESRCH:  "ESRCH",
	EINTR:  "EINTR",
	EAGAIN: "EAGAIN",
	EFAULT: "EFAULT",
	EINVAL: "EINVAL",
	ENOSYS: "ENOSYS",
}

func (e Errno) Error() string {
	if name, ok := errnoNames[e]; ok {
		return name
	}
	return fmt.Sprintf("errno %d", int(e))
}

// Ret encodes e as a syscall return value.
func (e Errno) Ret() uint64 {
	return uint64(-int64(e))
}

// ErrnoOf finds the Errno behind a possibly wrapped error. Errors that carry
// none are reported as EINVAL.
func ErrnoOf(err error) Errno {
	if e, ok := errors.Cause(err).(Errno); ok {
		return e
	}
	return EINVAL
}

// ErrnoRet converts a syscall error into its return value; nil is 0.
func ErrnoRet(err error) uint64 {
	if err == nil {
		return 0
	}
	return ErrnoOf(err).Ret()
}
