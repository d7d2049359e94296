//go:build unix

package sheet

import "syscall"

var lockedErrnos = []error{syscall.EBUSY, syscall.ETXTBSY}
