//go:build !unix && !windows

package sheet

var lockedErrnos []error
