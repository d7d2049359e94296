//go:build windows

package sheet

import "golang.org/x/sys/windows"

// Excel открывает файл без FILE_SHARE_WRITE: rename получает
// sharing violation, а не отказ в доступе.
var lockedErrnos = []error{windows.ERROR_SHARING_VIOLATION, windows.ERROR_LOCK_VIOLATION}
