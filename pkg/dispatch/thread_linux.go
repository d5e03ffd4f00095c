//go:build linux

package dispatch

import "golang.org/x/sys/unix"

func osThreadID() (uint64, bool) {
	return uint64(unix.Gettid()), true
}
