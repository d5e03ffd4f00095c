//go:build !linux

package dispatch

func osThreadID() (uint64, bool) {
	return 0, false
}
