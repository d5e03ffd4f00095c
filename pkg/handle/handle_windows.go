//go:build windows

package handle

import (
	"golang.org/x/sys/windows"

	"github.com/go-drift/embedview/pkg/errors"
)

func resolvePlatform(h uint64) (NativeWindow, error) {
	hwnd := windows.HWND(uintptr(h))
	if !windows.IsWindow(hwnd) {
		return NativeWindow{}, errors.InvalidWindowHandle("handle.Resolve")
	}
	return NativeWindow{Kind: KindWin32, Handle: uintptr(h)}, nil
}
