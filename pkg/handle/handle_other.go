//go:build !linux && !windows && !(darwin && cgo)

package handle

import "github.com/go-drift/embedview/pkg/errors"

func resolvePlatform(uint64) (NativeWindow, error) {
	return NativeWindow{}, errors.UnsupportedPlatform("handle.Resolve")
}
