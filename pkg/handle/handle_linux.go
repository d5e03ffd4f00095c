//go:build linux

package handle

// X11 window ids are plain integers; the server validates them on use.
func resolvePlatform(h uint64) (NativeWindow, error) {
	return NativeWindow{Kind: KindXlib, Handle: uintptr(h)}, nil
}
