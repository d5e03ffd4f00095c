//go:build darwin && cgo

package dispatch

// #include <stdint.h>
import "C"

import "runtime/cgo"

//export embedviewMainTrampoline
func embedviewMainTrampoline(handle C.uintptr_t) {
	h := cgo.Handle(handle)
	fn := h.Value().(func())
	h.Delete()
	fn()
}
