//go:build darwin && cgo

package handle

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -lobjc
#include <objc/runtime.h>
#include <objc/message.h>
#include <stdint.h>
#include <stdlib.h>

static const char *embedview_class_name(uintptr_t obj) {
	return class_getName(object_getClass((id)obj));
}

static int embedview_is_kind_of(uintptr_t obj, const char *name) {
	Class cls = objc_getClass(name);
	if (cls == Nil) {
		return 0;
	}
	return ((BOOL (*)(id, SEL, Class))objc_msgSend)((id)obj, sel_registerName("isKindOfClass:"), cls) ? 1 : 0;
}

static uintptr_t embedview_content_view(uintptr_t window) {
	return (uintptr_t)((id (*)(id, SEL))objc_msgSend)((id)window, sel_registerName("contentView"));
}
*/
import "C"

import "unsafe"

type objcIntrospector struct{}

func (objcIntrospector) ClassName(obj uintptr) string {
	return C.GoString(C.embedview_class_name(C.uintptr_t(obj)))
}

func (objcIntrospector) IsKindOfClass(obj uintptr, class string) bool {
	name := C.CString(class)
	defer C.free(unsafe.Pointer(name))
	return C.embedview_is_kind_of(C.uintptr_t(obj), name) != 0
}

func (objcIntrospector) ContentView(window uintptr) uintptr {
	return uintptr(C.embedview_content_view(C.uintptr_t(window)))
}

func resolvePlatform(h uint64) (NativeWindow, error) {
	return ResolveAppKit(h, objcIntrospector{})
}
