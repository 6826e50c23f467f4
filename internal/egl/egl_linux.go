// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build linux && cgo

package egl

/*
#cgo LDFLAGS: -lEGL
#define EGL_NO_X11
#define MESA_EGL_NO_X11_HEADERS
#include <EGL/egl.h>
#include <EGL/eglext.h>

#define HEADLESS_MAX_DEVICES 32

// deviceDisplay opens the display of the given EGL device through the
// device platform extension, so no X11 or Wayland server is needed.
static EGLDisplay deviceDisplay(EGLint index) {
	PFNEGLQUERYDEVICESEXTPROC queryDevices =
		(PFNEGLQUERYDEVICESEXTPROC)eglGetProcAddress("eglQueryDevicesEXT");
	PFNEGLGETPLATFORMDISPLAYEXTPROC platformDisplay =
		(PFNEGLGETPLATFORMDISPLAYEXTPROC)eglGetProcAddress("eglGetPlatformDisplayEXT");
	if (queryDevices == NULL || platformDisplay == NULL) {
		return EGL_NO_DISPLAY;
	}
	EGLDeviceEXT devices[HEADLESS_MAX_DEVICES];
	EGLint count = 0;
	if (!queryDevices(HEADLESS_MAX_DEVICES, devices, &count)) {
		return EGL_NO_DISPLAY;
	}
	if (index < 0 || index >= count) {
		return EGL_NO_DISPLAY;
	}
	return platformDisplay(EGL_PLATFORM_DEVICE_EXT, devices[index], NULL);
}

static EGLDisplay defaultDisplay(void) {
	return eglGetDisplay(EGL_DEFAULT_DISPLAY);
}

static EGLBoolean releaseCurrent(EGLDisplay display) {
	return eglMakeCurrent(display, EGL_NO_SURFACE, EGL_NO_SURFACE, EGL_NO_CONTEXT);
}
*/
import "C"

import "unsafe"

// GetDisplay returns the display of EGL device index, or the default display
// when index is negative or the device platform is unavailable. The display
// is not initialized.
func GetDisplay(index int) (Display, error) {
	var d C.EGLDisplay
	if index >= 0 {
		d = C.deviceDisplay(C.EGLint(index))
	}
	if d == 0 {
		d = C.defaultDisplay()
	}
	if d == 0 {
		return 0, newError("eglGetDisplay", int32(C.eglGetError()))
	}
	return Display(uintptr(d)), nil
}

// Initialize initializes d and returns the EGL version it reports.
func Initialize(d Display) (major, minor int32, err error) {
	var maj, min C.EGLint
	if C.eglInitialize(C.EGLDisplay(uintptr(d)), &maj, &min) != C.EGL_TRUE {
		return 0, 0, newError("eglInitialize", int32(C.eglGetError()))
	}
	return int32(maj), int32(min), nil
}

// Terminate releases the resources held by an initialized display.
func Terminate(d Display) error {
	if C.eglTerminate(C.EGLDisplay(uintptr(d))) != C.EGL_TRUE {
		return newError("eglTerminate", int32(C.eglGetError()))
	}
	return nil
}

// BindAPI sets the client API for the calling thread.
func BindAPI(api uint32) error {
	if C.eglBindAPI(C.EGLenum(api)) != C.EGL_TRUE {
		return newError("eglBindAPI", int32(C.eglGetError()))
	}
	return nil
}

// ChooseConfig asks for a single config matching attribs and reports how
// many were returned.
func ChooseConfig(d Display, attribs []int32) (Config, int, error) {
	list := terminated(attribs)
	var cfg C.EGLConfig
	var n C.EGLint
	if C.eglChooseConfig(C.EGLDisplay(uintptr(d)), (*C.EGLint)(unsafe.Pointer(&list[0])), &cfg, 1, &n) != C.EGL_TRUE {
		return 0, 0, newError("eglChooseConfig", int32(C.eglGetError()))
	}
	return Config(uintptr(cfg)), int(n), nil
}

// CreatePbufferSurface creates an off-screen surface of the given size.
func CreatePbufferSurface(d Display, cfg Config, width, height int) (Surface, error) {
	list := []int32{Width, int32(width), Height, int32(height), None}
	s := C.eglCreatePbufferSurface(C.EGLDisplay(uintptr(d)), C.EGLConfig(uintptr(cfg)), (*C.EGLint)(unsafe.Pointer(&list[0])))
	if s == nil {
		return nil, newError("eglCreatePbufferSurface", int32(C.eglGetError()))
	}
	return Surface(s), nil
}

// CreateContext creates a context that shares no objects with others.
func CreateContext(d Display, cfg Config, attribs []int32) (Context, error) {
	list := terminated(attribs)
	c := C.eglCreateContext(C.EGLDisplay(uintptr(d)), C.EGLConfig(uintptr(cfg)), nil, (*C.EGLint)(unsafe.Pointer(&list[0])))
	if c == nil {
		return nil, newError("eglCreateContext", int32(C.eglGetError()))
	}
	return Context(c), nil
}

// MakeCurrent binds ctx to the calling thread with s as draw and read surface.
func MakeCurrent(d Display, s Surface, ctx Context) error {
	if C.eglMakeCurrent(C.EGLDisplay(uintptr(d)), C.EGLSurface(s), C.EGLSurface(s), C.EGLContext(ctx)) != C.EGL_TRUE {
		return newError("eglMakeCurrent", int32(C.eglGetError()))
	}
	return nil
}

// ReleaseCurrent leaves the calling thread without a current context.
func ReleaseCurrent(d Display) error {
	if C.releaseCurrent(C.EGLDisplay(uintptr(d))) != C.EGL_TRUE {
		return newError("eglMakeCurrent", int32(C.eglGetError()))
	}
	return nil
}

// CurrentContext returns the context current on the calling thread, or nil.
func CurrentContext() Context {
	return Context(C.eglGetCurrentContext())
}

// DestroyContext destroys ctx. It must not be current on any thread.
func DestroyContext(d Display, ctx Context) error {
	if C.eglDestroyContext(C.EGLDisplay(uintptr(d)), C.EGLContext(ctx)) != C.EGL_TRUE {
		return newError("eglDestroyContext", int32(C.eglGetError()))
	}
	return nil
}

// DestroySurface destroys s.
func DestroySurface(d Display, s Surface) error {
	if C.eglDestroySurface(C.EGLDisplay(uintptr(d)), C.EGLSurface(s)) != C.EGL_TRUE {
		return newError("eglDestroySurface", int32(C.eglGetError()))
	}
	return nil
}

func terminated(attribs []int32) []int32 {
	if n := len(attribs); n > 0 && attribs[n-1] == None {
		return attribs
	}
	list := make([]int32, 0, len(attribs)+1)
	list = append(list, attribs...)
	return append(list, None)
}
