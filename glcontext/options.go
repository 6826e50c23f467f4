// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glcontext

import "github.com/gogpu/headless/internal/egl"

// API selects the client API a context is created for.
type API uint32

const (
	// OpenGL is desktop OpenGL. The gl package loads desktop entry points, so
	// this is the only API the rest of the module renders with.
	OpenGL API = API(egl.OpenGLAPI)
	// OpenGLES is OpenGL ES.
	OpenGLES API = API(egl.OpenGLESAPI)
)

// String returns the EGL name of the API.
func (a API) String() string {
	switch a {
	case OpenGL:
		return "EGL_OPENGL_API"
	case OpenGLES:
		return "EGL_OPENGL_ES_API"
	default:
		return "EGL_UNKNOWN_API"
	}
}

// Option configures a Context during creation.
type Option func(*options)

type options struct {
	width, height  int
	api            API
	device         int
	configAttribs  []int32
	contextAttribs []int32
	major, minor   int32
}

func defaultOptions() options {
	return options{
		width:  1,
		height: 1,
		api:    OpenGL,
		device: 0,
	}
}

// defaultConfigAttribs asks for an RGBA8 pbuffer config with a 24-bit depth
// buffer that can render the selected API.
func defaultConfigAttribs(api API) []int32 {
	renderable := egl.OpenGLBit
	if api == OpenGLES {
		renderable = egl.OpenGLES3Bit
	}
	return []int32{
		egl.SurfaceType, egl.PbufferBit,
		egl.RedSize, 8,
		egl.GreenSize, 8,
		egl.BlueSize, 8,
		egl.AlphaSize, 8,
		egl.DepthSize, 24,
		egl.RenderableType, renderable,
		egl.None,
	}
}

func (o *options) resolvedConfigAttribs() []int32 {
	if o.configAttribs != nil {
		return o.configAttribs
	}
	return defaultConfigAttribs(o.api)
}

func (o *options) resolvedContextAttribs() []int32 {
	if o.contextAttribs != nil {
		return o.contextAttribs
	}
	if o.major == 0 {
		return []int32{egl.None}
	}
	attribs := []int32{
		egl.ContextMajorVersion, o.major,
		egl.ContextMinorVersion, o.minor,
	}
	if o.api == OpenGL && (o.major > 3 || o.major == 3 && o.minor >= 2) {
		attribs = append(attribs, egl.ContextOpenGLProfileMask, egl.ContextOpenGLCoreProfileBit)
	}
	return append(attribs, egl.None)
}

// WithSize sets the pbuffer surface size. Rendering goes into framebuffer
// objects, so the default 1x1 surface is enough for most uses.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.width, o.height = width, height
	}
}

// WithAPI selects the client API. Default: OpenGL.
func WithAPI(api API) Option {
	return func(o *options) {
		o.api = api
	}
}

// WithConfigAttribs replaces the default framebuffer config attributes.
// The list may omit the trailing egl None terminator.
func WithConfigAttribs(attribs []int32) Option {
	return func(o *options) {
		o.configAttribs = attribs
	}
}

// WithContextAttribs replaces the context attributes, overriding
// WithGLVersion.
func WithContextAttribs(attribs []int32) Option {
	return func(o *options) {
		o.contextAttribs = attribs
	}
}

// WithGLVersion requests a specific context version. Desktop GL versions of
// 3.2 and later get a core profile. Zero leaves the choice to the driver.
func WithGLVersion(major, minor int) Option {
	return func(o *options) {
		o.major, o.minor = int32(major), int32(minor)
	}
}

// WithDevice selects the EGL device by index through the device platform,
// which needs no display server. A negative index, or a driver without the
// device extensions, uses the default display.
func WithDevice(index int) Option {
	return func(o *options) {
		o.device = index
	}
}
