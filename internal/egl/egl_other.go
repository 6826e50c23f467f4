// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !linux || !cgo

package egl

func GetDisplay(int) (Display, error)              { return 0, ErrUnsupported }
func Initialize(Display) (int32, int32, error)     { return 0, 0, ErrUnsupported }
func Terminate(Display) error                      { return ErrUnsupported }
func BindAPI(uint32) error                         { return ErrUnsupported }
func ChooseConfig(Display, []int32) (Config, int, error) {
	return 0, 0, ErrUnsupported
}
func CreatePbufferSurface(Display, Config, int, int) (Surface, error) {
	return nil, ErrUnsupported
}
func CreateContext(Display, Config, []int32) (Context, error) { return nil, ErrUnsupported }
func MakeCurrent(Display, Surface, Context) error             { return ErrUnsupported }
func ReleaseCurrent(Display) error                            { return ErrUnsupported }
func CurrentContext() Context                                 { return nil }
func DestroyContext(Display, Context) error                   { return ErrUnsupported }
func DestroySurface(Display, Surface) error                   { return ErrUnsupported }
