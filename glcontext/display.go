// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glcontext

import (
	"sync"

	"github.com/gogpu/headless"
	"github.com/gogpu/headless/internal/egl"
)

// EGL hands out the same display handle for the same device, and terminating
// it invalidates every context created on it. Displays are therefore
// initialized on first use and terminated when the last context lets go.
var displays = struct {
	mu   sync.Mutex
	refs map[egl.Display]int
}{refs: make(map[egl.Display]int)}

func acquireDisplay(device int) (egl.Display, error) {
	d, err := egl.GetDisplay(device)
	if err != nil {
		return 0, err
	}

	displays.mu.Lock()
	defer displays.mu.Unlock()

	if displays.refs[d] == 0 {
		major, minor, err := egl.Initialize(d)
		if err != nil {
			return 0, err
		}
		headless.Logger().Debug("glcontext: display initialized",
			"device", device, "egl", [2]int32{major, minor})
	}
	displays.refs[d]++
	return d, nil
}

func releaseDisplay(d egl.Display) error {
	displays.mu.Lock()
	defer displays.mu.Unlock()

	n := displays.refs[d]
	switch {
	case n > 1:
		displays.refs[d] = n - 1
		return nil
	case n == 1:
		delete(displays.refs, d)
		return egl.Terminate(d)
	default:
		return nil
	}
}
