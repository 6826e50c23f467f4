// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package cleanup provides a stack of deferred release actions for
// multi-step native construction.
//
// Each native object pushes its release action as soon as it exists. If
// construction returns early, Run executes the pushed actions in reverse
// order. On full success the constructor calls Release, which drops the
// actions without running them, and ownership moves to the built object.
//
//	var undo cleanup.Stack
//	defer undo.Run()
//
//	color := gl.GenRenderbuffer()
//	undo.Push(func() { gl.DeleteRenderbuffers(1, &color) })
//	...
//	undo.Release()
//	return target, nil
package cleanup

// Stack is a LIFO list of release actions. The zero value is ready to use.
// A Stack is owned by a single goroutine.
type Stack struct {
	actions []func()
}

// Push adds a release action on top of the stack. Nil actions are ignored.
func (s *Stack) Push(fn func()) {
	if fn == nil {
		return
	}
	s.actions = append(s.actions, fn)
}

// Run executes all pending actions, most recent first, and empties the stack.
// Running an empty or released stack does nothing.
func (s *Stack) Run() {
	for i := len(s.actions) - 1; i >= 0; i-- {
		fn := s.actions[i]
		s.actions[i] = nil
		fn()
	}
	s.actions = s.actions[:0]
}

// Release drops all pending actions without running them.
func (s *Stack) Release() {
	clear(s.actions)
	s.actions = s.actions[:0]
}

// Len returns the number of pending actions.
func (s *Stack) Len() int {
	return len(s.actions)
}
