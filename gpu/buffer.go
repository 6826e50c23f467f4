// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
)

// StorageBuffer is a shader storage buffer object.
type StorageBuffer struct {
	handle uint32
	size   int
}

// NewStorageBuffer generates a buffer object with no data store.
func NewStorageBuffer() (*StorageBuffer, error) {
	var handle uint32
	gl.GenBuffers(1, &handle)
	if err := Check("glGenBuffers"); err != nil {
		return nil, err
	}
	return &StorageBuffer{handle: handle}, nil
}

// Upload replaces the whole data store of b with data.
func Upload[E Element](b *StorageBuffer, data []E) error {
	if b.handle == 0 {
		return ErrDeleted
	}
	size := len(data) * int(unsafe.Sizeof(*new(E)))
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = gl.Ptr(data)
	}

	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.handle)
	if err := Check("glBindBuffer"); err != nil {
		return err
	}
	defer gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)

	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, ptr, gl.DYNAMIC_COPY)
	if err := Check("glBufferData"); err != nil {
		return err
	}
	b.size = size
	return nil
}

// BindBufferBase binds b to the shader storage binding point slot.
func (b *StorageBuffer) BindBufferBase(slot uint32) error {
	if b.handle == 0 {
		return ErrDeleted
	}
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, slot, b.handle)
	return Check("glBindBufferBase")
}

// Handle returns the GL buffer name, 0 after Delete.
func (b *StorageBuffer) Handle() uint32 { return b.handle }

// Size returns the size in bytes of the last upload.
func (b *StorageBuffer) Size() int { return b.size }

// Delete deletes the buffer object. It is safe to call more than once.
func (b *StorageBuffer) Delete() {
	if b.handle == 0 {
		return
	}
	gl.DeleteBuffers(1, &b.handle)
	b.handle, b.size = 0, 0
}
