// Package glbuffer backs gpu allocations with OpenGL uniform buffers.
// All calls must happen on the goroutine that owns the GL context.
package glbuffer

import (
	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/pkg/errors"

	"github.com/mogaika/scenegraph/gpu"
	"github.com/mogaika/scenegraph/gpu/rendercontext"
)

type glAPI interface {
	genBuffer() uint32
	deleteBuffer(id uint32)
	bufferData(id uint32, size int)
	bufferSubData(id uint32, offset int, data []byte)
	bindRange(binding, id uint32, size int)
}

// Backend allocates uniform buffers bound to a fixed binding point.
type Backend struct {
	Binding uint32

	api   glAPI
	store *rendercontext.Store
}

func NewBackend(binding uint32) *Backend {
	return &Backend{Binding: binding, api: glCalls{}}
}

func (b *Backend) Allocate(size int) (gpu.Allocation, error) {
	if size <= 0 {
		return nil, errors.Errorf("invalid uniform buffer size %d", size)
	}
	return &UniformBuffer{backend: b, size: size}, nil
}

// UniformBuffer is created on first Set and released when a frame
// passes without it being used. A copy of everything written is kept so
// a released buffer comes back with its contents.
type UniformBuffer struct {
	backend *Backend

	size     int
	data     []byte
	glInited bool
	glBuffer uint32
}

func (ub *UniformBuffer) use() {
	if ub.backend.store != nil {
		ub.backend.store.Use(ub)
	} else {
		rendercontext.Use(ub)
	}
}

func (ub *UniformBuffer) useGL(need int) {
	ub.use()
	if ub.glInited && need <= ub.size {
		return
	}
	if need > ub.size {
		ub.size = need
	}
	api := ub.backend.api
	if ub.glInited {
		api.deleteBuffer(ub.glBuffer)
	}
	ub.glInited = true

	ub.glBuffer = api.genBuffer()
	api.bufferData(ub.glBuffer, ub.size)
	api.bindRange(ub.backend.Binding, ub.glBuffer, ub.size)
	if len(ub.data) != 0 {
		api.bufferSubData(ub.glBuffer, 0, ub.data)
	}
}

func (ub *UniformBuffer) Set(data []byte, offset int) error {
	if offset < 0 {
		return errors.Errorf("negative offset %d", offset)
	}
	end := offset + len(data)
	if end > len(ub.data) {
		ub.data = append(ub.data, make([]byte, end-len(ub.data))...)
	}
	copy(ub.data[offset:], data)

	if !ub.glInited || end > ub.size {
		// recreated from ub.data, which already holds this write
		ub.useGL(end)
		return nil
	}
	ub.use()
	if len(data) != 0 {
		ub.backend.api.bufferSubData(ub.glBuffer, offset, data)
	}
	return nil
}

// Use keeps the buffer for the current frame. Renderers call it before
// drawing, so a compound that stops changing keeps its buffer bound.
func (ub *UniformBuffer) Use() {
	ub.useGL(len(ub.data))
}

// Bytes returns the last written contents.
func (ub *UniformBuffer) Bytes() []byte {
	return ub.data
}

func (ub *UniformBuffer) Size() int {
	return ub.size
}

func (ub *UniformBuffer) ClearTempRenderData() {
	if !ub.glInited {
		return
	}
	ub.glInited = false

	ub.backend.api.deleteBuffer(ub.glBuffer)
	ub.glBuffer = 0
}

type glCalls struct{}

func (glCalls) genBuffer() uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	return id
}

func (glCalls) deleteBuffer(id uint32) {
	gl.DeleteBuffers(1, &id)
}

func (glCalls) bufferData(id uint32, size int) {
	gl.BindBuffer(gl.UNIFORM_BUFFER, id)
	gl.BufferData(gl.UNIFORM_BUFFER, size, nil, gl.STREAM_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

func (glCalls) bufferSubData(id uint32, offset int, data []byte) {
	gl.BindBuffer(gl.UNIFORM_BUFFER, id)
	gl.BufferSubData(gl.UNIFORM_BUFFER, offset, len(data), gl.Ptr(data))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

func (glCalls) bindRange(binding, id uint32, size int) {
	gl.BindBufferRange(gl.UNIFORM_BUFFER, binding, id, 0, size)
}
