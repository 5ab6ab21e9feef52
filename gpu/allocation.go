package gpu

import (
	"github.com/pkg/errors"
)

// Allocation is an external buffer mirrored from CPU-side data.
// Set writes data at offset, growing the buffer when data doesn't fit.
type Allocation interface {
	Set(data []byte, offset int) error
	Size() int
}

type Backend interface {
	Allocate(size int) (Allocation, error)
}

// MemoryAllocation keeps the uploaded bytes in process memory.
type MemoryAllocation struct {
	data    []byte
	uploads int
}

func NewMemoryAllocation(size int) *MemoryAllocation {
	return &MemoryAllocation{data: make([]byte, size)}
}

func (a *MemoryAllocation) Set(data []byte, offset int) error {
	if offset < 0 {
		return errors.Errorf("negative offset %d", offset)
	}
	if end := offset + len(data); end > len(a.data) {
		grown := make([]byte, end)
		copy(grown, a.data)
		a.data = grown
	}
	copy(a.data[offset:], data)
	a.uploads++
	return nil
}

func (a *MemoryAllocation) Size() int {
	return len(a.data)
}

// Bytes returns a copy of the current contents.
func (a *MemoryAllocation) Bytes() []byte {
	return append([]byte(nil), a.data...)
}

func (a *MemoryAllocation) Uploads() int {
	return a.uploads
}

type MemoryBackend struct {
	Allocations []*MemoryAllocation
}

func (b *MemoryBackend) Allocate(size int) (Allocation, error) {
	if size < 0 {
		return nil, errors.Errorf("negative size %d", size)
	}
	a := NewMemoryAllocation(size)
	b.Allocations = append(b.Allocations, a)
	return a, nil
}
