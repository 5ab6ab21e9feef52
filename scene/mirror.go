package scene

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/scenegraph/gpu"
	"github.com/mogaika/scenegraph/utils"
)

const (
	MIRROR_HEADER_SIZE = 12
	MIRROR_SLOT_SIZE   = 24
)

// Mirror is the flattened form of a compound consumed by the matrix
// evaluation stage. The three slices are parallel and hold one slot per
// component plus a trailing KindNone slot; readers scan Kinds up to the
// terminator instead of relying on a length.
//
// Encoded layout (little endian):
//
//	0x00 u32 name handle
//	0x04 i32 isDirty
//	0x08 u32 slot count
//	0x0c slots: f32 x, f32 y, f32 z, f32 w, i32 kind, u32 name handle
type Mirror struct {
	Name     gpu.Handle
	IsDirty  int32
	Payloads []mgl32.Vec4
	Kinds    []Kind
	Names    []gpu.Handle
}

func EncodedSize(slots int) int {
	return MIRROR_HEADER_SIZE + slots*MIRROR_SLOT_SIZE
}

// Slots is the allocated slot count, terminator included.
func (m *Mirror) Slots() int {
	return len(m.Kinds)
}

// Count scans for the terminator and returns the number of real slots.
func (m *Mirror) Count() int {
	for i, k := range m.Kinds {
		if k == KindNone {
			return i
		}
	}
	return len(m.Kinds)
}

func (m *Mirror) resize(slots int) {
	if len(m.Kinds) == slots {
		return
	}
	m.Payloads = make([]mgl32.Vec4, slots)
	m.Kinds = make([]Kind, slots)
	m.Names = make([]gpu.Handle, slots)
}

func (m *Mirror) Encode() []byte {
	buf := make([]byte, EncodedSize(m.Slots()))
	binary.LittleEndian.PutUint32(buf[0:], uint32(m.Name))
	binary.LittleEndian.PutUint32(buf[4:], uint32(m.IsDirty))
	binary.LittleEndian.PutUint32(buf[8:], uint32(m.Slots()))

	for i := range m.Kinds {
		slot := buf[MIRROR_HEADER_SIZE+i*MIRROR_SLOT_SIZE:]
		for j, f := range m.Payloads[i] {
			binary.LittleEndian.PutUint32(slot[j*4:], math.Float32bits(f))
		}
		binary.LittleEndian.PutUint32(slot[16:], uint32(m.Kinds[i]))
		binary.LittleEndian.PutUint32(slot[20:], uint32(m.Names[i]))
	}
	return buf
}

// Fingerprint hashes the encoded record; equal mirrors share a fingerprint.
func (m *Mirror) Fingerprint() uint32 {
	return utils.BytesHash(m.Encode(), 0)
}

func DecodeMirror(raw []byte) (*Mirror, error) {
	bs := utils.NewBufStack("mirror", raw)
	if bs.Remaining() < MIRROR_HEADER_SIZE {
		return nil, errors.Errorf("mirror header truncated: %v", bs)
	}

	m := &Mirror{}
	m.Name = gpu.Handle(bs.ReadLU32())
	m.IsDirty = bs.ReadLI32()
	slots := int(bs.ReadLU32())
	if bs.Remaining() < slots*MIRROR_SLOT_SIZE {
		return nil, errors.Errorf("mirror with %d slots truncated: %v", slots, bs)
	}

	m.resize(slots)
	for i := 0; i < slots; i++ {
		for j := range m.Payloads[i] {
			m.Payloads[i][j] = bs.ReadLF()
		}
		m.Kinds[i] = Kind(bs.ReadLI32())
		m.Names[i] = gpu.Handle(bs.ReadLU32())
	}
	return m, nil
}

func (m *Mirror) String() string {
	return fmt.Sprintf("mirror<%d/%d slots, dirty=%d>", m.Count(), m.Slots(), m.IsDirty)
}
