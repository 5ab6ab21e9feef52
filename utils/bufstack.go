package utils

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BufStack is a little endian read cursor over a record. kind names the
// record in error messages.
type BufStack struct {
	buf  []byte
	pos  int
	kind string
}

func NewBufStack(kind string, b []byte) *BufStack {
	return &BufStack{
		buf:  b,
		kind: kind,
	}
}

func (bs *BufStack) String() string {
	return fmt.Sprintf("buf<%v>[p:0x%x,s:0x%x]", bs.kind, bs.pos, len(bs.buf))
}

// Remaining is the number of bytes left after the cursor.
func (bs *BufStack) Remaining() int {
	return len(bs.buf) - bs.pos
}

func (bs *BufStack) Read(amount int) []byte {
	if amount > bs.Remaining() {
		panic(fmt.Sprintf("read 0x%x over %v", amount, bs))
	}
	oldPos := bs.pos
	bs.pos += amount
	return bs.buf[oldPos:bs.pos]
}

func (bs *BufStack) ReadLU32() uint32 {
	return binary.LittleEndian.Uint32(bs.Read(4))
}

func (bs *BufStack) ReadLI32() int32 {
	return int32(bs.ReadLU32())
}

func (bs *BufStack) ReadLF() float32 {
	return math.Float32frombits(bs.ReadLU32())
}
