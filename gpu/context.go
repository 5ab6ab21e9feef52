package gpu

import (
	"github.com/pkg/errors"

	"github.com/mogaika/scenegraph/utils"
)

// Handle references an interned string. Zero is the null handle.
type Handle uint32

const NullHandle Handle = 0

var ErrNoBackend = errors.New("gpu: context has no backend")

// Context is the numeric-compute session that scene data is mirrored
// into. It is passed explicitly to everything that interns strings or
// allocates buffers.
type Context struct {
	backend Backend
	strings [][]byte
	lookup  map[string]Handle
	interns int
}

func NewContext(backend Backend) *Context {
	return &Context{
		backend: backend,
		lookup:  make(map[string]Handle),
	}
}

// InternString returns the handle of s encoded as a NUL-terminated string
// in the configured charmap. Equal strings share one handle, so repeated
// interning of the same name is stable.
func (ctx *Context) InternString(s string) Handle {
	ctx.interns++
	if h, ok := ctx.lookup[s]; ok {
		return h
	}
	ctx.strings = append(ctx.strings, utils.StringToBytes(s, true))
	h := Handle(len(ctx.strings))
	ctx.lookup[s] = h
	return h
}

// Bytes returns the encoded, NUL-terminated string behind h.
func (ctx *Context) Bytes(h Handle) []byte {
	if h == NullHandle || int(h) > len(ctx.strings) {
		return nil
	}
	return ctx.strings[h-1]
}

func (ctx *Context) String(h Handle) string {
	return utils.BytesToString(ctx.Bytes(h))
}

// Strings is the count of distinct interned strings.
func (ctx *Context) Strings() int {
	return len(ctx.strings)
}

// Interns is the count of InternString calls, deduplicated or not.
func (ctx *Context) Interns() int {
	return ctx.interns
}

func (ctx *Context) Backend() Backend {
	return ctx.backend
}

func (ctx *Context) Allocate(size int) (Allocation, error) {
	if ctx.backend == nil {
		return nil, ErrNoBackend
	}
	alloc, err := ctx.backend.Allocate(size)
	if err != nil {
		return nil, errors.Wrapf(err, "allocate 0x%x bytes", size)
	}
	return alloc, nil
}
