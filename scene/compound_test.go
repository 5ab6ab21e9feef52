package scene_test

import (
	"bytes"
	"log"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/scenegraph/config"
	"github.com/mogaika/scenegraph/gpu"
	"github.com/mogaika/scenegraph/scene"
)

func newJoint(t *testing.T) (*scene.Compound, scene.Translate, scene.Rotate) {
	t.Helper()
	ct := scene.NewCompound("T")
	pos := scene.NewTranslate("pos", mgl32.Vec3{1, 2, 3})
	rot := scene.NewRotate("rot", mgl32.Vec3{0, 1, 0}, 0)
	if err := ct.AddComponent(pos); err != nil {
		t.Fatal(err)
	}
	if err := ct.AddComponent(rot); err != nil {
		t.Fatal(err)
	}
	return ct, pos, rot
}

func checkFidelity(t *testing.T, ct *scene.Compound) {
	t.Helper()
	m := ct.Mirror()
	if m.Slots() != ct.Len()+1 {
		t.Fatalf("mirror has %d slots for %d components", m.Slots(), ct.Len())
	}
	for i, c := range ct.Components() {
		if m.Kinds[i] != c.Kind() {
			t.Errorf("slot %d kind %v, component kind %v", i, m.Kinds[i], c.Kind())
		}
		if m.Payloads[i] != c.Payload() {
			t.Errorf("slot %d payload %v, component payload %v", i, m.Payloads[i], c.Payload())
		}
		if got := ct.Context().String(m.Names[i]); got != c.Name() {
			t.Errorf("slot %d name %q, component name %q", i, got, c.Name())
		}
	}
	if m.Kinds[ct.Len()] != scene.KindNone {
		t.Errorf("slot %d is %v, want terminator", ct.Len(), m.Kinds[ct.Len()])
	}
}

func TestInitializeMirrorLayout(t *testing.T) {
	ct, _, _ := newJoint(t)
	ctx := gpu.NewContext(nil)

	if ct.Mirror() != nil {
		t.Fatalf("mirror exists before InitializeMirror")
	}
	if err := ct.InitializeMirror(ctx); err != nil {
		t.Fatal(err)
	}

	m := ct.Mirror()
	var expected = []struct {
		kind    scene.Kind
		payload mgl32.Vec4
	}{
		{scene.KindTranslate, mgl32.Vec4{1, 2, 3, 0}},
		{scene.KindRotate, mgl32.Vec4{0, 1, 0, 0}},
		{scene.KindNone, mgl32.Vec4{}},
	}
	if m.Slots() != len(expected) {
		t.Fatalf("Slots() = %d, want %d", m.Slots(), len(expected))
	}
	for i, e := range expected {
		if m.Kinds[i] != e.kind || m.Payloads[i] != e.payload {
			t.Errorf("slot %d = %v %v, want %v %v", i, m.Kinds[i], m.Payloads[i], e.kind, e.payload)
		}
	}
	if ctx.String(m.Name) != "T" {
		t.Errorf("composite name = %q", ctx.String(m.Name))
	}
	if !ct.Dirty() {
		t.Errorf("fresh mirror must be dirty")
	}
	checkFidelity(t, ct)
}

func TestSetterSynchronizes(t *testing.T) {
	ct, _, rot := newJoint(t)
	if err := ct.InitializeMirror(gpu.NewContext(nil)); err != nil {
		t.Fatal(err)
	}
	ct.ClearDirty()
	before := append([]mgl32.Vec4(nil), ct.Mirror().Payloads...)

	rot.SetAngle(1.57)

	m := ct.Mirror()
	if m.Payloads[1] != (mgl32.Vec4{0, 1, 0, 1.57}) {
		t.Errorf("slot 1 payload = %v", m.Payloads[1])
	}
	if !ct.Dirty() {
		t.Errorf("mirror not dirty after SetAngle")
	}
	for i := range before {
		if i != 1 && m.Payloads[i] != before[i] {
			t.Errorf("slot %d changed: %v -> %v", i, before[i], m.Payloads[i])
		}
	}
}

func TestTypedAccessors(t *testing.T) {
	ct, pos, rot := newJoint(t)
	size := scene.NewScale("size", mgl32.Vec3{2, 2, 2})
	if err := ct.AddComponent(size); err != nil {
		t.Fatal(err)
	}
	if err := ct.InitializeMirror(gpu.NewContext(nil)); err != nil {
		t.Fatal(err)
	}

	pos.SetValue(mgl32.Vec3{4, 5, 6})
	rot.SetAxis(mgl32.Vec3{1, 0, 0})
	rot.SetAngle(0.5)
	size.SetValue(mgl32.Vec3{1, 3, 1})

	if pos.Value() != (mgl32.Vec3{4, 5, 6}) {
		t.Errorf("translate value %v", pos.Value())
	}
	if rot.Axis() != (mgl32.Vec3{1, 0, 0}) || rot.Angle() != 0.5 {
		t.Errorf("rotate axis %v angle %v", rot.Axis(), rot.Angle())
	}
	if size.Value() != (mgl32.Vec3{1, 3, 1}) || size.Payload()[3] != 0 {
		t.Errorf("scale payload %v", size.Payload())
	}
	if pos.Name() != "pos" || rot.Kind() != scene.KindRotate {
		t.Errorf("name %q kind %v", pos.Name(), rot.Kind())
	}
	checkFidelity(t, ct)
}

func TestDetachedSetterOnlyMutates(t *testing.T) {
	pos := scene.NewTranslate("pos", mgl32.Vec3{})
	pos.SetValue(mgl32.Vec3{1, 1, 1})
	if pos.Value() != (mgl32.Vec3{1, 1, 1}) || pos.Attached() {
		t.Errorf("value %v attached %v", pos.Value(), pos.Attached())
	}
}

func TestOwnershipExclusivity(t *testing.T) {
	a, pos, rot := newJoint(t)
	b := scene.NewCompound("other")
	spare := scene.NewScale("spare", mgl32.Vec3{1, 1, 1})
	if err := b.AddComponent(spare); err != nil {
		t.Fatal(err)
	}

	var attempts = []struct {
		name string
		do   func() error
	}{
		{"add to other", func() error { return b.AddComponent(rot) }},
		{"set in other", func() error { return b.SetComponent(0, rot) }},
		{"add to same", func() error { return a.AddComponent(rot) }},
		{"set in same at other index", func() error { return a.SetComponent(0, rot) }},
		{"set in other out of range", func() error { return b.SetComponent(7, pos) }},
	}
	for _, attempt := range attempts {
		if err := attempt.do(); !errors.Is(err, scene.ErrOwnershipConflict) {
			t.Errorf("%s: err = %v, want ErrOwnershipConflict", attempt.name, err)
		}
	}

	if b.Len() != 1 || b.Component(0) != spare.Base() {
		t.Errorf("rejected calls modified the other compound")
	}
	if a.Len() != 2 || a.Component(0) != pos.Base() || a.Component(1) != rot.Base() {
		t.Errorf("rejected calls modified the owner")
	}
}

func TestAddToEmptyCompoundRejected(t *testing.T) {
	_, _, rot := newJoint(t)
	other := scene.NewCompound("other")
	if err := other.AddComponent(rot); !errors.Is(err, scene.ErrOwnershipConflict) {
		t.Fatalf("err = %v", err)
	}
	if other.Len() != 0 {
		t.Errorf("other has %d components, want 0", other.Len())
	}
}

func TestSetComponent(t *testing.T) {
	ct, pos, _ := newJoint(t)
	if err := ct.InitializeMirror(gpu.NewContext(nil)); err != nil {
		t.Fatal(err)
	}

	for _, index := range []int{-1, 2, 10} {
		fresh := scene.NewScale("fresh", mgl32.Vec3{1, 1, 1})
		if err := ct.SetComponent(index, fresh); !errors.Is(err, scene.ErrIndexOutOfRange) {
			t.Errorf("SetComponent(%d) err = %v", index, err)
		}
		if fresh.Attached() {
			t.Errorf("rejected component was attached")
		}
	}

	size := scene.NewScale("size", mgl32.Vec3{2, 2, 2})
	if err := ct.SetComponent(0, size); err != nil {
		t.Fatal(err)
	}
	checkFidelity(t, ct)

	// the replaced component no longer drives the compound
	ct.ClearDirty()
	pos.SetValue(mgl32.Vec3{9, 9, 9})
	if ct.Dirty() || ct.Mirror().Payloads[0] != (mgl32.Vec4{2, 2, 2, 0}) {
		t.Errorf("orphaned component reached its old compound")
	}
	if err := scene.NewCompound("x").AddComponent(pos); !errors.Is(err, scene.ErrOwnershipConflict) {
		t.Errorf("orphaned component could be reused: %v", err)
	}
}

func TestNilComponent(t *testing.T) {
	ct := scene.NewCompound("T")
	if err := ct.AddComponent(nil); !errors.Is(err, scene.ErrNilComponent) {
		t.Errorf("AddComponent(nil) err = %v", err)
	}
	if err := ct.AddComponent(scene.Rotate{}); !errors.Is(err, scene.ErrNilComponent) {
		t.Errorf("AddComponent(Rotate{}) err = %v", err)
	}
}

func TestInitializeMirrorNilContext(t *testing.T) {
	ct, _, _ := newJoint(t)
	if err := ct.InitializeMirror(nil); !errors.Is(err, scene.ErrNilContext) {
		t.Errorf("InitializeMirror(nil) err = %v", err)
	}
	if ct.Mirror() != nil || ct.Context() != nil {
		t.Errorf("nil context left state behind")
	}
}

func TestTraceSyncDumpsMirror(t *testing.T) {
	var out bytes.Buffer
	log.SetOutput(&out)
	config.SetTraceSync(true)
	defer func() {
		config.SetTraceSync(false)
		log.SetOutput(os.Stderr)
	}()

	ct, pos, _ := newJoint(t)
	if err := ct.InitializeMirror(gpu.NewContext(nil)); err != nil {
		t.Fatal(err)
	}
	pos.SetValue(mgl32.Vec3{4, 5, 6})
	if s := out.String(); !strings.Contains(s, `"T" synchronized`) || !strings.Contains(s, "Payloads") {
		t.Errorf("trace output:\n%s", s)
	}
}

func TestSynchronizeBeforeInitialize(t *testing.T) {
	ct, pos, _ := newJoint(t)
	alloc := gpu.NewMemoryAllocation(0)
	if err := ct.Bind(alloc); err != nil {
		t.Fatal(err)
	}

	pos.SetValue(mgl32.Vec3{7, 7, 7})
	if err := ct.Synchronize(); err != nil {
		t.Fatal(err)
	}
	if ct.Mirror() != nil || ct.Dirty() {
		t.Errorf("mirror materialized by Synchronize")
	}
	if alloc.Uploads() != 0 || alloc.Size() != 0 {
		t.Errorf("allocation written before InitializeMirror: %d uploads", alloc.Uploads())
	}
}

func TestIdempotentResync(t *testing.T) {
	ct, _, _ := newJoint(t)
	if err := ct.InitializeMirror(gpu.NewContext(nil)); err != nil {
		t.Fatal(err)
	}
	if err := ct.Synchronize(); err != nil {
		t.Fatal(err)
	}
	first := ct.Mirror().Encode()
	if err := ct.Synchronize(); err != nil {
		t.Fatal(err)
	}
	if second := ct.Mirror().Encode(); !bytes.Equal(first, second) {
		t.Errorf("re-sync changed the mirror:\n%x\n%x", first, second)
	}
}

func TestBoundAllocationFollowsMirror(t *testing.T) {
	var backend gpu.MemoryBackend
	ctx := gpu.NewContext(&backend)
	ct, pos, _ := newJoint(t)

	if err := ct.BindAllocation(); !errors.Is(err, scene.ErrNotMaterialized) {
		t.Fatalf("BindAllocation before init: %v", err)
	}
	if err := ct.InitializeMirror(ctx); err != nil {
		t.Fatal(err)
	}
	if err := ct.BindAllocation(); err != nil {
		t.Fatal(err)
	}
	alloc := backend.Allocations[0]
	if alloc.Uploads() != 1 {
		t.Fatalf("Bind did not push the mirror")
	}

	pos.SetValue(mgl32.Vec3{-1, 0, 1})
	if alloc.Uploads() != 2 {
		t.Errorf("setter did not upload; uploads = %d", alloc.Uploads())
	}
	if !bytes.Equal(alloc.Bytes(), ct.Mirror().Encode()) {
		t.Errorf("allocation out of sync with the mirror")
	}

	// structural change after materialization resizes mirror and buffer
	if err := ct.AddComponent(scene.NewScale("size", mgl32.Vec3{1, 2, 1})); err != nil {
		t.Fatal(err)
	}
	checkFidelity(t, ct)
	if alloc.Size() != scene.EncodedSize(4) {
		t.Errorf("allocation size %d, want %d", alloc.Size(), scene.EncodedSize(4))
	}
	decoded, err := scene.DecodeMirror(alloc.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Count() != 3 || decoded.Kinds[2] != scene.KindScale {
		t.Errorf("decoded %v kinds %v", decoded, decoded.Kinds)
	}
}

type failingAllocation struct{}

func (failingAllocation) Set(data []byte, offset int) error { return errors.New("device lost") }
func (failingAllocation) Size() int                         { return 0 }

func TestUploadErrorReturned(t *testing.T) {
	ct, pos, _ := newJoint(t)
	if err := ct.InitializeMirror(gpu.NewContext(nil)); err != nil {
		t.Fatal(err)
	}
	if err := ct.Bind(failingAllocation{}); err == nil {
		t.Errorf("Bind swallowed the upload error")
	}
	if err := ct.Synchronize(); err == nil {
		t.Errorf("Synchronize swallowed the upload error")
	}

	// setters have no error return; the mirror is still rewritten
	pos.SetValue(mgl32.Vec3{3, 3, 3})
	if ct.Mirror().Payloads[0] != (mgl32.Vec4{3, 3, 3, 0}) {
		t.Errorf("mirror not rewritten when upload failed")
	}
}

func TestNonFinitePayloadsPropagate(t *testing.T) {
	ct, pos, _ := newJoint(t)
	if err := ct.InitializeMirror(gpu.NewContext(nil)); err != nil {
		t.Fatal(err)
	}
	nan := float32(math.NaN())
	pos.SetValue(mgl32.Vec3{nan, float32(math.Inf(1)), 0})

	p := ct.Mirror().Payloads[0]
	if !math.IsNaN(float64(p[0])) || !math.IsInf(float64(p[1]), 1) {
		t.Errorf("payload %v", p)
	}
}

func TestFind(t *testing.T) {
	ct, _, rot := newJoint(t)
	if c, ok := ct.Find("rot"); !ok || c != rot.Base() {
		t.Errorf("Find(rot) = %v, %v", c, ok)
	}
	if _, ok := ct.Find("nope"); ok {
		t.Errorf("Find(nope) succeeded")
	}
	if ct.IndexOf(rot.Base()) != 1 || ct.Component(5) != nil {
		t.Errorf("IndexOf/Component out of range")
	}
	if r, ok := rot.Base().AsRotate(); !ok || r.Angle() != 0 {
		t.Errorf("AsRotate failed")
	}
	if _, ok := rot.Base().AsScale(); ok {
		t.Errorf("rotate viewed as scale")
	}
}
