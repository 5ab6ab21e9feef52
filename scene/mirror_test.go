package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/scenegraph/gpu"
)

func testMirror() *Mirror {
	return &Mirror{
		Name:     1,
		IsDirty:  1,
		Payloads: []mgl32.Vec4{{1, 2, 3, 0}, {0, 1, 0, 1.5}, {}},
		Kinds:    []Kind{KindTranslate, KindRotate, KindNone},
		Names:    []gpu.Handle{2, 3, gpu.NullHandle},
	}
}

func TestMirrorEncode(t *testing.T) {
	m := testMirror()
	raw := m.Encode()
	if len(raw) != EncodedSize(3) || len(raw) != 12+3*24 {
		t.Fatalf("encoded size %d", len(raw))
	}

	// slot 1 kind and name
	if raw[12+24+16] != byte(KindRotate) || raw[12+24+20] != 3 {
		t.Errorf("slot 1 bytes %x", raw[12+24:12+48])
	}

	decoded, err := DecodeMirror(raw)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Name != m.Name || decoded.IsDirty != m.IsDirty || decoded.Slots() != 3 {
		t.Errorf("header %v", decoded)
	}
	for i := range m.Kinds {
		if decoded.Kinds[i] != m.Kinds[i] || decoded.Payloads[i] != m.Payloads[i] || decoded.Names[i] != m.Names[i] {
			t.Errorf("slot %d differs", i)
		}
	}
	if decoded.Fingerprint() != m.Fingerprint() {
		t.Errorf("fingerprint differs")
	}
}

func TestDecodeMirrorTruncated(t *testing.T) {
	raw := testMirror().Encode()
	for _, size := range []int{0, 8, 12, 12 + 24, len(raw) - 1} {
		if _, err := DecodeMirror(raw[:size]); err == nil {
			t.Errorf("DecodeMirror accepted %d of %d bytes", size, len(raw))
		}
	}
}

func TestMirrorCount(t *testing.T) {
	m := testMirror()
	if m.Count() != 2 {
		t.Errorf("Count() = %d", m.Count())
	}
	m.Kinds[0] = KindNone
	if m.Count() != 0 {
		t.Errorf("Count() after early terminator = %d", m.Count())
	}
	if Evaluate(m) != mgl32.Ident4() {
		t.Errorf("evaluation read past the terminator")
	}
}

func TestMirrorResizeKeepsSameLength(t *testing.T) {
	m := testMirror()
	kinds := m.Kinds
	m.resize(3)
	if &kinds[0] != &m.Kinds[0] {
		t.Errorf("resize to the same length reallocated")
	}
	m.resize(5)
	if m.Slots() != 5 || len(m.Payloads) != 5 || len(m.Names) != 5 {
		t.Errorf("resize(5) gave %d/%d/%d", len(m.Kinds), len(m.Payloads), len(m.Names))
	}
}
