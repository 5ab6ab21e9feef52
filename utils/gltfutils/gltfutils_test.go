package gltfutils

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/scenegraph/scene"
)

func TestExportScene(t *testing.T) {
	root := scene.NewMatrixTransform("root", mgl32.Ident4())
	arm := scene.NewCompound("arm")
	if err := arm.AddComponent(scene.NewTranslate("pos", mgl32.Vec3{1, 2, 3})); err != nil {
		t.Fatal(err)
	}
	hand := scene.NewCompound("hand")
	if err := root.AddChild(arm); err != nil {
		t.Fatal(err)
	}
	if err := arm.AddChild(hand); err != nil {
		t.Fatal(err)
	}
	scene.UpdateRoots(root)

	doc := NewDocument()
	indexes := ExportScene(doc, root)

	if len(doc.Nodes) != 3 || len(indexes) != 3 {
		t.Fatalf("exported %d nodes", len(doc.Nodes))
	}
	ri, ai, hi := indexes[root], indexes[arm], indexes[hand]
	if got := doc.Scenes[0].Nodes; len(got) != 1 || got[0] != ri {
		t.Errorf("scene roots %v", got)
	}
	if c := doc.Nodes[ri].Children; len(c) != 1 || c[0] != ai {
		t.Errorf("root children %v", c)
	}
	if c := doc.Nodes[ai].Children; len(c) != 1 || c[0] != hi {
		t.Errorf("arm children %v", c)
	}
	if m := doc.Nodes[ai].Matrix; m[12] != 1 || m[13] != 2 || m[14] != 3 {
		t.Errorf("arm matrix %v", m)
	}
	if doc.Nodes[hi].Name != "hand" || doc.Nodes[hi].Matrix != [16]float32{} {
		t.Errorf("identity node %+v", doc.Nodes[hi])
	}

	var buf bytes.Buffer
	if err := ExportBinary(&buf, doc); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("glTF")) {
		t.Errorf("not a glb: %d bytes", buf.Len())
	}
}
