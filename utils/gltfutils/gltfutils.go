package gltfutils

import (
	"io"

	"github.com/qmuntal/gltf"

	"github.com/mogaika/scenegraph/scene"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

// ExportScene appends the hierarchies below roots to doc. Every transform
// becomes one glTF node carrying its local matrix; roots are listed in
// the default scene. Returns the node index of every exported transform.
func ExportScene(doc *gltf.Document, roots ...scene.Transform) map[scene.Transform]uint32 {
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	}

	indexes := make(map[scene.Transform]uint32)
	for _, root := range roots {
		scene.Walk(root, func(t scene.Transform, depth int) {
			n := scene.NodeOf(t)
			local := n.LocalMatrix()

			indexes[t] = uint32(len(doc.Nodes))
			node := &gltf.Node{Name: n.Name()}
			if local != gltfIdentity {
				node.Matrix = local
			}
			doc.Nodes = append(doc.Nodes, node)

			if parent := n.Parent(); parent != nil {
				if pi, ok := indexes[parent]; ok {
					doc.Nodes[pi].Children = append(doc.Nodes[pi].Children, indexes[t])
				}
			}
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, indexes[root])
	}
	return indexes
}

var gltfIdentity = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func ExportBinary(w io.Writer, doc *gltf.Document) error {
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}
