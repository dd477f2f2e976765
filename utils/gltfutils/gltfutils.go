package gltfutils

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// Decode reads a .gltf or .glb stream. External buffers are not resolved.
func Decode(r io.Reader) (*gltf.Document, error) {
	doc := &gltf.Document{}
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrapf(err, "Failed to read gltf")
	}
	return doc, nil
}

// ensureScene puts every root node into the default scene when the
// document has none, so viewers show something.
func ensureScene(doc *gltf.Document) {
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{Name: "Root Scene"})
		doc.Scene = gltf.Index(0)
	}
	scene := doc.Scenes[0]
	if len(scene.Nodes) != 0 {
		return
	}
	child := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	for iNode := range doc.Nodes {
		if !child[uint32(iNode)] {
			scene.Nodes = append(scene.Nodes, uint32(iNode))
		}
	}
}

func ExportBinary(w io.Writer, doc *gltf.Document) error {
	ensureScene(doc)

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}

// Save writes doc to path, as binary when the extension is .glb.
func Save(doc *gltf.Document, path string) error {
	ensureScene(doc)

	var err error
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		err = gltf.SaveBinary(doc, path)
	} else {
		err = gltf.Save(doc, path)
	}
	return errors.Wrapf(err, "Failed to save %q", path)
}
