package gltfutils

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc() *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	doc.Meshes = []*gltf.Mesh{{Name: "tri", Primitives: []*gltf.Primitive{{
		Attributes: gltf.Attribute{"POSITION": pos},
	}}}}
	doc.Nodes = []*gltf.Node{
		{Name: "root", Children: []uint32{1}},
		{Name: "tri", Mesh: gltf.Index(0)},
		{Name: "loose"},
	}
	return doc
}

func TestEnsureScene(t *testing.T) {
	doc := testDoc()
	doc.Scenes = nil
	ensureScene(doc)
	require.Len(t, doc.Scenes, 1)
	assert.Equal(t, []uint32{0, 2}, doc.Scenes[0].Nodes)

	doc.Scenes[0].Nodes = []uint32{2}
	ensureScene(doc)
	assert.Equal(t, []uint32{2}, doc.Scenes[0].Nodes, "populated scenes are kept")
}

func TestExportBinary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportBinary(&buf, testDoc()))
	assert.Equal(t, "glTF", buf.String()[:4])

	doc, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 3)
	assert.Equal(t, "tri", doc.Meshes[0].Name)

	_, err = Decode(bytes.NewReader([]byte("not a model")))
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.glb", "a.gltf"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(testDoc(), path), name)
		doc, err := gltf.Open(path)
		require.NoError(t, err, name)
		assert.Len(t, doc.Nodes, 3, name)
	}
	assert.Error(t, Save(testDoc(), filepath.Join(dir, "missing", "a.glb")))
}
