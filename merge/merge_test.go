package merge

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lxteo/UnitySkinnedMeshCombiner/combiner"
	"github.com/lxteo/UnitySkinnedMeshCombiner/config"
	"github.com/lxteo/UnitySkinnedMeshCombiner/gltfio"
	"github.com/lxteo/UnitySkinnedMeshCombiner/humanoid"
	"github.com/lxteo/UnitySkinnedMeshCombiner/mesh"
	"github.com/lxteo/UnitySkinnedMeshCombiner/utils/gltfutils"
)

type testMesh struct {
	name      string
	positions [][3]float32
	joints    [][4]uint16
	weights   [][4]float32
	indices   []uint32
}

// skinnedDoc puts every joint at the root and binds each mesh to one skin
// over all joints.
func skinnedDoc(joints []string, meshes ...testMesh) *gltf.Document {
	doc := gltf.NewDocument()
	skin := &gltf.Skin{Name: "skin"}
	for i, j := range joints {
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: j})
		skin.Joints = append(skin.Joints, uint32(i))
	}
	doc.Skins = []*gltf.Skin{skin}

	for _, m := range meshes {
		normals := make([][3]float32, len(m.positions))
		for i := range normals {
			normals[i] = [3]float32{0, 0, 1}
		}
		prim := &gltf.Primitive{
			Attributes: gltf.Attribute{
				"POSITION":  modeler.WritePosition(doc, m.positions),
				"NORMAL":    modeler.WriteNormal(doc, normals),
				"JOINTS_0":  modeler.WriteJoints(doc, m.joints),
				"WEIGHTS_0": modeler.WriteWeights(doc, m.weights),
			},
			Indices: gltf.Index(modeler.WriteIndices(doc, m.indices)),
		}
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: m.name, Primitives: []*gltf.Primitive{prim}})
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: m.name,
			Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
			Skin: gltf.Index(0),
		})
	}
	return doc
}

var (
	bodyMesh = testMesh{
		name:      "Body",
		positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		joints:    [][4]uint16{{0, 1, 0, 0}, {0, 1, 0, 0}, {1, 2, 0, 0}, {2, 0, 0, 0}},
		weights:   [][4]float32{{0.5, 0.5, 0, 0}, {0.5, 0.5, 0, 0}, {0.5, 0.5, 0, 0}, {1, 0, 0, 0}},
		indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
	shirtMesh = testMesh{
		name:      "Shirt",
		positions: [][3]float32{{0, 0, 1}, {1, 0, 1}, {0, 1, 1}},
		joints:    [][4]uint16{{1, 0, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}},
		weights:   [][4]float32{{1, 0, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}},
		indices:   []uint32{0, 1, 2},
	}
	hatMesh = testMesh{
		name:      "Hat",
		positions: [][3]float32{{0, 2, 0}, {1, 2, 0}, {0, 3, 0}},
		joints:    [][4]uint16{{0, 1, 0, 0}, {0, 1, 0, 0}, {1, 0, 0, 0}},
		weights:   [][4]float32{{0.7, 0.3, 0, 0}, {0.7, 0.3, 0, 0}, {1, 0, 0, 0}},
		indices:   []uint32{0, 1, 2},
	}
)

func writeAssets(t *testing.T) string {
	dir := t.TempDir()
	body := skinnedDoc([]string{"mixamorig:Hips", "mixamorig:Spine", "mixamorig:Head"}, bodyMesh, shirtMesh)
	require.NoError(t, gltfutils.Save(body, filepath.Join(dir, "body.glb")))
	hat := skinnedDoc([]string{"mixamorig:Head", "HatTail"}, hatMesh)
	require.NoError(t, gltfutils.Save(hat, filepath.Join(dir, "hat.glb")))
	return dir
}

const request = `
sources:
  - file: body.glb
    node: Body
  - file: body.glb
    node: Shirt
  - file: hat.glb
    translation: [0, 1, 0]
options:
  substitute_missing: true
  verbose: true
`

func TestRun(t *testing.T) {
	dir := writeAssets(t)
	req, err := config.Parse([]byte(request), dir)
	require.NoError(t, err)

	var log bytes.Buffer
	out, err := Run(req, combiner.NewWorkspace(combiner.Options{}), nil, mesh.NewLogger(&log))
	require.NoError(t, err)

	res := out.Result
	m := res.Mesh
	require.Equal(t, 10, m.VertexCount())
	require.Equal(t, 3, m.SubmeshCount())
	assert.Equal(t, 1, res.Stats.MappingRebuilds, "body and shirt share a skin")

	// shirt weights pass through
	assert.Equal(t, mesh.BoneWeight{Indices: [4]int{1, 0, 0, 0}, Weights: [4]float32{1, 0, 0, 0}}, m.BoneWeights[4])
	// hat: Head -> body joint 2, HatTail has no humanoid role
	assert.Equal(t, mesh.BoneWeight{Indices: [4]int{2, 0, 2, 2}, Weights: [4]float32{0.7, 0, 0, 0}}, m.BoneWeights[7])
	assert.Equal(t, mesh.BoneWeight{Indices: [4]int{0, 2, 2, 2}, Weights: [4]float32{0, 0, 0, 0}}, m.BoneWeights[9])
	assert.Equal(t, mesh.Position{0, 3, 0}, m.Positions[7])
	assert.Equal(t, mgl32.Vec3{1, 4, 1}, m.Bounds.Max)

	assert.Contains(t, log.String(), "combined 3 sources")

	doc := out.Model.Doc
	require.Len(t, doc.Meshes, 1, "replaced meshes are dropped")
	assert.Equal(t, uint32(0), *doc.Nodes[out.Node].Mesh)

	path := filepath.Join(dir, "out.glb")
	require.NoError(t, out.Save(path))

	back, err := gltfio.Open(path, nil)
	require.NoError(t, err)
	node, err := back.FindNode("Body")
	require.NoError(t, err)
	assert.Equal(t, out.Node, node)
	p, err := back.Load(node)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Mesh.VertexCount())
	assert.Equal(t, 3, p.Mesh.SubmeshCount())
	assert.Equal(t, m.BoneWeights, p.Mesh.BoneWeights)

	shirt, err := back.FindNode("Shirt")
	require.NoError(t, err)
	_, err = back.Load(shirt)
	assert.Error(t, err, "merged nodes lose their mesh")
}

func TestRunOpensEachFileOnce(t *testing.T) {
	dir := writeAssets(t)
	req, err := config.Parse([]byte(request), dir)
	require.NoError(t, err)

	opened := map[string]int{}
	open := func(path string, aliases humanoid.Aliases) (*gltfio.Model, error) {
		opened[filepath.Base(path)]++
		return gltfio.Open(path, aliases)
	}
	out, err := Run(req, combiner.NewWorkspace(combiner.Options{}), open, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"body.glb": 1, "hat.glb": 1}, opened)

	var buf bytes.Buffer
	require.NoError(t, out.WriteBinary(&buf))
	assert.Equal(t, "glTF", buf.String()[:4])
}

func TestRunPrimitive(t *testing.T) {
	dir := writeAssets(t)
	req, err := config.Parse([]byte("sources: [{file: body.glb, primitive: 0}, {file: hat.glb, primitive: 0}]\noptions: {substitute_missing: true}"), dir)
	require.NoError(t, err)
	out, err := Run(req, combiner.NewWorkspace(combiner.Options{}), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Result.Mesh.SubmeshCount())

	req.Sources[1].Primitive = new(int)
	*req.Sources[1].Primitive = 1
	_, err = Run(req, combiner.NewWorkspace(combiner.Options{}), nil, nil)
	assert.Error(t, err)
}

func TestRunErrors(t *testing.T) {
	dir := writeAssets(t)
	for _, in := range []string{
		// tangents and uvs are missing
		"sources: [{file: body.glb}]",
		"sources: [{file: nothing.glb}]",
		"sources: [{file: body.glb, node: Nobody}]",
		"sources: [{file: body.glb, node: 'mixamorig:Hips'}]",
		"sources: [{file: body.glb}]\noptions: {substitute_missing: true, max_vertices: 3}",
	} {
		req, err := config.Parse([]byte(in), dir)
		require.NoError(t, err, in)
		_, err = Run(req, combiner.NewWorkspace(combiner.Options{}), nil, nil)
		assert.Error(t, err, in)
	}
}
