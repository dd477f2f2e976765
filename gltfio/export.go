package gltfio

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/lxteo/UnitySkinnedMeshCombiner/mesh"
)

type materialKey struct {
	model *Model
	index uint32
}

// Exporter writes meshes into the document of a target model. Materials
// of other models are copied over once, without their textures.
type Exporter struct {
	Model     *Model
	materials map[materialKey]uint32
}

func NewExporter(m *Model) *Exporter {
	return &Exporter{Model: m, materials: make(map[materialKey]uint32)}
}

func (e *Exporter) material(ref MaterialRef) *uint32 {
	if ref.Index == nil || ref.Model == nil || int(*ref.Index) >= len(ref.Model.Doc.Materials) {
		return nil
	}
	if ref.Model == e.Model {
		return gltf.Index(*ref.Index)
	}
	key := materialKey{ref.Model, *ref.Index}
	if idx, ok := e.materials[key]; ok {
		return gltf.Index(idx)
	}

	doc := e.Model.Doc
	mat := *ref.Model.Doc.Materials[*ref.Index]
	if mat.PBRMetallicRoughness != nil {
		pbr := *mat.PBRMetallicRoughness
		pbr.BaseColorTexture = nil
		pbr.MetallicRoughnessTexture = nil
		mat.PBRMetallicRoughness = &pbr
	}
	mat.NormalTexture = nil
	mat.OcclusionTexture = nil
	mat.EmissiveTexture = nil
	mat.Extensions = nil

	idx := uint32(len(doc.Materials))
	doc.Materials = append(doc.Materials, &mat)
	e.materials[key] = idx
	return gltf.Index(idx)
}

// Export adds m to the document as a new glTF mesh with one primitive per
// submesh and returns its index. materials holds one entry per submesh.
func (e *Exporter) Export(m *mesh.Mesh, materials []MaterialRef) (uint32, error) {
	if len(materials) != 0 && len(materials) != m.SubmeshCount() {
		return 0, errors.Errorf("%d materials for %d submeshes", len(materials), m.SubmeshCount())
	}
	doc := e.Model.Doc
	n := m.VertexCount()

	attrs := gltf.Attribute{}
	{
		positions := make([][3]float32, n)
		for i, v := range m.Positions {
			positions[i] = v
		}
		attrs[attrPosition] = modeler.WritePosition(doc, positions)
	}
	if len(m.Normals) == n {
		normals := make([][3]float32, n)
		for i, v := range m.Normals {
			normals[i] = v
		}
		attrs[attrNormal] = modeler.WriteNormal(doc, normals)
	}
	if len(m.Tangents) == n {
		tangents := make([][4]float32, n)
		for i, v := range m.Tangents {
			tangents[i] = v
		}
		attrs[attrTangent] = modeler.WriteTangent(doc, tangents)
	}
	if len(m.UVs) == n {
		uvs := make([][2]float32, n)
		for i, v := range m.UVs {
			uvs[i] = v
		}
		attrs[attrUV] = modeler.WriteTextureCoord(doc, uvs)
	}
	if len(m.Colors) == n {
		colors := make([][4]uint8, n)
		for i, c := range m.Colors {
			for k := range c {
				colors[i][k] = uint8(mgl32.Clamp(c[k], 0, 1)*255 + 0.5)
			}
		}
		attrs[attrColor] = modeler.WriteColor(doc, colors)
	}
	if len(m.BoneWeights) == n {
		joints := make([][4]uint16, n)
		weights := make([][4]float32, n)
		for i, bw := range m.BoneWeights {
			for k := range bw.Indices {
				joints[i][k] = uint16(bw.Indices[k])
				weights[i][k] = bw.Weights[k]
			}
		}
		attrs[attrJoints] = modeler.WriteJoints(doc, joints)
		attrs[attrWeights] = modeler.WriteWeights(doc, weights)
	}

	targets, names := e.writeTargets(m)

	gm := &gltf.Mesh{Name: m.Name}
	for i, sub := range m.Submeshes {
		indices := make([]uint32, len(sub))
		for k, idx := range sub {
			indices[k] = uint32(idx)
		}
		prim := &gltf.Primitive{
			Attributes: attrs,
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Targets:    targets,
		}
		if len(materials) != 0 {
			prim.Material = e.material(materials[i])
		}
		gm.Primitives = append(gm.Primitives, prim)
	}
	if len(names) != 0 {
		gm.Weights = make([]float32, len(names))
		gm.Extras = map[string]interface{}{"targetNames": names}
	}

	doc.Meshes = append(doc.Meshes, gm)
	return uint32(len(doc.Meshes) - 1), nil
}

// writeTargets turns every blend shape into a morph target. glTF targets
// have no in-between frames, so the last (full weight) frame is used.
func (e *Exporter) writeTargets(m *mesh.Mesh) ([]gltf.Attribute, []string) {
	doc := e.Model.Doc
	var targets []gltf.Attribute
	var names []string
	for _, bs := range m.BlendShapes {
		if len(bs.Frames) == 0 {
			continue
		}
		f := &bs.Frames[len(bs.Frames)-1]
		t := gltf.Attribute{}
		for _, ch := range []struct {
			attr   string
			deltas []mgl32.Vec3
			always bool
		}{
			{attrPosition, f.DeltaPositions, true},
			{attrNormal, f.DeltaNormals, false},
			{attrTangent, f.DeltaTangents, false},
		} {
			if !ch.always && allZero(ch.deltas) {
				continue
			}
			data := make([][3]float32, m.VertexCount())
			for i := 0; i < len(data) && i < len(ch.deltas); i++ {
				data[i] = ch.deltas[i]
			}
			t[ch.attr] = modeler.WriteAccessor(doc, gltf.TargetArrayBuffer, data)
		}
		targets = append(targets, t)
		names = append(names, bs.Name)
	}
	return targets, names
}

func allZero(v []mgl32.Vec3) bool {
	for _, d := range v {
		if d != (mgl32.Vec3{}) {
			return false
		}
	}
	return true
}

// Replace points node at mesh index gm and rewrites the inverse bind
// matrices of its skin from bindPoses.
func (e *Exporter) Replace(node uint32, gm uint32, bindPoses []mgl32.Mat4) error {
	doc := e.Model.Doc
	if int(node) >= len(doc.Nodes) {
		return errors.Errorf("Node %d out of range", node)
	}
	n := doc.Nodes[node]
	n.Mesh = gltf.Index(gm)

	if n.Skin == nil || len(bindPoses) == 0 {
		return nil
	}
	skin := doc.Skins[*n.Skin]
	if len(skin.Joints) != len(bindPoses) {
		return errors.Errorf("%d bind poses for %d joints", len(bindPoses), len(skin.Joints))
	}
	mats := make([][4][4]float32, len(bindPoses))
	for i, bp := range bindPoses {
		for col := 0; col < 4; col++ {
			for row := 0; row < 4; row++ {
				mats[i][col][row] = bp[col*4+row]
			}
		}
	}
	skin.InverseBindMatrices = gltf.Index(modeler.WriteAccessor(doc, gltf.TargetNone, mats))
	return nil
}

// Detach removes the mesh and skin of node, leaving its transform and
// children in place.
func (e *Exporter) Detach(node uint32) {
	if int(node) < len(e.Model.Doc.Nodes) {
		n := e.Model.Doc.Nodes[node]
		n.Mesh = nil
		n.Skin = nil
	}
}
