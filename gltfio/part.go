package gltfio

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/lxteo/UnitySkinnedMeshCombiner/mesh"
	"github.com/lxteo/UnitySkinnedMeshCombiner/rig"
)

// Vertex attribute semantics.
const (
	attrPosition = "POSITION"
	attrNormal   = "NORMAL"
	attrTangent  = "TANGENT"
	attrUV       = "TEXCOORD_0"
	attrColor    = "COLOR_0"
	attrJoints   = "JOINTS_0"
	attrWeights  = "WEIGHTS_0"
)

// BlendShapeFrameWeight is the frame weight given to imported morph
// targets, the weight at which a target is fully applied.
const BlendShapeFrameWeight = 100

// MaterialRef points at a material of a model. A nil Index means the
// primitive had none.
type MaterialRef struct {
	Model *Model
	Index *uint32
}

// Part is the mesh of one node: every primitive becomes a submesh.
type Part struct {
	Model *Model
	Node  uint32
	Mesh  *mesh.Mesh
	// Renderer is nil for nodes without a skin.
	Renderer  *rig.Renderer
	Materials []MaterialRef
}

// Load reads the mesh of node together with its skin.
func (m *Model) Load(node uint32) (*Part, error) {
	if int(node) >= len(m.Doc.Nodes) {
		return nil, errors.Errorf("Node %d out of range in %q", node, m.Path)
	}
	n := m.Doc.Nodes[node]
	if n.Mesh == nil {
		return nil, errors.Errorf("Node %q of %q has no mesh", n.Name, m.Path)
	}
	gm := m.Doc.Meshes[*n.Mesh]

	p := &Part{Model: m, Node: node, Mesh: &mesh.Mesh{Name: gm.Name}}
	if p.Mesh.Name == "" {
		p.Mesh.Name = n.Name
	}

	if err := m.readPrimitives(p, gm); err != nil {
		return nil, errors.Wrapf(err, "Failed to read mesh %q of %q", p.Mesh.Name, m.Path)
	}

	if n.Skin != nil {
		r, err := m.Renderer(*n.Skin)
		if err != nil {
			return nil, err
		}
		p.Renderer = r
		if p.Mesh.BindPoses, err = m.bindPoses(*n.Skin); err != nil {
			return nil, errors.Wrapf(err, "Failed to read skin of %q", n.Name)
		}
	}
	return p, nil
}

// present reports whether every primitive has attr. Attributes missing
// from some primitive are dropped from the whole mesh.
func present(gm *gltf.Mesh, attr string) bool {
	for _, prim := range gm.Primitives {
		if _, ok := prim.Attributes[attr]; !ok {
			return false
		}
	}
	return len(gm.Primitives) != 0
}

func (m *Model) accessor(prim *gltf.Primitive, attr string) *gltf.Accessor {
	return m.Doc.Accessors[prim.Attributes[attr]]
}

func (m *Model) readPrimitives(p *Part, gm *gltf.Mesh) error {
	doc := m.Doc
	out := p.Mesh

	hasNormal := present(gm, attrNormal)
	hasTangent := present(gm, attrTangent)
	hasUV := present(gm, attrUV)
	hasColor := present(gm, attrColor)
	hasSkin := present(gm, attrJoints) && present(gm, attrWeights)

	var targets []*target
	var (
		positions [][3]float32
		normals   [][3]float32
		tangents  [][4]float32
		uvs       [][2]float32
		colors    [][4]uint8
		joints    [][4]uint16
		weights   [][4]float32
		indices   []uint32
		err       error
	)

	for iPrim, prim := range gm.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			return errors.Errorf("primitive %d is not a triangle list", iPrim)
		}
		if _, ok := prim.Attributes[attrPosition]; !ok {
			return errors.Errorf("primitive %d has no positions", iPrim)
		}

		base := len(out.Positions)
		if positions, err = modeler.ReadPosition(doc, m.accessor(prim, attrPosition), positions[:0]); err != nil {
			return errors.Wrapf(err, "primitive %d positions", iPrim)
		}
		count := len(positions)
		for _, v := range positions {
			out.Positions = append(out.Positions, v)
		}

		if hasNormal {
			if normals, err = modeler.ReadNormal(doc, m.accessor(prim, attrNormal), normals[:0]); err != nil {
				return errors.Wrapf(err, "primitive %d normals", iPrim)
			}
			for _, v := range normals {
				out.Normals = append(out.Normals, v)
			}
		}
		if hasTangent {
			if tangents, err = modeler.ReadTangent(doc, m.accessor(prim, attrTangent), tangents[:0]); err != nil {
				return errors.Wrapf(err, "primitive %d tangents", iPrim)
			}
			for _, v := range tangents {
				out.Tangents = append(out.Tangents, v)
			}
		}
		if hasUV {
			if uvs, err = modeler.ReadTextureCoord(doc, m.accessor(prim, attrUV), uvs[:0]); err != nil {
				return errors.Wrapf(err, "primitive %d uvs", iPrim)
			}
			for _, v := range uvs {
				out.UVs = append(out.UVs, v)
			}
		}
		if hasColor {
			if colors, err = modeler.ReadColor(doc, m.accessor(prim, attrColor), colors[:0]); err != nil {
				return errors.Wrapf(err, "primitive %d colors", iPrim)
			}
			for _, c := range colors {
				out.Colors = append(out.Colors, mesh.Color{
					float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255})
			}
		}
		if hasSkin {
			if joints, err = modeler.ReadJoints(doc, m.accessor(prim, attrJoints), joints[:0]); err != nil {
				return errors.Wrapf(err, "primitive %d joints", iPrim)
			}
			if weights, err = modeler.ReadWeights(doc, m.accessor(prim, attrWeights), weights[:0]); err != nil {
				return errors.Wrapf(err, "primitive %d weights", iPrim)
			}
			if len(joints) != count || len(weights) != count {
				return errors.Errorf("primitive %d: %d joints and %d weights for %d vertices", iPrim, len(joints), len(weights), count)
			}
			for i := range joints {
				var bw mesh.BoneWeight
				for k := range bw.Indices {
					bw.Indices[k] = int(joints[i][k])
					bw.Weights[k] = weights[i][k]
				}
				out.BoneWeights = append(out.BoneWeights, bw)
			}
		}

		if prim.Indices != nil {
			if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], indices[:0]); err != nil {
				return errors.Wrapf(err, "primitive %d indices", iPrim)
			}
		} else {
			indices = indices[:0]
			for i := 0; i < count; i++ {
				indices = append(indices, uint32(i))
			}
		}
		sub := make([]int, len(indices))
		for i, idx := range indices {
			sub[i] = base + int(idx)
		}
		out.Submeshes = append(out.Submeshes, sub)
		p.Materials = append(p.Materials, MaterialRef{Model: m, Index: prim.Material})

		for iTarget, attrs := range prim.Targets {
			for len(targets) <= iTarget {
				targets = append(targets, &target{})
			}
			if err := targets[iTarget].read(doc, attrs, base, count); err != nil {
				return errors.Wrapf(err, "primitive %d target %d", iPrim, iTarget)
			}
		}
	}

	names := targetNames(gm.Extras)
	taken := make(map[string]bool, len(targets))
	total := len(out.Positions)
	for i, t := range targets {
		t.pad(total)
		name := fmt.Sprintf("target_%d", i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		shape := out.AddBlendShape(uniqueName(name, taken))
		out.AddFrame(shape, BlendShapeFrameWeight, t.dv, t.dn, t.dt)
	}
	return nil
}

// uniqueName returns name, or name with the first free "_N" suffix when
// it is already taken, and marks the result taken.
func uniqueName(name string, taken map[string]bool) string {
	unique := name
	for i := 1; taken[unique]; i++ {
		unique = fmt.Sprintf("%s_%d", name, i)
	}
	taken[unique] = true
	return unique
}

// target collects one morph target over the primitives of a mesh.
type target struct {
	dv, dn, dt []mgl32.Vec3
}

func (t *target) read(doc *gltf.Document, attrs map[string]uint32, base, count int) error {
	t.pad(base)
	for _, ch := range []struct {
		attr string
		dst  *[]mgl32.Vec3
	}{
		{attrPosition, &t.dv},
		{attrNormal, &t.dn},
		{attrTangent, &t.dt},
	} {
		idx, ok := attrs[ch.attr]
		if !ok {
			continue
		}
		data, err := modeler.ReadAccessor(doc, doc.Accessors[idx], nil)
		if err != nil {
			return errors.Wrapf(err, "%s deltas", ch.attr)
		}
		deltas, ok := data.([][3]float32)
		if !ok || len(deltas) != count {
			return errors.Errorf("%s deltas: unexpected accessor %T", ch.attr, data)
		}
		for _, d := range deltas {
			*ch.dst = append(*ch.dst, d)
		}
	}
	t.pad(base + count)
	return nil
}

// pad extends every channel with zero deltas up to n vertices.
func (t *target) pad(n int) {
	for _, ch := range []*[]mgl32.Vec3{&t.dv, &t.dn, &t.dt} {
		for len(*ch) < n {
			*ch = append(*ch, mgl32.Vec3{})
		}
	}
}

func targetNames(extras interface{}) []string {
	if extras == nil {
		return nil
	}
	var v struct {
		TargetNames []string `json:"targetNames"`
	}
	if err := decodeExtension(extras, &v); err != nil {
		return nil
	}
	return v.TargetNames
}

func (m *Model) bindPoses(skin uint32) ([]mgl32.Mat4, error) {
	s := m.Doc.Skins[skin]
	poses := make([]mgl32.Mat4, len(s.Joints))
	if s.InverseBindMatrices == nil {
		for i := range poses {
			poses[i] = mgl32.Ident4()
		}
		return poses, nil
	}

	data, err := modeler.ReadAccessor(m.Doc, m.Doc.Accessors[*s.InverseBindMatrices], nil)
	if err != nil {
		return nil, err
	}
	mats, ok := data.([][4][4]float32)
	if !ok || len(mats) != len(poses) {
		return nil, errors.Errorf("unexpected inverse bind matrices %T", data)
	}
	for i, c := range mats {
		for col := 0; col < 4; col++ {
			for row := 0; row < 4; row++ {
				poses[i][col*4+row] = c[col][row]
			}
		}
	}
	return poses, nil
}
