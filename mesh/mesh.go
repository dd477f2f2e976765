// Package mesh holds mesh attribute data and the read contract the combiner
// consumes it through.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Position = mgl32.Vec3
type UV = mgl32.Vec2
type Normal = mgl32.Vec3
type Tangent = mgl32.Vec4 // w is the bitangent sign
type Color = mgl32.Vec4   // rgba, 0..1

// BoneWeight is how up to four bones influence a vertex.
// Indices address the bone list of the renderer the mesh is bound to.
type BoneWeight struct {
	Indices [4]int
	Weights [4]float32
}

// BlendShapeFrame is one keyframe of a morph target.
type BlendShapeFrame struct {
	Weight         float32
	DeltaPositions []mgl32.Vec3
	DeltaNormals   []mgl32.Vec3
	DeltaTangents  []mgl32.Vec3
}

type BlendShape struct {
	Name   string
	Frames []BlendShapeFrame
}

// Mesh is a plain mesh asset: shared per-vertex buffers and one triangle
// index list per submesh. It is both what the combiner reads (through
// Source) and what it produces.
type Mesh struct {
	Name string

	Positions   []Position
	UVs         []UV
	Normals     []Normal
	Tangents    []Tangent
	Colors      []Color
	BoneWeights []BoneWeight

	Submeshes   [][]int
	BindPoses   []mgl32.Mat4
	BlendShapes []BlendShape

	Bounds Bounds
}

// VertexCount returns the number of vertices, as given by the position buffer.
func (m *Mesh) VertexCount() int { return len(m.Positions) }

// SubmeshCount returns the number of index lists.
func (m *Mesh) SubmeshCount() int { return len(m.Submeshes) }

// AddBlendShape starts a new blend shape without frames and returns its
// index. Names need not be unique.
func (m *Mesh) AddBlendShape(name string) int {
	m.BlendShapes = append(m.BlendShapes, BlendShape{Name: name})
	return len(m.BlendShapes) - 1
}

// AddFrame appends a frame to blend shape shape. The delta slices are copied.
func (m *Mesh) AddFrame(shape int, weight float32, dv, dn, dt []mgl32.Vec3) {
	bs := &m.BlendShapes[shape]
	bs.Frames = append(bs.Frames, BlendShapeFrame{
		Weight:         weight,
		DeltaPositions: append([]mgl32.Vec3(nil), dv...),
		DeltaNormals:   append([]mgl32.Vec3(nil), dn...),
		DeltaTangents:  append([]mgl32.Vec3(nil), dt...),
	})
}

// AddBlendShapeFrame appends a frame to the first blend shape called name,
// creating the shape if there is none.
func (m *Mesh) AddBlendShapeFrame(name string, weight float32, dv, dn, dt []mgl32.Vec3) {
	shape := m.BlendShapeIndex(name)
	if shape < 0 {
		shape = m.AddBlendShape(name)
	}
	m.AddFrame(shape, weight, dv, dn, dt)
}

// BlendShapeIndex returns the index of the first blend shape called name
// or -1.
func (m *Mesh) BlendShapeIndex(name string) int {
	for i := range m.BlendShapes {
		if m.BlendShapes[i].Name == name {
			return i
		}
	}
	return -1
}

// RecalculateBounds recomputes Bounds from the positions.
func (m *Mesh) RecalculateBounds() {
	m.Bounds = BoundsOf(m.Positions)
}
