package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Source is read access to a mesh asset.
//
// The Get methods reuse dst: they truncate it, append the data and return
// the result, so a caller looping over many meshes allocates once. Arrays
// are addressed by the local vertex index [0, VertexCount()). An attribute
// the mesh does not have comes back empty.
type Source interface {
	VertexCount() int
	SubmeshCount() int

	GetIndices(dst []int, submesh int) []int
	GetPositions(dst []Position) []Position
	GetUVs(dst []UV) []UV
	GetNormals(dst []Normal) []Normal
	GetTangents(dst []Tangent) []Tangent
	GetColors(dst []Color) []Color
	GetBoneWeights(dst []BoneWeight) []BoneWeight
	GetBindPoses() []mgl32.Mat4

	BlendShapeCount() int
	BlendShapeName(shape int) string
	BlendShapeFrameCount(shape int) int
	BlendShapeFrameWeight(shape, frame int) float32
	// GetBlendShapeFrameVertices fills dv, dn and dt (each sized to
	// VertexCount) with the deltas of a frame. Missing deltas are zeroed.
	GetBlendShapeFrameVertices(shape, frame int, dv, dn, dt []mgl32.Vec3)
}

var _ Source = (*Mesh)(nil)

func (m *Mesh) GetIndices(dst []int, submesh int) []int {
	if submesh < 0 || submesh >= len(m.Submeshes) {
		return dst[:0]
	}
	return append(dst[:0], m.Submeshes[submesh]...)
}

func (m *Mesh) GetPositions(dst []Position) []Position { return append(dst[:0], m.Positions...) }
func (m *Mesh) GetUVs(dst []UV) []UV                   { return append(dst[:0], m.UVs...) }
func (m *Mesh) GetNormals(dst []Normal) []Normal       { return append(dst[:0], m.Normals...) }
func (m *Mesh) GetTangents(dst []Tangent) []Tangent    { return append(dst[:0], m.Tangents...) }
func (m *Mesh) GetColors(dst []Color) []Color          { return append(dst[:0], m.Colors...) }

func (m *Mesh) GetBoneWeights(dst []BoneWeight) []BoneWeight {
	return append(dst[:0], m.BoneWeights...)
}

func (m *Mesh) GetBindPoses() []mgl32.Mat4 {
	return append([]mgl32.Mat4(nil), m.BindPoses...)
}

func (m *Mesh) BlendShapeCount() int { return len(m.BlendShapes) }

func (m *Mesh) BlendShapeName(shape int) string { return m.BlendShapes[shape].Name }

func (m *Mesh) BlendShapeFrameCount(shape int) int { return len(m.BlendShapes[shape].Frames) }

func (m *Mesh) BlendShapeFrameWeight(shape, frame int) float32 {
	return m.BlendShapes[shape].Frames[frame].Weight
}

func (m *Mesh) GetBlendShapeFrameVertices(shape, frame int, dv, dn, dt []mgl32.Vec3) {
	f := &m.BlendShapes[shape].Frames[frame]
	fill(dv, f.DeltaPositions)
	fill(dn, f.DeltaNormals)
	fill(dt, f.DeltaTangents)
}

// fill copies src into dst and zeroes whatever src does not cover.
func fill(dst, src []mgl32.Vec3) {
	n := copy(dst, src)
	for i := n; i < len(dst); i++ {
		dst[i] = mgl32.Vec3{}
	}
}
