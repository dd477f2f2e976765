package combiner

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lxteo/UnitySkinnedMeshCombiner/mesh"
)

// TransplantBlendShapes copies every blend shape frame of src onto dst,
// moving the delta of src's local vertex j to dst vertex assign[j]. Target
// vertices nothing moves onto keep a zero delta. Local vertices assign does
// not cover are dropped. Every source channel with frames becomes its own
// channel of dst, even when names repeat, in the same order.
//
// It returns the number of frames added to dst.
func TransplantBlendShapes(src mesh.Source, dst *mesh.Mesh, assign Assignment) int {
	shapes := src.BlendShapeCount()
	if shapes <= 0 {
		return 0
	}

	n := src.VertexCount()
	in := make([]mgl32.Vec3, 3*n)
	inV, inN, inT := in[:n], in[n:2*n], in[2*n:]

	m := dst.VertexCount()
	out := make([]mgl32.Vec3, 3*m)
	outV, outN, outT := out[:m], out[m:2*m], out[2*m:]

	frames := 0
	for s := 0; s < shapes; s++ {
		count := src.BlendShapeFrameCount(s)
		if count <= 0 {
			continue
		}
		shape := dst.AddBlendShape(src.BlendShapeName(s))
		for f := 0; f < count; f++ {
			src.GetBlendShapeFrameVertices(s, f, inV, inN, inT)
			for i := range out {
				out[i] = mgl32.Vec3{}
			}
			for j := 0; j < n && j < len(assign); j++ {
				c := assign[j]
				if c == Unassigned || c >= m {
					continue
				}
				outV[c] = inV[j]
				outN[c] = inN[j]
				outT[c] = inT[j]
			}
			dst.AddFrame(shape, src.BlendShapeFrameWeight(s, f), outV, outN, outT)
			frames++
		}
	}
	return frames
}
