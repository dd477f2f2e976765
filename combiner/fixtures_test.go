package combiner

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lxteo/UnitySkinnedMeshCombiner/mesh"
	"github.com/lxteo/UnitySkinnedMeshCombiner/rig"
)

var testWeight = mesh.BoneWeight{
	Indices: [4]int{0, 1, 2, 0},
	Weights: [4]float32{0.5, 0.3, 0.2, 0},
}

func fill[T any](n int, v T) []T {
	a := make([]T, n)
	for i := range a {
		a[i] = v
	}
	return a
}

// quadMesh is two triangles over four vertices.
func quadMesh() *mesh.Mesh {
	return &mesh.Mesh{
		Name:        "quad",
		Positions:   []mesh.Position{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		UVs:         []mesh.UV{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Normals:     fill(4, mesh.Normal{0, 0, 1}),
		Tangents:    fill(4, mesh.Tangent{1, 0, 0, 1}),
		Colors:      fill(4, mesh.Color{1, 0, 0, 1}),
		BoneWeights: fill(4, testWeight),
		Submeshes:   [][]int{{0, 1, 2, 0, 2, 3}},
		BindPoses:   fill(3, mgl32.Ident4()),
	}
}

// triMesh is one triangle without vertex colors.
func triMesh() *mesh.Mesh {
	return &mesh.Mesh{
		Name:        "tri",
		Positions:   []mesh.Position{{0, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		UVs:         []mesh.UV{{0, 0}, {0, 1}, {1, 0}},
		Normals:     fill(3, mesh.Normal{1, 0, 0}),
		Tangents:    fill(3, mesh.Tangent{0, 1, 0, -1}),
		BoneWeights: fill(3, testWeight),
		Submeshes:   [][]int{{0, 1, 2}},
	}
}

func skeleton(name string, bones ...string) (*rig.Renderer, rig.Avatar) {
	ids := make([]rig.BoneID, len(bones))
	for i := range ids {
		ids[i] = rig.NewBoneID()
	}
	return &rig.Renderer{Name: name, Bones: ids}, rig.BuildAvatar(ids, bones, nil)
}

// mainAndOther returns the main skeleton (Hips, Spine, Head) and a second
// skeleton (Head, Tail, Hips) whose Tail has no humanoid role.
func mainAndOther() (mr *rig.Renderer, ma rig.Avatar, or *rig.Renderer, oa rig.Avatar) {
	mr, ma = skeleton("body", "Hips", "Spine", "Head")
	or, oa = skeleton("hat", "Head", "Tail", "Hips")
	return
}
