package combiner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lxteo/UnitySkinnedMeshCombiner/humanoid"
	"github.com/lxteo/UnitySkinnedMeshCombiner/mesh"
	"github.com/lxteo/UnitySkinnedMeshCombiner/rig"
)

func TestBoneMappingRebuild(t *testing.T) {
	mr, ma, or, oa := mainAndOther()
	main := &Instance{Renderer: mr, Animator: ma}
	hat := &Instance{Renderer: or, Animator: oa}

	var bm BoneMapping
	bm.Rebuild(hat, main, false)
	assert.Equal(t, []int{2, NoBone, 0}, bm.Table())

	for _, tc := range []struct {
		bone, want int
	}{
		{0, 2},
		{1, NoBone},
		{2, 0},
		{3, NoBone},
		{-1, NoBone},
	} {
		assert.Equal(t, tc.want, bm.Lookup(tc.bone), "bone %d", tc.bone)
	}

	// a rebuild forgets the previous skeleton
	_, other := skeleton("other", "Spine")
	bm.Rebuild(&Instance{Renderer: &rig.Renderer{Bones: []rig.BoneID{other[humanoid.Spine]}}, Animator: other}, main, false)
	assert.Equal(t, []int{1}, bm.Table())
}

func TestBoneMappingStages(t *testing.T) {
	mr, ma := skeleton("body", "Hips", "Spine", "Head")
	hatR, hatA := skeleton("hat", "Head", "Chest")

	// role known on both sides but the main animator's bone is not part of
	// the main renderer
	stray := rig.NewBoneID()
	ma[humanoid.Chest] = stray

	var bm BoneMapping
	bm.Rebuild(&Instance{Renderer: hatR, Animator: hatA}, &Instance{Renderer: mr, Animator: ma}, false)
	assert.Equal(t, []int{2, NoBone}, bm.Table())

	// no main animator at all
	bm.Rebuild(&Instance{Renderer: hatR, Animator: hatA}, &Instance{Renderer: mr}, false)
	assert.Equal(t, []int{NoBone, NoBone}, bm.Table())

	// no secondary animator
	bm.Rebuild(&Instance{Renderer: hatR}, &Instance{Renderer: mr, Animator: ma}, false)
	assert.Equal(t, []int{NoBone, NoBone}, bm.Table())
}

func TestBoneMappingSharedBones(t *testing.T) {
	mr, ma := skeleton("body", "Hips", "Spine", "Head", "Tail")
	// the cape reuses the body's tail bone, which has no humanoid role
	capeR := &rig.Renderer{Name: "cape", Bones: []rig.BoneID{mr.Bones[3], rig.NewBoneID()}}
	capeA := rig.Avatar{humanoid.Hips: capeR.Bones[1]}

	main := &Instance{Renderer: mr, Animator: ma}
	cape := &Instance{Renderer: capeR, Animator: capeA}

	var bm BoneMapping
	bm.Rebuild(cape, main, false)
	assert.Equal(t, []int{NoBone, 0}, bm.Table())

	bm.Rebuild(cape, main, true)
	assert.Equal(t, []int{3, 0}, bm.Table())
}

func TestBoneMappingFirstRoleWins(t *testing.T) {
	mr, ma := skeleton("body", "Hips", "Spine")
	id := rig.NewBoneID()
	// one bone registered for two roles keeps the earlier role
	sec := rig.Avatar{humanoid.Hips: id, humanoid.Spine: id}

	var bm BoneMapping
	bm.Rebuild(&Instance{Renderer: &rig.Renderer{Bones: []rig.BoneID{id}}, Animator: sec},
		&Instance{Renderer: mr, Animator: ma}, false)
	assert.Equal(t, []int{0}, bm.Table())
}

func TestBoneMappingRemap(t *testing.T) {
	mr, ma, or, oa := mainAndOther()
	var bm BoneMapping
	bm.Rebuild(&Instance{Renderer: or, Animator: oa}, &Instance{Renderer: mr, Animator: ma}, false)

	for _, tc := range []struct {
		in, want mesh.BoneWeight
	}{
		{
			mesh.BoneWeight{Indices: [4]int{0, 2, 0, 0}, Weights: [4]float32{0.6, 0.4, 0, 0}},
			mesh.BoneWeight{Indices: [4]int{2, 0, 2, 2}, Weights: [4]float32{0.6, 0.4, 0, 0}},
		},
		{
			// unmapped and out of range influences drop to bone 0 with
			// weight 0, the rest is not renormalized
			mesh.BoneWeight{Indices: [4]int{1, 0, 9, -3}, Weights: [4]float32{0.5, 0.25, 0.15, 0.1}},
			mesh.BoneWeight{Indices: [4]int{0, 2, 0, 0}, Weights: [4]float32{0, 0.25, 0, 0}},
		},
	} {
		assert.Equal(t, tc.want, bm.Remap(tc.in))
	}
}

func TestBoneMappingEmpty(t *testing.T) {
	var bm BoneMapping
	assert.Equal(t, NoBone, bm.Lookup(0))
	w := bm.Remap(mesh.BoneWeight{Indices: [4]int{1, 2, 3, 4}, Weights: [4]float32{1, 1, 1, 1}})
	assert.Equal(t, mesh.BoneWeight{}, w)
}
