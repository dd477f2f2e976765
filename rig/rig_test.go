package rig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lxteo/UnitySkinnedMeshCombiner/humanoid"
)

func TestNodeBoneID(t *testing.T) {
	a := NodeBoneID("models/body.glb", 3)
	b := NodeBoneID("models/body.glb", 3)
	c := NodeBoneID("models/body.glb", 4)
	d := NodeBoneID("models/hair.glb", 3)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.NotEqual(t, NilBone, a)
	assert.NotEqual(t, NewBoneID(), NewBoneID())
}

func TestBuildAvatar(t *testing.T) {
	ids := []BoneID{NewBoneID(), NewBoneID(), NewBoneID(), NewBoneID(), NewBoneID()}
	names := []string{"Armature", "mixamorig:Hips", "Hips", "mixamorig:Spine1", "hair_01"}

	a := BuildAvatar(ids, names, humanoid.Mixamo)

	id, ok := a.BoneTransform(humanoid.Hips)
	require.True(t, ok)
	assert.Equal(t, ids[1], id, "first match wins")

	id, ok = a.BoneTransform(humanoid.Chest)
	require.True(t, ok)
	assert.Equal(t, ids[3], id)

	_, ok = a.BoneTransform(humanoid.Head)
	assert.False(t, ok)
	assert.Len(t, a, 2)
}

func TestBuildAvatarShortIDs(t *testing.T) {
	a := BuildAvatar([]BoneID{NewBoneID()}, []string{"Hips", "Spine"}, nil)
	assert.Len(t, a, 1)
}
