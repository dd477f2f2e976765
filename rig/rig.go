// Package rig describes the skeleton side of a skinned mesh: the ordered
// bones a renderer is bound to and the humanoid lookup of an animator.
package rig

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/lxteo/UnitySkinnedMeshCombiner/humanoid"
)

// BoneID identifies a bone transform. Two skeletons share a bone only if
// they hold the same BoneID.
type BoneID uuid.UUID

// NilBone is the zero BoneID.
var NilBone BoneID

// NewBoneID returns a fresh random identity.
func NewBoneID() BoneID {
	return BoneID(uuid.New())
}

// NodeBoneID returns the identity of node inside space (typically a file
// path). The same space and node always yield the same identity, so
// skeletons loaded twice from one file still share their bones.
func NodeBoneID(space string, node int) BoneID {
	return BoneID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(space+"#"+strconv.Itoa(node))))
}

func (id BoneID) String() string { return uuid.UUID(id).String() }

// Renderer binds a mesh's bone weight records to an ordered bone list.
// Bone weight indices address Bones. Renderers are compared by pointer:
// instances sharing a *Renderer share a skeleton.
type Renderer struct {
	Name  string
	Bones []BoneID
}

// Animator resolves humanoid bone roles to bone transforms.
type Animator interface {
	// BoneTransform returns the bone playing role b, if any.
	BoneTransform(b humanoid.Bone) (BoneID, bool)
}

// Avatar is a map based Animator.
type Avatar map[humanoid.Bone]BoneID

// BoneTransform implements Animator.
func (a Avatar) BoneTransform(b humanoid.Bone) (BoneID, bool) {
	id, ok := a[b]
	return id, ok
}

// BuildAvatar resolves names[i] through aliases and binds the resulting
// humanoid bone to ids[i]. When two names resolve to the same bone the
// first one wins.
func BuildAvatar(ids []BoneID, names []string, aliases humanoid.Aliases) Avatar {
	a := make(Avatar)
	for i, name := range names {
		if i >= len(ids) {
			break
		}
		b, ok := aliases.Lookup(name)
		if !ok {
			continue
		}
		if _, taken := a[b]; !taken {
			a[b] = ids[i]
		}
	}
	return a
}
