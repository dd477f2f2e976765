// Package combiner merges skinned meshes into one mesh with one submesh per
// source, remapping bone weights onto the skeleton of the first (main)
// source and carrying over its blend shapes.
package combiner

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lxteo/UnitySkinnedMeshCombiner/mesh"
	"github.com/lxteo/UnitySkinnedMeshCombiner/rig"
)

// Instance is one submesh of a mesh asset placed in the combined mesh.
type Instance struct {
	Mesh    mesh.Source
	Submesh int

	// Renderer is the skeleton the mesh's bone weights refer to. Nil means
	// the source is not skinned and its vertices get zero bone weights.
	Renderer *rig.Renderer
	Animator rig.Animator

	// Transform is applied to positions. The zero matrix means identity.
	Transform mgl32.Mat4

	Material interface{}
}

const (
	// MaxVertices16 is the vertex count addressable by 16-bit indices.
	MaxVertices16 = 65535
	// DefaultMaxVertices is used when Options.MaxVertices is not set.
	DefaultMaxVertices = 1<<31 - 1
)

type Options struct {
	// MaxVertices caps the combined vertex count.
	MaxVertices int

	// SubstituteMissing replaces absent UV, normal, tangent and bone
	// weight arrays with defaults instead of failing.
	SubstituteMissing bool

	// MatchSharedBones maps a secondary bone straight to the main bone
	// with the same identity before trying humanoid roles, keeping
	// non-humanoid bones of a shared armature.
	MatchSharedBones bool

	// DefaultColor is used for sources without vertex colors.
	// Nil means opaque white.
	DefaultColor *mgl32.Vec4

	Logger *mesh.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxVertices <= 0 {
		o.MaxVertices = DefaultMaxVertices
	}
	if o.DefaultColor == nil {
		white := mgl32.Vec4{1, 1, 1, 1}
		o.DefaultColor = &white
	}
	return o
}

// Stats describes a finished merge.
type Stats struct {
	Vertices         int
	Indices          int
	SubmeshVertices  []int
	MappingRebuilds  int
	RemappedSlots    int
	ZeroedSlots      int
	BlendShapes      int
	BlendShapeFrames int
}

// Result is the output of a merge. It does not alias workspace memory.
type Result struct {
	Mesh *mesh.Mesh
	// Materials holds Instance.Material for each submesh.
	Materials []interface{}
	// Assignments maps, per submesh, a local vertex of the source mesh to
	// its combined vertex.
	Assignments []Assignment
	Stats       Stats
}
