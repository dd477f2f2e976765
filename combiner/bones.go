package combiner

import (
	"github.com/lxteo/UnitySkinnedMeshCombiner/humanoid"
	"github.com/lxteo/UnitySkinnedMeshCombiner/mesh"
	"github.com/lxteo/UnitySkinnedMeshCombiner/rig"
)

// NoBone marks a secondary bone without an equivalent in the main skeleton.
const NoBone = -1

// BoneMapping translates the bone indices of a secondary renderer into the
// bone indices of the main renderer. Bones are matched through their
// humanoid role in three stages:
//
//	secondary bone -> humanoid role   (secondary animator)
//	humanoid role  -> main bone       (main animator)
//	main bone      -> main local index (main renderer)
//
// A bone for which any stage fails maps to NoBone.
type BoneMapping struct {
	toHuman   map[rig.BoneID]humanoid.Bone
	fromHuman map[humanoid.Bone]rig.BoneID
	toLocal   map[rig.BoneID]int
	table     []int
}

func (bm *BoneMapping) reset() {
	if bm.toHuman == nil {
		bm.toHuman = make(map[rig.BoneID]humanoid.Bone)
		bm.fromHuman = make(map[humanoid.Bone]rig.BoneID)
		bm.toLocal = make(map[rig.BoneID]int)
	}
	for k := range bm.toHuman {
		delete(bm.toHuman, k)
	}
	for k := range bm.fromHuman {
		delete(bm.fromHuman, k)
	}
	for k := range bm.toLocal {
		delete(bm.toLocal, k)
	}
	bm.table = bm.table[:0]
}

// Rebuild recomputes the table for the renderer of secondary against the
// renderer of main. With shared set, a secondary bone that is itself part
// of the main renderer maps to it directly.
func (bm *BoneMapping) Rebuild(secondary, main *Instance, shared bool) {
	bm.reset()

	for b := humanoid.Hips; b < humanoid.LastBone; b++ {
		if secondary.Animator != nil {
			if id, ok := secondary.Animator.BoneTransform(b); ok {
				if _, dup := bm.toHuman[id]; !dup {
					bm.toHuman[id] = b
				}
			}
		}
		if main.Animator != nil {
			if id, ok := main.Animator.BoneTransform(b); ok {
				bm.fromHuman[b] = id
			}
		}
	}

	if main.Renderer != nil {
		for i, id := range main.Renderer.Bones {
			bm.toLocal[id] = i
		}
	}

	if secondary.Renderer == nil {
		return
	}
	for _, id := range secondary.Renderer.Bones {
		bm.table = append(bm.table, bm.resolve(id, shared))
	}
}

func (bm *BoneMapping) resolve(id rig.BoneID, shared bool) int {
	if shared {
		if i, ok := bm.toLocal[id]; ok {
			return i
		}
	}
	role, ok := bm.toHuman[id]
	if !ok {
		return NoBone
	}
	mainID, ok := bm.fromHuman[role]
	if !ok {
		return NoBone
	}
	i, ok := bm.toLocal[mainID]
	if !ok {
		return NoBone
	}
	return i
}

// Table returns the mapping indexed by secondary bone index. It is only
// valid until the next Rebuild.
func (bm *BoneMapping) Table() []int { return bm.table }

// Lookup maps one secondary bone index. Indices outside the table have no
// equivalent.
func (bm *BoneMapping) Lookup(bone int) int {
	if bone < 0 || bone >= len(bm.table) {
		return NoBone
	}
	return bm.table[bone]
}

// Remap rewrites the four influences of w. An influence whose bone has no
// equivalent is moved to bone 0 with weight 0. The remaining weights are
// left as they are, not renormalized.
func (bm *BoneMapping) Remap(w mesh.BoneWeight) mesh.BoneWeight {
	w, _ = bm.remap(w)
	return w
}

func (bm *BoneMapping) remap(w mesh.BoneWeight) (mesh.BoneWeight, int) {
	zeroed := 0
	for k := range w.Indices {
		if to := bm.Lookup(w.Indices[k]); to == NoBone {
			w.Indices[k] = 0
			w.Weights[k] = 0
			zeroed++
		} else {
			w.Indices[k] = to
		}
	}
	return w, zeroed
}
