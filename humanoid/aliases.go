package humanoid

import (
	"sort"

	"github.com/pkg/errors"
)

// Aliases maps alternative bone names to canonical bones. Keys are stored
// normalized, see Parse for the matching rules.
type Aliases map[string]Bone

// NewAliases builds an alias table from canonical bone name to the list of
// names that should resolve to it, the shape used by merge request files.
func NewAliases(table map[string][]string) (Aliases, error) {
	a := make(Aliases)
	// Sorted so that conflicts are reported deterministically.
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		bone, ok := Parse(k)
		if !ok {
			return nil, errors.Errorf("unknown humanoid bone %q in alias table", k)
		}
		for _, name := range table[k] {
			if err := a.Add(name, bone); err != nil {
				return nil, err
			}
		}
	}
	return a, nil
}

// Add registers name as an alias of bone.
func (a Aliases) Add(name string, bone Bone) error {
	if !bone.Valid() {
		return errors.Errorf("invalid humanoid bone %d", int(bone))
	}
	key := normalize(name)
	if key == "" {
		return errors.Errorf("empty alias for %v", bone)
	}
	if prev, ok := a[key]; ok && prev != bone {
		return errors.Errorf("alias %q is bound to both %v and %v", name, prev, bone)
	}
	a[key] = bone
	return nil
}

// Merge returns a new table holding the entries of a and b. Entries of b win.
func (a Aliases) Merge(b Aliases) Aliases {
	m := make(Aliases, len(a)+len(b))
	for k, v := range a {
		m[k] = v
	}
	for k, v := range b {
		m[k] = v
	}
	return m
}

// Lookup resolves name through the alias table first and the canonical
// names second. A nil table only resolves canonical names.
func (a Aliases) Lookup(name string) (Bone, bool) {
	if b, ok := a[normalize(name)]; ok {
		return b, true
	}
	return Parse(name)
}

// Mixamo holds the bone names used by Mixamo rigs. The "mixamorig:" prefix
// is dropped by normalization.
var Mixamo = func() Aliases {
	a := Aliases{
		"spine1": Chest,
		"spine2": UpperChest,
	}
	for _, side := range [2]struct {
		name                                         string
		upperLeg, lowerLeg, toes, upperArm, lowerArm Bone
		thumb, index, middle, ring, little           Bone
	}{
		{"left", LeftUpperLeg, LeftLowerLeg, LeftToes, LeftUpperArm, LeftLowerArm,
			LeftThumbProximal, LeftIndexProximal, LeftMiddleProximal, LeftRingProximal, LeftLittleProximal},
		{"right", RightUpperLeg, RightLowerLeg, RightToes, RightUpperArm, RightLowerArm,
			RightThumbProximal, RightIndexProximal, RightMiddleProximal, RightRingProximal, RightLittleProximal},
	} {
		a[side.name+"upleg"] = side.upperLeg
		a[side.name+"leg"] = side.lowerLeg
		a[side.name+"toebase"] = side.toes
		a[side.name+"arm"] = side.upperArm
		a[side.name+"forearm"] = side.lowerArm
		for _, f := range [...]struct {
			name string
			bone Bone
		}{
			{"thumb", side.thumb},
			{"index", side.index},
			{"middle", side.middle},
			{"ring", side.ring},
			{"pinky", side.little},
		} {
			// Proximal, Intermediate and Distal are consecutive.
			for i, n := range [3]string{"1", "2", "3"} {
				a[side.name+"hand"+f.name+n] = f.bone + Bone(i)
			}
		}
	}
	return a
}()

// ParseVRM1 resolves a VRM 1.0 humanoid bone name. VRM 1.0 renamed the
// thumb chain (metacarpal, proximal, distal), which shifts it by one
// relative to the canonical names.
func ParseVRM1(name string) (Bone, bool) {
	switch normalize(name) {
	case "leftthumbmetacarpal":
		return LeftThumbProximal, true
	case "leftthumbproximal":
		return LeftThumbIntermediate, true
	case "rightthumbmetacarpal":
		return RightThumbProximal, true
	case "rightthumbproximal":
		return RightThumbIntermediate, true
	}
	return Parse(name)
}
