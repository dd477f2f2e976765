// Package humanoid defines the closed set of canonical humanoid bone roles
// used to bridge two independently indexed skeletons.
package humanoid

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/width"
	"gopkg.in/yaml.v3"
)

// Bone is a canonical humanoid bone role.
type Bone int

// Bones, in engine order. LastBone is the exclusive upper bound.
const (
	Hips Bone = iota
	LeftUpperLeg
	RightUpperLeg
	LeftLowerLeg
	RightLowerLeg
	LeftFoot
	RightFoot
	Spine
	Chest
	Neck
	Head
	LeftShoulder
	RightShoulder
	LeftUpperArm
	RightUpperArm
	LeftLowerArm
	RightLowerArm
	LeftHand
	RightHand
	LeftToes
	RightToes
	LeftEye
	RightEye
	Jaw
	LeftThumbProximal
	LeftThumbIntermediate
	LeftThumbDistal
	LeftIndexProximal
	LeftIndexIntermediate
	LeftIndexDistal
	LeftMiddleProximal
	LeftMiddleIntermediate
	LeftMiddleDistal
	LeftRingProximal
	LeftRingIntermediate
	LeftRingDistal
	LeftLittleProximal
	LeftLittleIntermediate
	LeftLittleDistal
	RightThumbProximal
	RightThumbIntermediate
	RightThumbDistal
	RightIndexProximal
	RightIndexIntermediate
	RightIndexDistal
	RightMiddleProximal
	RightMiddleIntermediate
	RightMiddleDistal
	RightRingProximal
	RightRingIntermediate
	RightRingDistal
	RightLittleProximal
	RightLittleIntermediate
	RightLittleDistal
	UpperChest

	LastBone
)

var boneNames = [LastBone]string{
	"Hips",
	"LeftUpperLeg",
	"RightUpperLeg",
	"LeftLowerLeg",
	"RightLowerLeg",
	"LeftFoot",
	"RightFoot",
	"Spine",
	"Chest",
	"Neck",
	"Head",
	"LeftShoulder",
	"RightShoulder",
	"LeftUpperArm",
	"RightUpperArm",
	"LeftLowerArm",
	"RightLowerArm",
	"LeftHand",
	"RightHand",
	"LeftToes",
	"RightToes",
	"LeftEye",
	"RightEye",
	"Jaw",
	"LeftThumbProximal",
	"LeftThumbIntermediate",
	"LeftThumbDistal",
	"LeftIndexProximal",
	"LeftIndexIntermediate",
	"LeftIndexDistal",
	"LeftMiddleProximal",
	"LeftMiddleIntermediate",
	"LeftMiddleDistal",
	"LeftRingProximal",
	"LeftRingIntermediate",
	"LeftRingDistal",
	"LeftLittleProximal",
	"LeftLittleIntermediate",
	"LeftLittleDistal",
	"RightThumbProximal",
	"RightThumbIntermediate",
	"RightThumbDistal",
	"RightIndexProximal",
	"RightIndexIntermediate",
	"RightIndexDistal",
	"RightMiddleProximal",
	"RightMiddleIntermediate",
	"RightMiddleDistal",
	"RightRingProximal",
	"RightRingIntermediate",
	"RightRingDistal",
	"RightLittleProximal",
	"RightLittleIntermediate",
	"RightLittleDistal",
	"UpperChest",
}

// normalized name -> bone
var byName = func() map[string]Bone {
	m := make(map[string]Bone, LastBone)
	for b := Hips; b < LastBone; b++ {
		m[normalize(boneNames[b])] = b
	}
	return m
}()

// Valid reports whether b is inside [Hips, LastBone).
func (b Bone) Valid() bool { return b >= Hips && b < LastBone }

// String implements fmt.Stringer.
func (b Bone) String() string {
	if !b.Valid() {
		return "!humanoid.Bone"
	}
	return boneNames[b]
}

// MarshalText implements encoding.TextMarshaler.
func (b Bone) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, errors.Errorf("invalid humanoid bone %d", int(b))
	}
	return []byte(boneNames[b]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bone) UnmarshalText(text []byte) error {
	v, ok := Parse(string(text))
	if !ok {
		return errors.Errorf("unknown humanoid bone %q", string(text))
	}
	*b = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Bone) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return b.UnmarshalText([]byte(s))
}

// All returns every bone from Hips up to, but excluding, LastBone.
func All() []Bone {
	bones := make([]Bone, 0, LastBone)
	for b := Hips; b < LastBone; b++ {
		bones = append(bones, b)
	}
	return bones
}

// Parse resolves a bone by its canonical name. Matching ignores case,
// separators, character width and a leading "namespace:" part, so "hips",
// "Left_Upper_Leg", "rig:LeftHand" and "Ｈｅａｄ" all resolve.
func Parse(name string) (Bone, bool) {
	b, ok := byName[normalize(name)]
	return b, ok
}

func normalize(name string) string {
	name = width.Fold.String(name)
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}
