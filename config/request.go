// Package config reads merge requests: which meshes to combine, where to
// place them and how.
package config

import (
	"bytes"
	"io/ioutil"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lxteo/UnitySkinnedMeshCombiner/combiner"
	"github.com/lxteo/UnitySkinnedMeshCombiner/humanoid"
	"github.com/lxteo/UnitySkinnedMeshCombiner/mesh"
	"github.com/lxteo/UnitySkinnedMeshCombiner/utils"
)

// Source selects the mesh of one node. The first source of a request is
// the main one.
type Source struct {
	File string `yaml:"file"`
	// Node is the node name; empty picks the first mesh node.
	Node string `yaml:"node"`
	// Primitive selects one primitive; nil takes all of them, each
	// becoming its own submesh.
	Primitive *int `yaml:"primitive"`

	Translation [3]float32 `yaml:"translation"`
	// Rotation is in euler degrees.
	Rotation [3]float32 `yaml:"rotation"`
	// Scale defaults to 1.
	Scale *[3]float32 `yaml:"scale"`
}

// Transform returns translation * rotation * scale.
func (s *Source) Transform() mgl32.Mat4 {
	scale := mgl32.Vec3{1, 1, 1}
	if s.Scale != nil {
		scale = *s.Scale
	}
	return utils.TRS(s.Translation, utils.EulerToQuat(s.Rotation), scale)
}

type Options struct {
	MaxVertices int `yaml:"max_vertices"`
	// Index16 limits the result to what 16-bit indices can address.
	Index16           bool        `yaml:"index16"`
	SubstituteMissing bool        `yaml:"substitute_missing"`
	MatchSharedBones  bool        `yaml:"match_shared_bones"`
	DefaultColor      *[4]float32 `yaml:"default_color"`
	Verbose           bool        `yaml:"verbose"`
}

type Request struct {
	// Output is the file written by the command line tool.
	Output  string   `yaml:"output"`
	Sources []Source `yaml:"sources"`
	Options Options  `yaml:"options"`

	// BoneAliases maps canonical bone names to extra names resolving to
	// them, on top of the Mixamo names.
	BoneAliases     map[string][]string `yaml:"bone_aliases"`
	BoneAliasesFile string              `yaml:"bone_aliases_file"`

	// BaseDir resolves relative paths. Load sets it to the directory of
	// the request file.
	BaseDir string `yaml:"-"`
}

func Load(path string) (*Request, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read request")
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes a YAML request. Unknown fields are rejected.
func Parse(data []byte, baseDir string) (*Request, error) {
	r := &Request{BaseDir: baseDir}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(r); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse request")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Request) Validate() error {
	if len(r.Sources) == 0 {
		return errors.Errorf("Request has no sources")
	}
	for i, s := range r.Sources {
		if s.File == "" {
			return errors.Errorf("Source %d has no file", i)
		}
		if s.Primitive != nil && *s.Primitive < 0 {
			return errors.Errorf("Source %d: negative primitive %d", i, *s.Primitive)
		}
	}
	if r.Options.MaxVertices < 0 {
		return errors.Errorf("Negative max_vertices %d", r.Options.MaxVertices)
	}
	return nil
}

// Path resolves p against BaseDir.
func (r *Request) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || r.BaseDir == "" {
		return p
	}
	return filepath.Join(r.BaseDir, p)
}

// Aliases returns the Mixamo names extended by the request's own aliases.
func (r *Request) Aliases() (humanoid.Aliases, error) {
	a := humanoid.Mixamo
	if r.BoneAliasesFile != "" {
		file, err := LoadBoneAliases(r.Path(r.BoneAliasesFile))
		if err != nil {
			return nil, err
		}
		a = a.Merge(file)
	}
	if len(r.BoneAliases) != 0 {
		own, err := humanoid.NewAliases(r.BoneAliases)
		if err != nil {
			return nil, errors.Wrapf(err, "Invalid bone_aliases")
		}
		a = a.Merge(own)
	}
	return a, nil
}

// CombinerOptions converts Options. The logger is only kept when Verbose
// is set.
func (r *Request) CombinerOptions(logger *mesh.Logger) combiner.Options {
	o := combiner.Options{
		MaxVertices:       r.Options.MaxVertices,
		SubstituteMissing: r.Options.SubstituteMissing,
		MatchSharedBones:  r.Options.MatchSharedBones,
	}
	if r.Options.Index16 && (o.MaxVertices == 0 || o.MaxVertices > combiner.MaxVertices16) {
		o.MaxVertices = combiner.MaxVertices16
	}
	if r.Options.DefaultColor != nil {
		c := mgl32.Vec4(*r.Options.DefaultColor)
		o.DefaultColor = &c
	}
	if r.Options.Verbose {
		o.Logger = logger
	}
	return o
}
