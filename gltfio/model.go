// Package gltfio loads skinned meshes and their skeletons from glTF/VRM
// documents and writes combined meshes back into them.
package gltfio

import (
	"io"
	"log"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/lxteo/UnitySkinnedMeshCombiner/humanoid"
	"github.com/lxteo/UnitySkinnedMeshCombiner/rig"
	"github.com/lxteo/UnitySkinnedMeshCombiner/utils/gltfutils"
)

// Model is a loaded glTF document.
type Model struct {
	// Path names the document; bone identities are derived from it, so two
	// models opened from the same path share bones.
	Path    string
	Doc     *gltf.Document
	Aliases humanoid.Aliases

	avatar    rig.Avatar
	renderers map[uint32]*rig.Renderer
}

// NewModel wraps an in-memory document.
func NewModel(doc *gltf.Document, path string, aliases humanoid.Aliases) *Model {
	return &Model{
		Path:      path,
		Doc:       doc,
		Aliases:   aliases,
		renderers: make(map[uint32]*rig.Renderer),
	}
}

func Open(path string, aliases humanoid.Aliases) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open %q", path)
	}
	return NewModel(doc, path, aliases), nil
}

// Decode reads a self-contained .glb or .gltf stream.
func Decode(r io.Reader, path string, aliases humanoid.Aliases) (*Model, error) {
	doc, err := gltfutils.Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to decode %q", path)
	}
	return NewModel(doc, path, aliases), nil
}

// FindNode returns the node called name. An empty name picks the first
// node carrying a mesh, preferring skinned ones.
func (m *Model) FindNode(name string) (uint32, error) {
	if name == "" {
		found := -1
		for i, n := range m.Doc.Nodes {
			if n.Mesh == nil {
				continue
			}
			if n.Skin != nil {
				return uint32(i), nil
			}
			if found < 0 {
				found = i
			}
		}
		if found < 0 {
			return 0, errors.Errorf("%q has no mesh nodes", m.Path)
		}
		return uint32(found), nil
	}
	for i, n := range m.Doc.Nodes {
		if n.Name == name {
			return uint32(i), nil
		}
	}
	return 0, errors.Errorf("Node %q not found in %q", name, m.Path)
}

// BoneID is the identity of node as a bone.
func (m *Model) BoneID(node uint32) rig.BoneID {
	return rig.NodeBoneID(m.Path, int(node))
}

// Renderer returns the bone list of a skin. Repeated calls return the same
// pointer so meshes bound to one skin share a renderer.
func (m *Model) Renderer(skin uint32) (*rig.Renderer, error) {
	if r, ok := m.renderers[skin]; ok {
		return r, nil
	}
	if int(skin) >= len(m.Doc.Skins) {
		return nil, errors.Errorf("Skin %d out of range in %q", skin, m.Path)
	}
	s := m.Doc.Skins[skin]
	r := &rig.Renderer{Name: s.Name, Bones: make([]rig.BoneID, len(s.Joints))}
	if r.Name == "" {
		r.Name = m.Path
	}
	for i, joint := range s.Joints {
		r.Bones[i] = m.BoneID(joint)
	}
	m.renderers[skin] = r
	return r, nil
}

// Avatar returns the humanoid bones of the model. A VRM humanoid
// description wins; otherwise joint names are matched against Aliases.
func (m *Model) Avatar() rig.Avatar {
	if m.avatar != nil {
		return m.avatar
	}
	a, err := vrmAvatar(m)
	if err != nil {
		log.Printf("[gltfio] %q: ignoring humanoid extension: %v", m.Path, err)
	}
	if len(a) == 0 {
		a = m.nameAvatar()
	}
	m.avatar = a
	return a
}

func (m *Model) nameAvatar() rig.Avatar {
	var nodes []uint32
	seen := make(map[uint32]bool)
	for _, s := range m.Doc.Skins {
		for _, j := range s.Joints {
			if !seen[j] {
				seen[j] = true
				nodes = append(nodes, j)
			}
		}
	}
	if len(nodes) == 0 {
		for i := range m.Doc.Nodes {
			nodes = append(nodes, uint32(i))
		}
	}

	ids := make([]rig.BoneID, len(nodes))
	names := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = m.BoneID(n)
		names[i] = m.Doc.Nodes[n].Name
	}
	return rig.BuildAvatar(ids, names, m.Aliases)
}
