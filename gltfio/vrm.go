package gltfio

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/lxteo/UnitySkinnedMeshCombiner/humanoid"
	"github.com/lxteo/UnitySkinnedMeshCombiner/rig"
)

const (
	extVRM0 = "VRM"
	extVRM1 = "VRMC_vrm"
)

type vrm0 struct {
	Humanoid struct {
		HumanBones []struct {
			Bone string `json:"bone"`
			Node *int   `json:"node"`
		} `json:"humanBones"`
	} `json:"humanoid"`
}

type vrm1 struct {
	Humanoid struct {
		HumanBones map[string]struct {
			Node *int `json:"node"`
		} `json:"humanBones"`
	} `json:"humanoid"`
}

// decodeExtension converts an extension payload into out. Extensions
// without a registered decoder come as raw JSON.
func decodeExtension(v interface{}, out interface{}) error {
	raw, ok := v.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, out)
}

// vrmAvatar reads the humanoid bone table of a VRM 0.x or 1.0 document.
func vrmAvatar(m *Model) (rig.Avatar, error) {
	a := make(rig.Avatar)
	bind := func(b humanoid.Bone, node *int) {
		if node == nil || *node < 0 || *node >= len(m.Doc.Nodes) {
			return
		}
		if _, taken := a[b]; !taken {
			a[b] = m.BoneID(uint32(*node))
		}
	}

	if ext, ok := m.Doc.Extensions[extVRM1]; ok {
		var v vrm1
		if err := decodeExtension(ext, &v); err != nil {
			return nil, errors.Wrapf(err, "Failed to decode %s", extVRM1)
		}
		for name, hb := range v.Humanoid.HumanBones {
			if b, ok := humanoid.ParseVRM1(name); ok {
				bind(b, hb.Node)
			}
		}
		return a, nil
	}

	if ext, ok := m.Doc.Extensions[extVRM0]; ok {
		var v vrm0
		if err := decodeExtension(ext, &v); err != nil {
			return nil, errors.Wrapf(err, "Failed to decode %s", extVRM0)
		}
		for _, hb := range v.Humanoid.HumanBones {
			if b, ok := humanoid.Parse(hb.Bone); ok {
				bind(b, hb.Node)
			}
		}
	}
	return a, nil
}
