package config

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lxteo/UnitySkinnedMeshCombiner/humanoid"
)

// LoadBoneAliases reads a YAML file mapping canonical bone names to lists
// of alternative names:
//
//	Hips: [pelvis, root_hips]
//	LeftUpperLeg: [thigh_l]
func LoadBoneAliases(path string) (humanoid.Aliases, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read file %s", path)
	}

	var table map[string][]string
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, errors.Wrapf(err, "Unmarshaling error in %s", path)
	}

	a, err := humanoid.NewAliases(table)
	if err != nil {
		return nil, errors.Wrapf(err, "Invalid aliases in %s", path)
	}
	return a, nil
}
