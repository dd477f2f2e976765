// Package merge runs a merge request: it loads the source documents,
// combines the selected meshes and writes the result into the document of
// the main source, dropping the geometry it replaced.
package merge

import (
	"io"

	"github.com/pkg/errors"

	"github.com/lxteo/UnitySkinnedMeshCombiner/combiner"
	"github.com/lxteo/UnitySkinnedMeshCombiner/config"
	"github.com/lxteo/UnitySkinnedMeshCombiner/gltfio"
	"github.com/lxteo/UnitySkinnedMeshCombiner/humanoid"
	"github.com/lxteo/UnitySkinnedMeshCombiner/mesh"
	"github.com/lxteo/UnitySkinnedMeshCombiner/utils/gltfutils"
)

// Opener loads a document by resolved path.
type Opener func(path string, aliases humanoid.Aliases) (*gltfio.Model, error)

type Output struct {
	// Model is the main source's document, now holding the combined mesh.
	Model  *gltfio.Model
	Node   uint32
	Result *combiner.Result
}

func (o *Output) Save(path string) error {
	return gltfutils.Save(o.Model.Doc, path)
}

func (o *Output) WriteBinary(w io.Writer) error {
	return errors.Wrapf(gltfutils.ExportBinary(w, o.Model.Doc), "Failed to encode result")
}

type partKey struct {
	model *gltfio.Model
	node  uint32
}

// Run executes req on ws. A nil open uses gltfio.Open.
func Run(req *config.Request, ws *combiner.Workspace, open Opener, logger *mesh.Logger) (*Output, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if open == nil {
		open = gltfio.Open
	}
	aliases, err := req.Aliases()
	if err != nil {
		return nil, err
	}

	models := make(map[string]*gltfio.Model)
	parts := make(map[partKey]*gltfio.Part)
	var order []*gltfio.Part
	var instances []combiner.Instance

	for iSource := range req.Sources {
		s := &req.Sources[iSource]
		path := req.Path(s.File)

		model, ok := models[path]
		if !ok {
			if model, err = open(path, aliases); err != nil {
				return nil, errors.Wrapf(err, "Source %d", iSource)
			}
			models[path] = model
		}

		node, err := model.FindNode(s.Node)
		if err != nil {
			return nil, errors.Wrapf(err, "Source %d", iSource)
		}
		key := partKey{model, node}
		part, ok := parts[key]
		if !ok {
			if part, err = model.Load(node); err != nil {
				return nil, errors.Wrapf(err, "Source %d", iSource)
			}
			parts[key] = part
			order = append(order, part)
		}

		first, last := 0, part.Mesh.SubmeshCount()
		if s.Primitive != nil {
			if *s.Primitive >= last {
				return nil, errors.Errorf("Source %d: primitive %d out of range, %q has %d",
					iSource, *s.Primitive, part.Mesh.Name, last)
			}
			first, last = *s.Primitive, *s.Primitive+1
		}

		xf := s.Transform()
		for k := first; k < last; k++ {
			instances = append(instances, combiner.Instance{
				Mesh:      part.Mesh,
				Submesh:   k,
				Renderer:  part.Renderer,
				Animator:  model.Avatar(),
				Transform: xf,
				Material:  part.Materials[k],
			})
		}
		logger.Printf("source %d: %q node %d mesh %q, %d submeshes", iSource, path, node, part.Mesh.Name, last-first)
	}

	ws.SetOptions(req.CombinerOptions(logger))
	res, err := ws.Combine(instances)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to combine")
	}

	main := order[0]
	refs := make([]gltfio.MaterialRef, len(res.Materials))
	for i, m := range res.Materials {
		refs[i], _ = m.(gltfio.MaterialRef)
	}

	e := gltfio.NewExporter(main.Model)
	gm, err := e.Export(res.Mesh, refs)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to export")
	}
	if err := e.Replace(main.Node, gm, res.Mesh.BindPoses); err != nil {
		return nil, errors.Wrapf(err, "Failed to export")
	}
	for _, p := range order[1:] {
		if p.Model == main.Model {
			e.Detach(p.Node)
		}
	}
	e.Prune()

	return &Output{Model: main.Model, Node: main.Node, Result: res}, nil
}
