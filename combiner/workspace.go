package combiner

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/lxteo/UnitySkinnedMeshCombiner/mesh"
	"github.com/lxteo/UnitySkinnedMeshCombiner/utils"
)

// Workspace keeps the buffers of a merge so repeated merges reuse memory.
// Every Combine starts from an empty state. A Workspace is not safe for
// concurrent use; run concurrent merges on separate workspaces.
type Workspace struct {
	opts Options

	positions   []mesh.Position
	uvs         []mesh.UV
	normals     []mesh.Normal
	tangents    []mesh.Tangent
	colors      []mesh.Color
	boneWeights []mesh.BoneWeight
	indices     [][]int

	// attributes of the source being merged
	src struct {
		indices     []int
		positions   []mesh.Position
		uvs         []mesh.UV
		normals     []mesh.Normal
		tangents    []mesh.Tangent
		colors      []mesh.Color
		boneWeights []mesh.BoneWeight
	}

	assignments []Assignment
	bones       BoneMapping
	stats       Stats
}

func NewWorkspace(opts Options) *Workspace {
	return &Workspace{opts: opts.withDefaults()}
}

// SetOptions replaces the options used by the next Combine.
func (ws *Workspace) SetOptions(opts Options) {
	ws.opts = opts.withDefaults()
}

// Combine merges instances with a throwaway workspace.
func Combine(instances []Instance, opts Options) (*Result, error) {
	return NewWorkspace(opts).Combine(instances)
}

func (ws *Workspace) clear() {
	ws.positions = ws.positions[:0]
	ws.uvs = ws.uvs[:0]
	ws.normals = ws.normals[:0]
	ws.tangents = ws.tangents[:0]
	ws.colors = ws.colors[:0]
	ws.boneWeights = ws.boneWeights[:0]
	for i := range ws.indices {
		ws.indices[i] = ws.indices[i][:0]
	}
	for i := range ws.assignments {
		ws.assignments[i] = ws.assignments[i][:0]
	}
	ws.stats = Stats{}
}

// Combine merges the instances into one mesh. Instance i becomes submesh i.
// The first instance is the main one: its skeleton, bind poses and blend
// shapes are the ones the result uses.
func (ws *Workspace) Combine(instances []Instance) (*Result, error) {
	if len(instances) == 0 {
		return nil, errors.WithStack(ErrNoSources)
	}
	ws.clear()

	main := &instances[0]
	if main.Mesh == nil {
		return nil, invalidSource(0, "no mesh")
	}
	for len(ws.indices) < len(instances) {
		ws.indices = append(ws.indices, nil)
	}
	for len(ws.assignments) < len(instances) {
		ws.assignments = append(ws.assignments, nil)
	}

	prev := main.Renderer
	for i := range instances {
		inst := &instances[i]
		if inst.Mesh == nil {
			return nil, invalidSource(i, "no mesh")
		}

		skinned := inst.Renderer != nil
		if skinned && inst.Renderer != prev {
			prev = inst.Renderer
			if inst.Renderer != main.Renderer {
				ws.bones.Rebuild(inst, main, ws.opts.MatchSharedBones)
				ws.stats.MappingRebuilds++
				if ws.opts.Logger.Enabled() {
					ws.opts.Logger.Printf("renderer %q -> %q: %s",
						inst.Renderer.Name, rendererName(main), utils.SLine(ws.bones.Table()))
				}
			}
		}

		if err := ws.fetch(i, inst, skinned); err != nil {
			return nil, err
		}
		passthrough := skinned && inst.Renderer == main.Renderer
		if err := ws.merge(i, inst, skinned, passthrough); err != nil {
			return nil, err
		}
	}

	return ws.result(instances), nil
}

func rendererName(inst *Instance) string {
	if inst.Renderer == nil {
		return ""
	}
	return inst.Renderer.Name
}

// fetch loads the attributes of inst into ws.src and checks they line up.
func (ws *Workspace) fetch(i int, inst *Instance, skinned bool) (err error) {
	src := inst.Mesh
	s := &ws.src
	n := src.VertexCount()

	if inst.Submesh < 0 || inst.Submesh >= src.SubmeshCount() {
		return invalidSource(i, "submesh %d out of range [0,%d)", inst.Submesh, src.SubmeshCount())
	}
	s.indices = src.GetIndices(s.indices, inst.Submesh)
	if len(s.indices)%3 != 0 {
		return invalidSource(i, "%d indices is not a triangle list", len(s.indices))
	}

	s.positions = src.GetPositions(s.positions)
	if len(s.positions) != n {
		return invalidSource(i, "%d positions for %d vertices", len(s.positions), n)
	}

	sub := ws.opts.SubstituteMissing
	if s.uvs, err = sized(i, "uv", src.GetUVs(s.uvs), n, mesh.UV{}, sub); err != nil {
		return err
	}
	if s.normals, err = sized(i, "normal", src.GetNormals(s.normals), n, mesh.Normal{0, 0, 1}, sub); err != nil {
		return err
	}
	if s.tangents, err = sized(i, "tangent", src.GetTangents(s.tangents), n, mesh.Tangent{1, 0, 0, 1}, sub); err != nil {
		return err
	}
	if s.colors, err = sized(i, "color", src.GetColors(s.colors), n, *ws.opts.DefaultColor, true); err != nil {
		return err
	}
	if skinned {
		if s.boneWeights, err = sized(i, "bone weight", src.GetBoneWeights(s.boneWeights), n, mesh.BoneWeight{}, sub); err != nil {
			return err
		}
	}
	return nil
}

// sized checks that a has one entry per vertex. An empty a is filled with
// def when substitution is allowed.
func sized[T any](src int, name string, a []T, n int, def T, substitute bool) ([]T, error) {
	switch {
	case len(a) == n:
		return a, nil
	case len(a) == 0 && substitute:
		for i := 0; i < n; i++ {
			a = append(a, def)
		}
		return a, nil
	case len(a) == 0:
		return a, invalidSource(src, "missing %s array", name)
	default:
		return a, invalidSource(src, "%d %s entries for %d vertices", len(a), name, n)
	}
}

// merge appends the vertices referenced by the fetched submesh, each local
// vertex once, and records the submesh indices.
func (ws *Workspace) merge(i int, inst *Instance, skinned, passthrough bool) error {
	s := &ws.src
	n := len(s.positions)

	xf := inst.Transform
	if xf == (mgl32.Mat4{}) {
		xf = mgl32.Ident4()
	}

	assign := &ws.assignments[i]
	assign.reset(n)
	start := len(ws.positions)
	out := ws.indices[i][:0]

	for _, local := range s.indices {
		if uint(local) >= uint(n) {
			return invalidSource(i, "index %d out of range [0,%d)", local, n)
		}
		if c := (*assign)[local]; c != Unassigned {
			out = append(out, c)
			continue
		}

		c := len(ws.positions)
		if c >= ws.opts.MaxVertices {
			return errors.Wrapf(ErrCapacityExceeded, "source %d: more than %d vertices", i, ws.opts.MaxVertices)
		}

		ws.positions = append(ws.positions, mgl32.TransformCoordinate(s.positions[local], xf))
		ws.uvs = append(ws.uvs, s.uvs[local])
		ws.normals = append(ws.normals, s.normals[local])
		ws.tangents = append(ws.tangents, s.tangents[local])
		ws.colors = append(ws.colors, s.colors[local])

		var bw mesh.BoneWeight
		switch {
		case passthrough:
			bw = s.boneWeights[local]
		case skinned:
			var zeroed int
			bw, zeroed = ws.bones.remap(s.boneWeights[local])
			ws.stats.ZeroedSlots += zeroed
			ws.stats.RemappedSlots += len(bw.Indices) - zeroed
		}
		ws.boneWeights = append(ws.boneWeights, bw)

		(*assign)[local] = c
		out = append(out, c)
	}

	ws.indices[i] = out
	ws.stats.SubmeshVertices = append(ws.stats.SubmeshVertices, len(ws.positions)-start)
	ws.stats.Indices += len(out)
	return nil
}

func (ws *Workspace) result(instances []Instance) *Result {
	main := instances[0].Mesh

	m := &mesh.Mesh{
		Positions:   append([]mesh.Position(nil), ws.positions...),
		UVs:         append([]mesh.UV(nil), ws.uvs...),
		Normals:     append([]mesh.Normal(nil), ws.normals...),
		Tangents:    append([]mesh.Tangent(nil), ws.tangents...),
		Colors:      append([]mesh.Color(nil), ws.colors...),
		BoneWeights: append([]mesh.BoneWeight(nil), ws.boneWeights...),
		Submeshes:   make([][]int, len(instances)),
	}
	for i := range instances {
		m.Submeshes[i] = append([]int(nil), ws.indices[i]...)
	}

	ws.stats.BlendShapeFrames = TransplantBlendShapes(main, m, ws.assignments[0])
	ws.stats.BlendShapes = len(m.BlendShapes)
	m.BindPoses = main.GetBindPoses()
	m.RecalculateBounds()
	ws.stats.Vertices = m.VertexCount()

	res := &Result{
		Mesh:        m,
		Materials:   make([]interface{}, len(instances)),
		Assignments: make([]Assignment, len(instances)),
		Stats:       ws.stats,
	}
	res.Stats.SubmeshVertices = append([]int(nil), ws.stats.SubmeshVertices...)
	for i := range instances {
		res.Materials[i] = instances[i].Material
		res.Assignments[i] = append(Assignment(nil), ws.assignments[i]...)
	}

	ws.opts.Logger.Printf("combined %d sources: %d vertices, %d indices, %d blend shape frames",
		len(instances), res.Stats.Vertices, res.Stats.Indices, res.Stats.BlendShapeFrames)
	return res
}
