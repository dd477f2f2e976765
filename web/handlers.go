package web

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/lxteo/UnitySkinnedMeshCombiner/combiner"
	"github.com/lxteo/UnitySkinnedMeshCombiner/config"
	"github.com/lxteo/UnitySkinnedMeshCombiner/gltfio"
	"github.com/lxteo/UnitySkinnedMeshCombiner/humanoid"
	"github.com/lxteo/UnitySkinnedMeshCombiner/merge"
	"github.com/lxteo/UnitySkinnedMeshCombiner/mesh"
	"github.com/lxteo/UnitySkinnedMeshCombiner/utils"
	"github.com/lxteo/UnitySkinnedMeshCombiner/webutils"
)

func isModelFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".glb", ".gltf", ".vrm":
		return true
	}
	return false
}

func (s *Server) HandlerAjaxHumanoid(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, humanoid.All())
}

func (s *Server) HandlerAjaxFiles(w http.ResponseWriter, r *http.Request) {
	files := make([]string, 0)
	err := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isModelFile(path) {
			rel, err := filepath.Rel(s.Root, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	sort.Strings(files)
	webutils.WriteJson(w, files)
}

func (s *Server) openModel(file string) (*gltfio.Model, int, error) {
	path, err := s.resolve(file)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	m, err := gltfio.Open(path, humanoid.Mixamo)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, http.StatusNotFound, err
		}
		return nil, http.StatusBadRequest, err
	}
	return m, http.StatusOK, nil
}

type nodeInfo struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Mesh       *uint32 `json:"mesh,omitempty"`
	Skin       *uint32 `json:"skin,omitempty"`
	Primitives int     `json:"primitives,omitempty"`
}

type modelInfo struct {
	File     string            `json:"file"`
	Nodes    []nodeInfo        `json:"nodes"`
	Humanoid map[string]string `json:"humanoid"`
}

func (s *Server) HandlerAjaxModel(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	m, status, err := s.openModel(file)
	if err != nil {
		webutils.WriteErrorStatus(w, status, err)
		return
	}

	info := modelInfo{File: file, Nodes: make([]nodeInfo, len(m.Doc.Nodes)), Humanoid: make(map[string]string)}
	byID := make(map[string]string, len(m.Doc.Nodes))
	for i, n := range m.Doc.Nodes {
		ni := nodeInfo{Index: i, Name: n.Name, Mesh: n.Mesh, Skin: n.Skin}
		if n.Mesh != nil {
			ni.Primitives = len(m.Doc.Meshes[*n.Mesh].Primitives)
		}
		info.Nodes[i] = ni
		byID[m.BoneID(uint32(i)).String()] = n.Name
	}
	for bone, id := range m.Avatar() {
		info.Humanoid[bone.String()] = byID[id.String()]
	}
	webutils.WriteJson(w, info)
}

type partDump struct {
	Name        string
	Vertices    int
	Submeshes   []int
	Attributes  []string
	BlendShapes []string
	Bones       int
	BindPoses   int
	Bounds      mesh.Bounds
}

func (s *Server) HandlerDumpModelNode(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	m, status, err := s.openModel(vars["file"])
	if err != nil {
		webutils.WriteErrorStatus(w, status, err)
		return
	}
	node, err := m.FindNode(vars["node"])
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusNotFound, err)
		return
	}
	p, err := m.Load(node)
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, err)
		return
	}

	me := p.Mesh
	me.RecalculateBounds()
	d := partDump{Name: me.Name, Vertices: me.VertexCount(), BindPoses: len(me.BindPoses), Bounds: me.Bounds}
	for _, sub := range me.Submeshes {
		d.Submeshes = append(d.Submeshes, len(sub)/3)
	}
	for _, a := range []struct {
		name string
		n    int
	}{
		{"uv", len(me.UVs)}, {"normal", len(me.Normals)}, {"tangent", len(me.Tangents)},
		{"color", len(me.Colors)}, {"boneweight", len(me.BoneWeights)},
	} {
		if a.n != 0 {
			d.Attributes = append(d.Attributes, a.name)
		}
	}
	for _, bs := range me.BlendShapes {
		d.BlendShapes = append(d.BlendShapes, fmt.Sprintf("%s (%d frames)", bs.Name, len(bs.Frames)))
	}
	if p.Renderer != nil {
		d.Bones = len(p.Renderer.Bones)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	webutils.WriteResult(w, []byte(utils.SDump(d)))
}

// HandlerMerge runs the YAML merge request in the body and answers with
// the combined binary glTF, or with the merge statistics when the stats
// query parameter is set.
func (s *Server) HandlerMerge(w http.ResponseWriter, r *http.Request) {
	data, err := webutils.ReadBody(w, r, "request")
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, err)
		return
	}
	req, err := config.Parse(data, "")
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, err)
		return
	}
	for i := range req.Sources {
		if req.Sources[i].File, err = s.resolve(req.Sources[i].File); err != nil {
			webutils.WriteErrorStatus(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.BoneAliasesFile != "" {
		if req.BoneAliasesFile, err = s.resolve(req.BoneAliasesFile); err != nil {
			webutils.WriteErrorStatus(w, http.StatusBadRequest, err)
			return
		}
	}

	ws := s.workspaces.Get().(*combiner.Workspace)
	defer s.workspaces.Put(ws)

	out, err := merge.Run(req, ws, nil, mesh.NewLogger(log.Writer()))
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, fs.ErrNotExist):
			status = http.StatusNotFound
		case errors.Is(err, combiner.ErrInvalidSourceMesh), errors.Is(err, combiner.ErrCapacityExceeded):
			status = http.StatusUnprocessableEntity
		}
		webutils.WriteErrorStatus(w, status, err)
		return
	}

	if r.URL.Query().Get("stats") != "" {
		webutils.WriteJson(w, out.Result.Stats)
		return
	}

	var buf bytes.Buffer
	if err := out.WriteBinary(&buf); err != nil {
		webutils.WriteError(w, err)
		return
	}
	name := "merged.glb"
	if req.Output != "" {
		name = strings.TrimSuffix(filepath.Base(req.Output), filepath.Ext(req.Output)) + ".glb"
	}
	webutils.WriteFile(w, &buf, name)
}

// HandlerUploadFile stores the form file "data" under Root.
func (s *Server) HandlerUploadFile(w http.ResponseWriter, r *http.Request) {
	targetFile := mux.Vars(r)["file"]
	if !isModelFile(targetFile) {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, errors.Errorf("Not a model file %q", targetFile))
		return
	}
	path, err := s.resolve(targetFile)
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, err)
		return
	}

	fileStream, _, err := r.FormFile("data")
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, errors.Wrapf(err, "File stream getting error"))
		return
	}
	defer fileStream.Close()

	f, err := os.Create(path)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	defer f.Close()
	if _, err := io.Copy(f, fileStream); err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Error when writing %q", targetFile))
		return
	}
	log.Printf("[web] Uploaded %q", targetFile)
	webutils.WriteJson(w, targetFile)
}
