package main

import (
	"flag"
	"log"
	"os"

	"github.com/lxteo/UnitySkinnedMeshCombiner/combiner"
	"github.com/lxteo/UnitySkinnedMeshCombiner/config"
	"github.com/lxteo/UnitySkinnedMeshCombiner/merge"
	"github.com/lxteo/UnitySkinnedMeshCombiner/mesh"
	"github.com/lxteo/UnitySkinnedMeshCombiner/web"
)

func main() {
	var addr, root, request, output string
	var verbose bool
	flag.StringVar(&addr, "i", "", "Address of server, e.g. :8000")
	flag.StringVar(&root, "root", ".", "Directory with models served by -i")
	flag.StringVar(&request, "config", "", "Path to merge request yaml")
	flag.StringVar(&output, "o", "", "Output file override, .glb or .gltf")
	flag.BoolVar(&verbose, "v", false, "Trace the merge to stderr")
	flag.Parse()

	if addr != "" {
		if err := web.StartServer(addr, root); err != nil {
			log.Fatal(err)
		}
		return
	}
	if request == "" {
		flag.PrintDefaults()
		return
	}

	req, err := config.Load(request)
	if err != nil {
		log.Fatal(err)
	}
	if output == "" {
		if req.Output == "" {
			log.Fatalf("No output file in %q, use -o", request)
		}
		output = req.Path(req.Output)
	}
	if verbose {
		req.Options.Verbose = true
	}

	out, err := merge.Run(req, combiner.NewWorkspace(combiner.Options{}), nil, mesh.NewLogger(os.Stderr))
	if err != nil {
		log.Fatal(err)
	}
	if err := out.Save(output); err != nil {
		log.Fatal(err)
	}

	st := out.Result.Stats
	log.Printf("Saved %q: %d vertices, %d triangles, %d submeshes, %d blend shapes",
		output, st.Vertices, st.Indices/3, len(st.SubmeshVertices), st.BlendShapes)
}
