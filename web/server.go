package web

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/lxteo/UnitySkinnedMeshCombiner/combiner"
)

// Server merges meshes stored under Root.
type Server struct {
	Root string

	// one workspace per in-flight merge
	workspaces sync.Pool
}

func NewServer(root string) *Server {
	s := &Server{Root: root}
	s.workspaces.New = func() interface{} {
		return combiner.NewWorkspace(combiner.Options{})
	}
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/humanoid", s.HandlerAjaxHumanoid).Methods("GET")
	r.HandleFunc("/json/files", s.HandlerAjaxFiles).Methods("GET")
	r.HandleFunc("/json/model/{file}", s.HandlerAjaxModel).Methods("GET")
	r.HandleFunc("/dump/model/{file}/{node}", s.HandlerDumpModelNode).Methods("GET")
	r.HandleFunc("/merge", s.HandlerMerge).Methods("POST")
	r.HandleFunc("/upload/{file}", s.HandlerUploadFile).Methods("POST")
	return r
}

// resolve maps a request path onto a file under Root.
func (s *Server) resolve(name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", errors.Errorf("Invalid path %q", name)
	}
	p := filepath.Join(s.Root, filepath.FromSlash(name))
	rel, err := filepath.Rel(s.Root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("Path %q is outside of the server root", name)
	}
	return p, nil
}

func StartServer(addr string, root string) error {
	s := NewServer(root)

	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(s.Router())
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v for %q", addr, root)

	return http.ListenAndServe(addr, h)
}
