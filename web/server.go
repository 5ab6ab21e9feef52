package web

import (
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/scenegraph/gpu"
	"github.com/mogaika/scenegraph/metrics"
	"github.com/mogaika/scenegraph/scenefile"
	"github.com/mogaika/scenegraph/status"
)

// Server exposes a materialized scene. All scene access goes through
// lock, the scene itself is single-threaded.
type Server struct {
	lock    sync.Mutex
	scene   *scenefile.Scene
	ctx     *gpu.Context
	hub     *status.Hub
	metrics *metrics.Metrics
}

// NewServer materializes s in ctx and serves it.
func NewServer(s *scenefile.Scene, ctx *gpu.Context, hub *status.Hub, m *metrics.Metrics) (*Server, error) {
	if err := s.Materialize(ctx); err != nil {
		return nil, err
	}
	s.Update()
	return &Server{scene: s, ctx: ctx, hub: hub, metrics: m}, nil
}

// Reload applies a freshly parsed version of the scene file.
func (srv *Server) Reload(src *scenefile.Scene) error {
	srv.lock.Lock()
	defer srv.lock.Unlock()

	changes, err := scenefile.Apply(srv.scene, src)
	if err != nil {
		srv.hub.Error("reload of %q failed: %v", srv.scene.Name, err)
		return err
	}
	for _, ct := range changes.Compounds {
		srv.hub.Synced(ct)
	}
	srv.scene.Update()
	srv.hub.Info("reloaded %q: %d changes", srv.scene.Name, changes.Count)
	return nil
}

func (srv *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/scene", srv.HandlerJsonScene).Methods("GET")
	r.HandleFunc("/json/node/{node}", srv.HandlerJsonNode).Methods("GET")
	r.HandleFunc("/json/node/{node}/{component}", srv.HandlerEditComponent).Methods("POST")
	r.HandleFunc("/dump/node/{node}", srv.HandlerDumpNode).Methods("GET")
	r.HandleFunc("/export/gltf", srv.HandlerExportGltf).Methods("GET")
	r.Handle("/ws/status", srv.hub)
	r.Handle("/metrics", srv.metrics.Handler())
	return r
}

func StartServer(addr string, srv *Server) error {
	h := handlers.RecoveryHandler()(srv.Router())
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
