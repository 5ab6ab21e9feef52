package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/mogaika/scenegraph/config"
	"github.com/mogaika/scenegraph/gpu"
	"github.com/mogaika/scenegraph/metrics"
	"github.com/mogaika/scenegraph/scenefile"
	"github.com/mogaika/scenegraph/scriptlang"
	"github.com/mogaika/scenegraph/status"
	"github.com/mogaika/scenegraph/utils"
	"github.com/mogaika/scenegraph/utils/gltfutils"
	"github.com/mogaika/scenegraph/web"
)

func main() {
	var configPath, addr, scenePath, gltfPath string
	var watch, dump, script bool
	flag.StringVar(&configPath, "config", "sgviewer.yaml", "Path to config file")
	flag.StringVar(&addr, "i", "", "Address of server, overrides config")
	flag.StringVar(&scenePath, "scene", "", "Scene file (.yaml or .xf), overrides config")
	flag.BoolVar(&watch, "watch", false, "Reload the scene file when it changes")
	flag.BoolVar(&dump, "dump", false, "Dump materialized mirrors and exit")
	flag.BoolVar(&script, "script", false, "Print the scene as transform script and exit")
	flag.StringVar(&gltfPath, "gltf", "", "Export the scene to a .glb file and exit")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if scenePath != "" {
		cfg.Scene = scenePath
	}
	cfg.Watch = cfg.Watch || watch

	if cfg.Scene == "" {
		flag.PrintDefaults()
		return
	}

	s, err := scenefile.Load(cfg.Scene)
	if err != nil {
		log.Fatal(err)
	}

	m := metrics.New()
	var backend gpu.MemoryBackend
	ctx := gpu.NewContext(m.Backend(&backend))

	switch {
	case script:
		for _, ct := range s.Compounds() {
			os.Stdout.WriteString(scriptlang.RenderCompound(ct) + "\n\n")
		}
		return
	case gltfPath != "":
		if err := exportGltf(s, gltfPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	hub := status.NewHub()
	srv, err := web.NewServer(s, ctx, hub, m)
	if err != nil {
		log.Fatal(err)
	}

	if dump {
		for _, ct := range s.Compounds() {
			log.Printf("[main] %q %v", ct.Name(), ct.Mirror())
			utils.Dump(ct.Mirror())
		}
		return
	}

	if cfg.Watch {
		if err := watchScene(cfg.Scene, srv); err != nil {
			log.Fatal(err)
		}
	}

	if err := web.StartServer(cfg.Addr, srv); err != nil {
		log.Fatal(err)
	}
}

func exportGltf(s *scenefile.Scene, path string) error {
	s.Update()
	doc := gltfutils.NewDocument()
	gltfutils.ExportScene(doc, s.Roots...)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gltfutils.ExportBinary(f, doc)
}

func watchScene(path string, srv *web.Server) error {
	path = filepath.Clean(path)
	w, err := scenefile.NewWatcher(filepath.Dir(path))
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case name, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(name) != path {
					continue
				}
				src, err := scenefile.Load(path)
				if err != nil {
					log.Printf("[main] reload: %v", err)
					continue
				}
				if err := srv.Reload(src); err != nil {
					log.Printf("[main] reload: %v", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("[main] watch: %v", err)
			}
		}
	}()
	log.Printf("[main] Watching %v", path)
	return nil
}
