// Command detectserver runs the logo detection engine behind an HTTP API
// for an operator station: upload a frame, get back results, or stream
// them over a websocket as they're produced.
package main

import (
	"flag"
	"log"

	"github.com/mauroandres1246/align-press-2/internal/config"
	"github.com/mauroandres1246/align-press-2/internal/detect"
	"github.com/mauroandres1246/align-press-2/internal/server"
)

func main() {
	cfgPath := flag.String("c", "", "Path to the plane/logo configuration YAML")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	if *cfgPath == "" {
		log.Fatal("detectserver: -c <config.yaml> is required")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("detectserver: failed to load config: %v", err)
	}

	engine, err := detect.NewEngine(cfg)
	if err != nil {
		log.Fatalf("detectserver: failed to build engine: %v", err)
	}
	defer engine.Close()

	srv := server.New(engine)
	log.Printf("detectserver: listening on %s", *addr)
	if err := srv.Router().Run(*addr); err != nil {
		log.Fatalf("detectserver: %v", err)
	}
}
