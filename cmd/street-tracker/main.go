package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	lib "github.com/aviseth/street-tracker"
	"github.com/aviseth/street-tracker/coverage"
)

func main() {
	mode := flag.String("mode", "process", "process|export|serve")
	configPath := flag.String("config", "", "config file path (defaults to ./config.yml)")
	tracesPath := flag.String("traces", "", "trace file or directory (overrides config)")
	city := flag.String("city", "", "pin every trace to this configured city")
	dbPath := flag.String("db", "", "coverage database path (overrides config)")
	outDir := flag.String("out", "", "artifact output directory (overrides config)")
	doExport := flag.Bool("export", false, "write artifacts after processing")
	workers := flag.Int("workers", 0, "concurrent trace workers (overrides config)")
	flag.Parse()

	lib.InitLogging()
	var cfgPaths []string
	if *configPath != "" {
		cfgPaths = append(cfgPaths, *configPath)
	}
	if err := lib.LoadAppConfig(cfgPaths...); err != nil {
		panic(err)
	}
	if *workers > 0 {
		lib.Config.Engine.Workers = *workers
	}
	if *dbPath != "" {
		lib.Config.Storage.DatabasePath = *dbPath
	}
	if *outDir != "" {
		lib.Config.Storage.ExportDir = *outDir
	}
	if *tracesPath != "" {
		lib.Config.Storage.TracesDir = *tracesPath
	}

	var store *coverage.Store
	if lib.Config.Storage.DatabasePath != "" {
		var err error
		store, err = coverage.OpenStore(lib.Config.Storage.DatabasePath)
		if err != nil {
			log.Fatalf("failed to open coverage store: %v", err)
		}
		defer store.Close()
	}

	engine, err := lib.NewEngine(lib.Config, store)
	if err != nil {
		log.Fatalf("failed to build engine: %v", err)
	}
	if *city != "" {
		if err := engine.ForceCity(*city); err != nil {
			log.Fatalf("%v", err)
		}
	}

	ctx := context.Background()

	switch *mode {
	case "process":
		if lib.Config.Storage.TracesDir == "" {
			log.Fatalf("no traces path; pass -traces or set storage.tracesDir")
		}
		paths, err := scanTraces(lib.Config.Storage.TracesDir)
		if err != nil {
			log.Fatalf("failed to scan traces: %v", err)
		}
		if len(paths) == 0 {
			log.Fatalf("no trace files under %s", lib.Config.Storage.TracesDir)
		}
		if err := engine.ProcessFiles(ctx, paths); err != nil {
			log.Fatalf("processing failed: %v", err)
		}
		if err := engine.FinishRun(ctx); err != nil {
			log.Fatalf("failed to finish run: %v", err)
		}
		if *doExport {
			dir := lib.Config.Storage.ExportDir
			if dir == "" {
				dir = "out"
			}
			written, err := engine.ExportAll(dir)
			if err != nil {
				log.Fatalf("export failed: %v", err)
			}
			log.Printf("wrote %d artifacts to %s", len(written), dir)
		}
	case "export":
		dir := lib.Config.Storage.ExportDir
		if dir == "" {
			dir = "out"
		}
		written, err := engine.ExportAll(dir)
		if err != nil {
			log.Fatalf("export failed: %v", err)
		}
		for _, p := range written {
			fmt.Println(p)
		}
	case "serve":
		lib.StartServer(engine)
		lib.HandleGracefulShutdown()
	default:
		panic("unknown mode")
	}
}
