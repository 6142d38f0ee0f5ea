package main

import (
	"flag"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"peermatch/internal/catalog"
	"peermatch/internal/collab"
	"peermatch/internal/config"
	"peermatch/internal/recommend"
	"peermatch/internal/roster"
	rostercsv "peermatch/internal/roster/csv"
	rostersqlite "peermatch/internal/roster/sqlite"
	"peermatch/internal/server"
	"peermatch/internal/similarity"
	"peermatch/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var serve bool
	var addr string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/peermatch/config.yaml if not provided)")
	flag.BoolVar(&serve, "serve", false, "Run the HTTP API instead of the interactive console")
	flag.StringVar(&addr, "addr", "", "Listen address for -serve (overrides config)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Assemble components
	var store roster.Store
	switch cfg.Dataset.Type {
	case "csv", "":
		store = rostercsv.NewStore(cfg.Dataset.Path)
	case "sqlite":
		db, err := rostersqlite.Open(cfg.Dataset.Path)
		if err != nil {
			log.Fatalf("opening roster database: %v", err)
		}
		defer db.Close()
		store = db
	default:
		log.Fatalf("unknown dataset type: %s", cfg.Dataset.Type)
	}

	students, err := store.Load()
	if err != nil {
		log.Fatalf("loading roster: %v", err)
	}
	cat, err := catalog.New(students)
	if err != nil {
		log.Fatalf("building catalog: %v", err)
	}

	engine := similarity.NewEngine(cat)
	svc := recommend.NewService(cat, engine, recommend.Params{
		Collab: collab.Params{
			Neighbors:      cfg.Engine.Neighbors,
			Factors:        cfg.Engine.Factors,
			Epochs:         cfg.Engine.Epochs,
			LearningRate:   cfg.Engine.LearningRate,
			Regularization: cfg.Engine.Regularization,
			Seed:           cfg.Engine.Seed,
		},
		WeightInteractions:  cfg.Engine.WeightInteractions,
		ContentWeight:       cfg.Engine.Hybrid.ContentWeight,
		CollaborativeWeight: cfg.Engine.Hybrid.CollaborativeWeight,
		SplitRatio:          cfg.Evaluation.SplitRatio,
		EvalSeed:            cfg.Evaluation.Seed,
	}, store)

	if serve {
		if addr != "" {
			cfg.Server.Addr = addr
		}
		srv, err := server.New(svc, cfg.Server)
		if err != nil {
			log.Fatalf("server init failed: %v", err)
		}
		log.Printf("listening on %s (%d students)", cfg.Server.Addr, cat.Len())
		log.Fatal(srv.ListenAndServe())
	}

	m := tui.New(svc)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
