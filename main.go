package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mbolis/hvac-survey/app"
	"github.com/mbolis/hvac-survey/config"
	"github.com/mbolis/hvac-survey/database"
	"github.com/mbolis/hvac-survey/files"
	"github.com/mbolis/hvac-survey/httpx"
	"github.com/mbolis/hvac-survey/log"
	"github.com/mbolis/hvac-survey/routes"
	"github.com/mbolis/hvac-survey/store"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	artifacts, err := files.New(context.Background(), cfg.Files)
	if err != nil {
		log.Fatal("main.files:", err)
	}

	st := store.New(db)
	app := app.App{
		Store:        st,
		BearerServer: httpx.NewBearerServer(st.Users, cfg),
		Config:       cfg,
		Files:        artifacts,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  time.Minute,
		WriteTimeout: 2 * time.Minute,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
