package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"arpsim/internal/config"
	"arpsim/internal/metrics"
	"arpsim/internal/sim"
	"arpsim/internal/web"
	"arpsim/pkg/utils"
)

const (
	configFile = "arpsim.ini"
)

var (
	sha1ver   string
	buildTime string
	repoName  string
)

func main() {
	log.Printf("%s: Build %s, Time %s", repoName, sha1ver, buildTime)

	// Load configuration
	cfg, err := config.New(configFile)
	utils.CheckFatal(err, "Failed to load configuration")

	// Initialize metrics on the default registry so promhttp serves them
	m := metrics.New(prometheus.DefaultRegisterer)

	// Initialize simulation engine
	engine, err := sim.New(cfg, m)
	utils.CheckFatal(err, "Failed to create simulation engine")

	utils.CheckFatal(engine.Start(), "Failed to start simulation engine")
	defer engine.Close()

	// Initialize web server
	webServer := web.NewServer(cfg, engine)
	go func() {
		log.Printf("Starting HTTP server on %s", cfg.HTTPListen)
		if err := webServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	utils.CheckWarn(webServer.Shutdown(ctx), "shutting down HTTP server")
}
