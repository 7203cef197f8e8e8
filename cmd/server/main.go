package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/tabkeeper/tabkeeper/internal/auth"
	"github.com/tabkeeper/tabkeeper/internal/config"
	"github.com/tabkeeper/tabkeeper/internal/server"
	"github.com/tabkeeper/tabkeeper/internal/service"
	"github.com/tabkeeper/tabkeeper/internal/storage/sqlite"
	"github.com/tabkeeper/tabkeeper/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Log.Level)

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)

	router := server.New(server.Services{
		Auth:     service.NewAuthService(authenticator, jwtManager),
		Groups:   service.NewGroupService(store),
		Expenses: service.NewExpenseService(store),
	}, jwtManager)

	// h2c allows HTTP/2 without TLS for clients that want it.
	handler := h2c.NewHandler(router, &http2.Server{})

	slog.Info("Server starting", "address", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
