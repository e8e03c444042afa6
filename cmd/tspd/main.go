package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/tourviz/internal/tspd"
	"github.com/GoSim-25-26J-441/tourviz/pkg/config"
	"github.com/GoSim-25-26J-441/tourviz/pkg/logger"
)

func main() {
	var configPath string
	var grpcAddr string
	var httpAddr string
	var logLevel string

	flag.StringVar(&configPath, "config", "", "path to config file (defaults are used when empty)")
	flag.StringVar(&grpcAddr, "grpc-addr", "", "gRPC health listen address (overrides config)")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP listen address (overrides config)")
	flag.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			logger.Error("failed to load config", "path", configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	if httpAddr == "" {
		httpAddr = cfg.Daemon.HTTPAddr
	}
	if grpcAddr == "" {
		grpcAddr = cfg.Daemon.GRPCAddr
	}

	logger.SetDefault(logger.NewText(logLevel, os.Stdout))
	gin.SetMode(gin.ReleaseMode)

	opts, err := tspd.SolverOptionsFromConfig(cfg.Solver)
	if err != nil {
		logger.Error("invalid solver config", "error", err)
		os.Exit(1)
	}

	iterations, err := tspd.OpenIterationLog(cfg.Daemon.DBPath)
	if err != nil {
		logger.Error("failed to open iteration log", "path", cfg.Daemon.DBPath, "error", err)
		os.Exit(1)
	}
	defer iterations.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executor := tspd.NewExecutor(iterations, opts, logger.Default)
	grpcServer, healthServer := tspd.NewGRPCServer()

	grpcLis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Error("failed to listen for gRPC", "addr", grpcAddr, "error", err)
		stop()
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           tspd.NewHTTPServer(executor, logger.Default).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("gRPC health server listening", "addr", grpcAddr)
		if err := grpcServer.Serve(grpcLis); err != nil {
			logger.Error("gRPC server error", "error", err)
			stop()
		}
	}()

	go func() {
		logger.Info("HTTP server listening", "addr", httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	tspd.SetServing(healthServer, true)

	<-ctx.Done()
	logger.Info("shutdown requested")
	stop()
	tspd.SetServing(healthServer, false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	executor.Stop()
	grpcServer.GracefulStop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
}
