package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go-soilwater/config"
	"go-soilwater/dispatcher"
	"go-soilwater/pipeline"
	"go-soilwater/routes"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库连接
	config.InitDB(cfg.Database)

	p := pipeline.New(cfg.Pipeline)

	// TCP 任务分发
	dispatchDone := make(chan error, 1)
	if cfg.Server.TCPAddr != "" {
		ln, err := net.Listen("tcp", cfg.Server.TCPAddr)
		if err != nil {
			log.Fatalf("Failed to listen on %s: %v", cfg.Server.TCPAddr, err)
		}
		go func() {
			dispatchDone <- dispatcher.NewServer(p, cfg.Server).Serve(ctx, ln)
		}()
	} else {
		dispatchDone <- nil
	}

	// 设置路由
	srv := &http.Server{
		Addr:        cfg.Server.HTTPAddr,
		Handler:     routes.SetupRouter(config.DB, p, cfg.Auth),
		ReadTimeout: cfg.Server.ReadTimeout,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("HTTP server is listening on %s", cfg.Server.HTTPAddr)

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	if err := <-dispatchDone; err != nil {
		log.Printf("Dispatcher error: %v", err)
	}
	if err := config.DB.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}
