package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"posearena/config"
	"posearena/pose"
	"posearena/server"
	"posearena/vision"
)

// PoseArena 入口：启动 HTTP + WebSocket 服务，每个连接一个体感小游戏会话
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(cfg.LogFile, cfg.LogLevel, cfg.LogStderr); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	// 每个会话独立打开摄像头与姿态服务客户端，会话结束即释放
	open := vision.Open(
		vision.CameraConfig{Device: cfg.CameraDevice, Width: cfg.FrameWidth, Height: cfg.FrameHeight},
		vision.RenderConfig{JPEGQuality: cfg.JPEGQuality, MaskThreshold: cfg.MaskThreshold},
		func() vision.Estimator {
			return pose.NewClient(cfg.PoseURL, cfg.PoseTimeout, server.Log)
		},
		server.Log,
	)

	rm := server.NewSessionManager(server.ManagerConfig{
		MaxSessions:  cfg.MaxSessions,
		Rules:        cfg.Rules(),
		TickInterval: cfg.TickInterval(),
		WriteTimeout: cfg.WriteTimeout,
		Open:         open,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", rm.HandleWS)
	// 原客户端直接连接 ws://host:port/，根路径同时承载 WebSocket 与静态资源
	mux.HandleFunc("/", rm.HandleRoot(http.FileServer(http.Dir(cfg.StaticDir))))
	// 管理与监控接口
	mux.HandleFunc("/admin/config", rm.HandleAdminConfig)
	mux.HandleFunc("/metrics", rm.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		server.Log.Infof("PoseArena listening on %s; camera=%s pose=%s", cfg.Addr, cfg.CameraDevice, cfg.PoseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rm.Shutdown(ctx); err != nil {
		server.Log.Warnw("sessions did not stop in time", "err", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		server.Log.Warnw("http shutdown", "err", err)
	}
}
