package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"hls-session/internal/media"
	"hls-session/internal/orchestrator"
	"hls-session/internal/platform/config"
	"hls-session/internal/platform/logger"
	"hls-session/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 30 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
	workDir := config.GetEnv("WORK_DIR", "./work")
	workers := config.GetEnvInt("TRANSCODE_WORKERS", orchestrator.DefaultTranscodeWorkers)
	idleSeconds := config.GetEnvInt("WORKER_IDLE_SECONDS", int(orchestrator.DefaultWorkerIdleTimeout/time.Second))

	log := logger.New(logLevel, logFormat)

	kit := orchestrator.NewKit(orchestrator.KitConfig{
		Audio: media.AudioOptions{
			Bitrate:    config.GetEnvInt("AUDIO_BITRATE", 64000),
			SampleRate: config.GetEnvInt("AUDIO_SAMPLE_RATE", 44050),
		},
		WorkDirectory: workDir,
	})
	if err := configureKit(kit); err != nil {
		log.Error("invalid kit configuration", "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		log.Error("cannot create work directory", "work_dir", workDir, "error", err)
		os.Exit(1)
	}

	met := metrics.New()
	repo := orchestrator.NewInMemoryRepository()
	svc := orchestrator.NewService(kit, repo, orchestrator.Options{
		Transcoder:        media.NewFFmpegTranscoder(config.GetEnv("FFMPEG_PATH", "ffmpeg"), workDir, kit.Config().Audio, log),
		Prober:            media.NewFFprobeProber(config.GetEnv("FFPROBE_PATH", "ffprobe")),
		Metrics:           met,
		Log:               log,
		TranscodeWorkers:  workers,
		WorkerIdleTimeout: time.Duration(idleSeconds) * time.Second,
	})
	h := orchestrator.NewHandler(svc, log)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met, "/metrics"))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetActiveSessions(svc.ActiveSessionCount()) }).ServeHTTP(w, r)
	})
	r.Handle("/media/*", http.StripPrefix("/media/", mediaFileServer(workDir)))
	h.Routes(r)

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"work_dir", workDir,
		"transcode_workers", workers,
		"variants", len(kit.Variants()),
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	svc.Close()

	log.Info("server stopped")
}

// configureKit registers output variants and cover images from the environment.
func configureKit(kit *orchestrator.Kit) error {
	for _, s := range config.GetEnvList("OUTPUT_VARIANTS", []string{"lo:80000:16:8:360x360", "hi:480000:24:12:480x480", "audio:audio"}) {
		v, err := orchestrator.ParseOutputVariant(s)
		if err != nil {
			return err
		}
		if err := kit.AddOutputVariant(v); err != nil {
			return err
		}
	}
	for _, s := range config.GetEnvList("COVER_IMAGES", nil) {
		c, err := orchestrator.ParseCoverImage(s)
		if err != nil {
			return err
		}
		if err := kit.AddCoverImage(c); err != nil {
			return err
		}
	}
	return nil
}

// mediaFileServer serves the work directory, labelling playlists and
// segments with their HLS content types.
func mediaFileServer(workDir string) http.Handler {
	fs := http.FileServer(http.Dir(workDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch strings.ToLower(filepath.Ext(r.URL.Path)) {
		case ".m3u8":
			w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
			w.Header().Set("Cache-Control", "no-cache")
		case ".ts":
			w.Header().Set("Content-Type", "video/mp2t")
		}
		fs.ServeHTTP(w, r)
	})
}
