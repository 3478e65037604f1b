package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/SridarDhandapani/onvifcam"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	log.Info().
		Str("device", cfg.DeviceName).
		Int("port", cfg.OnvifPort).
		Str("stream", cfg.StreamURL).
		Bool("ws_discovery", cfg.WSDiscovery).
		Msg("starting onvif camera emulator")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nonces := onvifcam.NewNonceStore(onvifcam.FreshnessWindow)
	replay := onvifcam.NewReplayCache(onvifcam.FreshnessWindow)
	auth := onvifcam.NewEngine(cfg, nonces, replay, log)
	server := onvifcam.NewServer(cfg, auth, log)

	if cfg.WSDiscovery {
		responder := onvifcam.NewResponder(cfg, log)
		if err := responder.Start(ctx); err != nil {
			// The SOAP service keeps running without discovery.
			log.Error().Err(err).Msg("ws-discovery unavailable, continuing without it")
		} else {
			defer responder.Stop()
		}
	} else {
		log.Info().Msg("ws-discovery disabled")
	}

	if err := server.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("soap server failed")
	}
	log.Info().Msg("shutdown complete")
}

func loadConfig() (*onvifcam.DeviceConfig, error) {
	port := 8080
	if v := os.Getenv("ONVIF_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		port = p
	}
	return onvifcam.NewDeviceConfig(
		envOr("DEVICE_NAME", "ONVIF-Media-Transcoder"),
		port,
		envOr("CONTAINER_IP", "127.0.0.1"),
		envOr("RTSP_STREAM_URL", "rtsp://127.0.0.1:8554/stream"),
		envOr("ONVIF_USERNAME", "admin"),
		envOr("ONVIF_PASSWORD", "onvif-rust"),
		os.Getenv("WS_DISCOVERY_ENABLED") == "true",
		os.Getenv("DEBUG") == "true",
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
