package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/shapley/attributor"
	"github.com/absmach/shapley/attributor/api"
	"github.com/absmach/shapley/attributor/middleware"
	"github.com/absmach/shapley/pkg/attribution"
	"github.com/absmach/shapley/pkg/mqtt"
	"github.com/absmach/shapley/pkg/storage"
	"github.com/absmach/supermq/pkg/jaeger"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName          = "attributor"
	defHTTPPort      = "7070"
	envPrefix        = "ATTRIBUTOR_"
	envPrefixHTTP    = "ATTRIBUTOR_HTTP_"
	envPrefixStorage = "ATTRIBUTOR_STORAGE_"
	pathEnv          = ".env"
)

type envConfig struct {
	LogLevel    string        `env:"LOG_LEVEL"    envDefault:"info"`
	InstanceID  string        `env:"INSTANCE_ID"`
	MQTTAddress string        `env:"MQTT_ADDRESS" envDefault:"tcp://localhost:1883"`
	MQTTQoS     uint8         `env:"MQTT_QOS"     envDefault:"2"`
	MQTTTimeout time.Duration `env:"MQTT_TIMEOUT" envDefault:"30s"`
	ClientID    string        `env:"CLIENT_ID"`
	ClientKey   string        `env:"CLIENT_KEY"`
	DomainID    string        `env:"DOMAIN_ID"`
	ChannelID   string        `env:"CHANNEL_ID"`
	OTELURL     url.URL       `env:"OTEL_URL"`
	TraceRatio  float64       `env:"TRACE_RATIO"  envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	attrCfg := attribution.DefaultConfig()
	if err := env.ParseWithOptions(&attrCfg, env.Options{Prefix: envPrefix}); err != nil {
		logger.Error("failed to load attribution configuration", slog.String("error", err.Error()))

		return
	}
	runner, err := attribution.NewRunner(attrCfg, nil, logger)
	if err != nil {
		logger.Error("invalid attribution configuration", slog.String("error", err.Error()))

		return
	}

	storageCfg := storage.Config{}
	if err := env.ParseWithOptions(&storageCfg, env.Options{Prefix: envPrefixStorage}); err != nil {
		logger.Error("failed to load storage configuration", slog.String("error", err.Error()))

		return
	}
	repos, err := storage.NewRepositories(storageCfg)
	if err != nil {
		logger.Error("failed to initialize storage", slog.String("type", storageCfg.Type), slog.String("error", err.Error()))

		return
	}
	if repos.Closer != nil {
		defer repos.Closer.Close()
	}

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, cfg.InstanceID, cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	var pubsub mqtt.PubSub
	if cfg.ChannelID != "" {
		pubsub, err = mqtt.NewPubSub(mqtt.Config{
			URL:      cfg.MQTTAddress,
			QoS:      cfg.MQTTQoS,
			ClientID: cfg.ClientID,
			Username: cfg.ClientID,
			Password: cfg.ClientKey,
			DomainID: cfg.DomainID,
			Channel:  cfg.ChannelID,
			Timeout:  cfg.MQTTTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := pubsub.Disconnect(context.Background()); err != nil {
				logger.Error("failed to disconnect mqtt pubsub", slog.Any("error", err))
			}
		}()
	}

	svc := attributor.NewService(runner, repos.Records, pubsub, mqtt.BaseTopic(cfg.DomainID, cfg.ChannelID), logger)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	if pubsub != nil {
		if err := attributor.Subscribe(ctx, svc, pubsub, mqtt.BaseTopic(cfg.DomainID, cfg.ChannelID), logger); err != nil {
			logger.Error("failed to subscribe to attribution requests", slog.String("error", err.Error()))

			return
		}
	}

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}
