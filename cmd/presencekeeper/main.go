package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/zap"

	"presencekeeper/gateway"
	"presencekeeper/launcher"
	"presencekeeper/presence"
	"presencekeeper/tokens"
)

const version = "0.1.0"

type runOptions struct {
	tokensPath     string
	configPath     string
	gatewayURL     string
	metricsAddr    string
	jaegerEndpoint string
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	root := cobra.Command{
		Use:   "presencekeeper",
		Short: "Keep bot gateway sessions online with a randomized presence",
	}

	root.AddCommand(RunCommand(logger))
	root.AddCommand(CheckConfigCommand(logger))
	root.AddCommand(&cobra.Command{
		Use: "version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	})

	if err := root.Execute(); err != nil {
		logger.Fatal("failed to execute command", zap.Error(err))
	}
}

func RunCommand(logger *zap.Logger) *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open one gateway session per token and keep it alive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, logger, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.tokensPath, "tokens", "tokens.txt", "file with one bot token per line")
	flags.StringVar(&opts.configPath, "config", "config.json", "presence config, json or toml")
	flags.StringVar(&opts.gatewayURL, "gateway", gateway.DefaultGatewayURL, "gateway websocket url")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	flags.StringVar(&opts.jaegerEndpoint, "jaeger-endpoint", "", "jaeger collector endpoint for traces")
	return cmd
}

func CheckConfigCommand(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config <path>",
		Short: "Validate a presence config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := presence.LoadConfig(args[0])
			if err != nil {
				return err
			}
			logger.Info("config is valid",
				zap.Strings("statuses", cfg.Statuses),
				zap.Strings("activity_types", cfg.ActivityTypes),
			)
			return nil
		},
	}
}

func run(cmd *cobra.Command, logger *zap.Logger, opts runOptions) error {
	ctx := context.Background()

	if opts.jaegerEndpoint != "" {
		tp, err := tracerProvider(opts.jaegerEndpoint)
		if err != nil {
			return err
		}
		otel.SetTracerProvider(tp)
		defer func() { _ = tp.Shutdown(ctx) }()
	}

	toks, err := tokens.Load(opts.tokensPath)
	if err != nil {
		return err
	}
	cfg, err := presence.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("serving metrics", zap.String("addr", opts.metricsAddr))
			if err := http.ListenAndServe(opts.metricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	launcher.Banner(cmd.OutOrStdout(), len(toks))

	l := launcher.New(logger.Named("launcher"), cfg)
	l.GatewayURL = opts.gatewayURL
	if _, err := l.Launch(ctx, toks); err != nil {
		return err
	}
	logger.Info("sessions launched", zap.Int("count", len(toks)))

	// Sessions are never restarted; keep the process up until interrupted
	// even once they have all ended.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	logger.Info("shutting down", zap.Int64("active", l.Active()))
	return nil
}

func tracerProvider(url string) (*tracesdk.TracerProvider, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(url)))
	if err != nil {
		return nil, err
	}
	tp := tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("presencekeeper"),
			attribute.String("version", version),
		)),
	)
	return tp, nil
}
