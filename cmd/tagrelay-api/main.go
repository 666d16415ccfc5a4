package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/tagrelay/tagrelay/pkg/catalog"
	"github.com/tagrelay/tagrelay/pkg/cmd"
	"github.com/tagrelay/tagrelay/pkg/dispatch"
	"github.com/tagrelay/tagrelay/pkg/integrations/commerce"
	"github.com/tagrelay/tagrelay/pkg/integrations/forms"
	"github.com/tagrelay/tagrelay/pkg/log"
	"github.com/tagrelay/tagrelay/pkg/otelhelper"
	"github.com/tagrelay/tagrelay/pkg/services"
	"github.com/tagrelay/tagrelay/pkg/web"
)

const defaultPort = 9092

func main() {
	_ = godotenv.Load()

	command := &cli.Command{
		Name:                  "tagrelay-api",
		Usage:                 "Configure event triggers and dispatch resolved events",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Configuration store URL (file://path or redis://host)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "delivery-endpoint",
				Usage:   "Analytics endpoint test events are posted to",
				Sources: cli.EnvVars("DELIVERY_ENDPOINT"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka brokers; overrides the HTTP delivery endpoint",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "kafka-topic",
				Usage:   "Kafka topic resolved events are published to",
				Value:   "tagrelay-events",
				Sources: cli.EnvVars("KAFKA_TOPIC"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("api")

	logger.InfoContext(ctx, "Initializing tagrelay API")

	store, err := cmd.NewConfigStore(command.String("database-url"), log.WithModule("store"))
	if err != nil {
		return err
	}

	defer func() {
		if err := store.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close configuration store", "error", err)
		}
	}()

	delivery, err := cmd.NewDelivery(
		command.String("delivery-endpoint"),
		command.String("kafka-brokers"),
		command.String("kafka-topic"),
		log.WithModule("delivery"),
	)
	if err != nil {
		return err
	}

	var tracer trace.Tracer
	if command.Bool("tracing") {
		tracer, err = otelhelper.NewTracer(ctx, "tagrelay-api")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}
	}

	cat := catalog.NewCatalog(log.WithModule("catalog"))
	cat.Register(forms.New(log.WithModule("forms")))
	cat.Register(commerce.New(log.WithModule("commerce")))

	triggerService := services.NewTrigger(store, log.WithModule("triggers"))
	integrationService := services.NewIntegrations(store, cat, triggerService, log.WithModule("integrations"))
	pipeline := dispatch.NewPipeline(cat, delivery, tracer, log.WithModule("dispatch"))

	handlers := web.NewAPIHandlers(
		triggerService,
		integrationService,
		pipeline,
		validator.New(validator.WithRequiredStructEnabled()),
		cat,
	)

	app := fiber.New(fiber.Config{AppName: "tagrelay-api"})
	web.RegisterRoutes(app, handlers)

	logger.InfoContext(ctx, "Starting API server", "port", command.Int("port"))

	return app.Listen(fmt.Sprintf(":%d", command.Int("port")))
}
