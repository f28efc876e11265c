package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rubix982/triage/pkg/cli/config"
	httpctrl "github.com/Rubix982/triage/pkg/controller/http"
	"github.com/Rubix982/triage/pkg/service/worker"
	"github.com/Rubix982/triage/pkg/usecase"
	"github.com/Rubix982/triage/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var configPath string
	var requireToken bool
	var refreshInterval time.Duration
	var repoCfg config.Repository
	var geminiCfg config.Gemini

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("TRIAGE_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to the pipeline configuration TOML file",
			Sources:     cli.EnvVars("TRIAGE_CONFIG"),
			Destination: &configPath,
		},
		&cli.BoolFlag{
			Name:        "require-token",
			Usage:       "Reject ingestion for platforms without an active access token",
			Sources:     cli.EnvVars("TRIAGE_REQUIRE_TOKEN"),
			Destination: &requireToken,
		},
		&cli.DurationFlag{
			Name:        "index-refresh-interval",
			Usage:       "Interval of the search index repair worker",
			Value:       10 * time.Minute,
			Sources:     cli.EnvVars("TRIAGE_INDEX_REFRESH_INTERVAL"),
			Destination: &refreshInterval,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ucOpts, err := pipelineOptions(configPath)
			if err != nil {
				return err
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Gemini client")
			}
			if llmClient != nil {
				ucOpts = append(ucOpts, usecase.WithLLMClient(llmClient))
				logging.Default().Info("Search embeddings enabled")
			} else {
				logging.Default().Info("Gemini not configured, search runs on term matching only")
			}

			if requireToken {
				ucOpts = append(ucOpts, usecase.WithTokenGate())
			}

			uc := usecase.New(repo, ucOpts...)

			refreshWorker := worker.NewIndexRefreshWorker(repo, uc.Indexer(), refreshInterval)
			if err := refreshWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start index refresh worker")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				refreshWorker.Stop()
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				refreshWorker.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}

// pipelineOptions loads the TOML pipeline configuration when a path is given
func pipelineOptions(configPath string) ([]usecase.Option, error) {
	if configPath == "" {
		return nil, nil
	}
	appCfg, err := config.LoadAppConfiguration(configPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load pipeline configuration")
	}
	logging.Default().Info("Loaded pipeline configuration", "path", configPath)
	return []usecase.Option{usecase.WithPipelineConfig(appCfg.ToPipelineConfig())}, nil
}
