package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync/atomic"

	"github.com/Rubix982/triage/pkg/cli/config"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/usecase"
	"github.com/Rubix982/triage/pkg/utils/logging"
	"github.com/Rubix982/triage/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// maxRecordSize bounds a single JSON-lines record
const maxRecordSize = 4 * 1024 * 1024

func cmdIngest() *cli.Command {
	var configPath string
	var concurrency int
	var repoCfg config.Repository
	var geminiCfg config.Gemini

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to the pipeline configuration TOML file",
			Sources:     cli.EnvVars("TRIAGE_CONFIG"),
			Destination: &configPath,
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Number of records ingested in parallel",
			Value:       4,
			Sources:     cli.EnvVars("TRIAGE_INGEST_CONCURRENCY"),
			Destination: &concurrency,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)

	return &cli.Command{
		Name:      "ingest",
		Aliases:   []string{"i"},
		Usage:     "Ingest raw extraction records from JSON-lines files",
		ArgsUsage: "<file> [<file>...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			files := c.Args().Slice()
			if len(files) == 0 {
				return goerr.New("at least one input file is required")
			}

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
			}

			uc := usecase.New(repo, ucOpts...)

			var ingested, failed atomic.Int64
			for _, path := range files {
				if err := ingestFile(ctx, uc, path, concurrency, &ingested, &failed); err != nil {
					return err
				}
			}

			logging.Default().Info("Ingestion finished",
				"files", len(files),
				"ingested", ingested.Load(),
				"failed", failed.Load(),
			)
			if failed.Load() > 0 {
				return goerr.New("some records failed to ingest", goerr.V("failed", failed.Load()))
			}
			return nil
		},
	}
}

// ingestFile streams one JSON-lines file through the ingestion pipeline.
// Record order within a file is not preserved; the upsert semantics make the
// outcome order-independent.
func ingestFile(ctx context.Context, uc *usecase.UseCases, path string, concurrency int, ingested, failed *atomic.Int64) error {
	// #nosec G304 - path is expected to be provided by CLI argument
	f, err := os.Open(path)
	if err != nil {
		return goerr.Wrap(err, "failed to open input file", goerr.V("path", path))
	}
	defer safe.Close(ctx, f)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		no := lineNo

		eg.Go(func() error {
			var raw model.RawExtraction
			if err := json.Unmarshal(line, &raw); err != nil {
				failed.Add(1)
				logging.From(ctx).Error("skipping malformed record",
					"path", path, "line", no, "error", err)
				return nil
			}

			result, err := uc.Ingest.Ingest(ctx, &raw)
			if err != nil {
				failed.Add(1)
				logging.From(ctx).Error("failed to ingest record",
					"path", path, "line", no, "url", raw.SourceURL, "error", err)
				return nil
			}

			ingested.Add(1)
			logging.From(ctx).Debug("ingested record",
				"path", path,
				"line", no,
				"content_id", result.ContentID,
				"created", result.Created,
				"new_version", result.NewVersion,
			)
			return nil
		})
	}
	if err := scanner.Err(); err != nil {
		return goerr.Wrap(err, "failed to read input file", goerr.V("path", path))
	}

	return eg.Wait()
}
