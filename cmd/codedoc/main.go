package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"codedoc/internal/database"
	"codedoc/internal/llm/client"
	"codedoc/internal/models"
	"codedoc/internal/repositories"
	"codedoc/internal/services"
	"codedoc/internal/utils"
)

var (
	flagDBPath   string
	flagProvider string
	flagModel    string
	flagRPM      int
	flagWorkers  int
)

func main() {
	if err := utils.LoadEnv(); err != nil {
		log.Printf("failed to load .env: %v", err)
	}

	root := &cobra.Command{
		Use:   "codedoc",
		Short: "Generate documentation for Python repositories",
		Long:  "codedoc scans a Python repository, extracts its structure, and generates docstrings and a readme through an LLM provider.",
	}
	root.PersistentFlags().StringVar(&flagDBPath, "db", "codedoc.db", "path to the sqlite database")
	root.PersistentFlags().StringVar(&flagProvider, "provider", "gemini", "LLM provider (gemini, openai, claude)")
	root.PersistentFlags().StringVar(&flagModel, "model", "", "model name override for the provider")
	root.PersistentFlags().IntVar(&flagRPM, "rpm", 12, "maximum LLM requests per minute")
	root.PersistentFlags().IntVar(&flagWorkers, "workers", 1, "concurrent generation calls")

	root.AddCommand(repoCmd(), generateCmd(), statusCmd(), exportCmd(), authCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired service graph for one command invocation.
type app struct {
	repos  repositories.RepositoryRepository
	jobs   repositories.DocumentationJobRepository
	docgen *services.DocGenService
}

// newApp opens the database and wires the pipeline. Commands that never
// call the LLM pass needsLLM=false and skip provider setup.
func newApp(ctx context.Context, needsLLM bool) (*app, error) {
	db, err := database.Init(database.Config{Path: flagDBPath})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repoRepo := repositories.NewRepositoryRepository(db)
	jobRepo := repositories.NewDocumentationJobRepository(db)
	source := services.NewSourceService(repoRepo)

	var generator services.Generator
	if needsLLM {
		llc, err := buildClient(ctx)
		if err != nil {
			return nil, err
		}
		generator = client.NewDocGenerator(llc.Chat, client.GenerationConfig{})
	}

	orchestrator := services.NewBatchOrchestrator(jobRepo, generator, services.NewDocumentAssembler(), services.BatchConfig{
		RequestsPerMinute: flagRPM,
		Concurrency:       flagWorkers,
	})
	return &app{
		repos:  repoRepo,
		jobs:   jobRepo,
		docgen: services.NewDocGenService(repoRepo, jobRepo, source, orchestrator),
	}, nil
}

func buildClient(ctx context.Context) (*client.LLMClient, error) {
	keyring := services.NewKeyringService()
	apiKey, err := keyring.GetApiKey(flagProvider)
	if err != nil {
		return nil, fmt.Errorf("no API key for provider %q: %w", flagProvider, err)
	}
	switch strings.ToLower(flagProvider) {
	case "gemini":
		return client.NewGeminiClient(ctx, apiKey, client.GeminiModelOptions{Model: flagModel})
	case "openai":
		return client.NewOpenAIClient(ctx, apiKey, flagModel)
	case "claude":
		return client.NewClaudeClient(ctx, apiKey, flagModel)
	default:
		return nil, fmt.Errorf("unknown provider %q", flagProvider)
	}
}

func repoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage registered repositories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <path>",
		Short: "Register a local repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			name := filepath.Base(path)
			repo, err := a.docgen.RegisterRepository(name, path, path)
			if err != nil {
				return err
			}
			fmt.Printf("registered %s (id %d)\n", repo.FullName, repo.ID)
			return nil
		},
	})
	return cmd
}

func generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <repository-id>",
		Short: "Run documentation generation and wait for completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var repoID uint
			if _, err := fmt.Sscanf(args[0], "%d", &repoID); err != nil {
				return fmt.Errorf("invalid repository id %q", args[0])
			}
			a, err := newApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			jobKey, err := a.docgen.TriggerGeneration(cmd.Context(), repoID)
			if err != nil {
				return err
			}
			fmt.Printf("job %s started\n", jobKey)
			return waitForJob(cmd.Context(), a, jobKey)
		},
	}
}

// waitForJob polls the persisted job until it reaches a terminal state,
// printing progress as it changes.
func waitForJob(ctx context.Context, a *app, jobKey string) error {
	lastPct := -1.0
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := a.docgen.CancelJob(jobKey); err != nil {
				log.Printf("cancel failed: %v", err)
			}
			return ctx.Err()
		case <-ticker.C:
		}
		job, err := a.docgen.GetJob(jobKey)
		if err != nil {
			return err
		}
		if job.ProgressPercentage != lastPct {
			lastPct = job.ProgressPercentage
			fmt.Printf("progress: %.0f%% (%d/%d items)\n", job.ProgressPercentage, job.ProcessedItems, job.ItemCount)
		}
		if job.IsTerminal() {
			if job.Status == models.JobStatusFailed {
				return fmt.Errorf("job failed: %s", job.ErrorMessage)
			}
			fmt.Printf("job %s completed\n", jobKey)
			return nil
		}
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-key>",
		Short: "Show the state of a documentation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			job, err := a.docgen.GetJob(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("job:      %s\n", job.JobKey)
			fmt.Printf("status:   %s\n", job.Status)
			fmt.Printf("files:    %d\n", job.FileCount)
			fmt.Printf("progress: %.0f%% (%d/%d items)\n", job.ProgressPercentage, job.ProcessedItems, job.ItemCount)
			if job.ErrorMessage != "" {
				fmt.Printf("error:    %s\n", job.ErrorMessage)
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export <job-key>",
		Short: "Write the generated document of a completed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			doc, err := a.docgen.GetJobContent(args[0])
			if err != nil {
				return err
			}
			payload, err := doc.MarshalStable()
			if err != nil {
				return err
			}
			if outPath == "" {
				fmt.Println(string(payload))
				return nil
			}
			if err := os.WriteFile(outPath, payload, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			fmt.Printf("wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set-key <provider> <api-key>",
		Short: "Store an API key in the system keyring",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.NewKeyringService().StoreApiKey(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("stored key for %s\n", args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete-key <provider>",
		Short: "Remove a stored API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.NewKeyringService().DeleteApiKey(args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted key for %s\n", args[0])
			return nil
		},
	})
	return cmd
}
