package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fibersift/fibersift/internal/api"
	"github.com/fibersift/fibersift/internal/assist"
	"github.com/fibersift/fibersift/internal/catalog"
	"github.com/fibersift/fibersift/internal/config"
	"github.com/fibersift/fibersift/internal/fetcher"
	"github.com/fibersift/fibersift/internal/ingest"
	"github.com/fibersift/fibersift/internal/store"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	// Best effort: the assist API key usually lives in .env locally.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "fibersift",
		Short: "fibersift — cotton clothing discovery",
		Long: `fibersift scrapes clothing retailers for products, classifies them by
fabric composition, and serves the resulting catalog of cotton-rich
garments over a REST API and CLI.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads and validates configuration for a command run.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := setupLogger(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}

// setupLogger creates the root structured logger.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Logging.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// openCatalog builds the configured store backend. The memory backend is
// an explicit opt-in, never a fallback for a failed mongo connection.
func openCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Catalog, error) {
	switch cfg.Store.Backend {
	case "memory":
		logger.Warn("using in-memory catalog, data will not survive restarts")
		return store.NewMemory(), nil
	case "mongo":
		return store.NewMongo(ctx, cfg.Store.URI, cfg.Store.Database, cfg.Store.Collection, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func newAssistService(cfg *config.Config, logger *slog.Logger) *assist.Service {
	return assist.NewService(cfg.Assist.Enabled, assist.ClientConfig{
		Provider:    assist.Provider(cfg.Assist.Provider),
		Endpoint:    cfg.Assist.Endpoint,
		Model:       cfg.Assist.Model,
		APIKey:      cfg.Assist.APIKey,
		MaxTokens:   cfg.Assist.MaxTokens,
		Temperature: cfg.Assist.Temperature,
	}, logger)
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cat, err := openCatalog(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer cat.Close(context.Background())

			pipeline := ingest.New(cfg, fetcher.NewBrowserFetcher(cfg, logger), logger)
			cache := ingest.NewMemoryCache(cfg.Ingest.CacheTTL)
			srv := api.NewServer(cfg.Server.Port, cat, pipeline, newAssistService(cfg, logger), cache, logger)

			logger.Info("fibersift serving",
				"port", cfg.Server.Port,
				"store", cfg.Store.Backend,
				"assist", cfg.Assist.Enabled,
			)
			if err := srv.ListenAndServe(ctx); err != nil {
				return fmt.Errorf("api server: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides config)")
	return cmd
}

// ingestCmd creates the "ingest" subcommand: one-shot scrape runs. With
// positional URL arguments it runs a curated list; otherwise --query or
// --category selects the target.
func ingestCmd() *cobra.Command {
	var (
		category string
		gender   string
		query    string
		bucket   string
		count    int
	)

	cmd := &cobra.Command{
		Use:   "ingest [url...]",
		Short: "Scrape products into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			var target ingest.Target
			switch {
			case len(args) > 0:
				target = ingest.URLListTarget{Groups: map[string][]string{bucket: args}}
			case query != "":
				target = ingest.SearchTarget{Query: query, Count: count}
			case category != "":
				target = ingest.CategoryTarget{Category: category, Gender: gender, Count: count}
			default:
				return fmt.Errorf("provide product URLs, --query or --category")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cat, err := openCatalog(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer cat.Close(context.Background())

			pipeline := ingest.New(cfg, fetcher.NewBrowserFetcher(cfg, logger), logger)
			res, runErr := pipeline.Run(ctx, target)

			if res != nil && len(res.Accepted) > 0 {
				if err := cat.UpsertBatch(context.Background(), res.Accepted); err != nil {
					return fmt.Errorf("persist batch: %w", err)
				}
			}
			if res != nil {
				fmt.Printf("Ingestion finished: %d accepted, %d skipped, %d failed\n",
					len(res.Accepted), res.Skipped, res.Failed)
			}
			if runErr != nil {
				if res != nil && len(res.Accepted) > 0 {
					// Partial results are already persisted.
					logger.Warn("run ended with errors", "error", runErr)
					return nil
				}
				return runErr
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "category to crawl (tops, pants, skirts, dresses)")
	cmd.Flags().StringVar(&gender, "gender", "", "gender section: male or female")
	cmd.Flags().StringVarP(&query, "query", "q", "", "free-form search query")
	cmd.Flags().StringVar(&bucket, "bucket", "", "intended category for curated URL arguments")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "target number of products (0 = config default)")
	return cmd
}

// queryCmd creates the "query" subcommand for browsing the stored catalog.
func queryCmd() *cobra.Command {
	var (
		categoryF string
		search    string
		minCotton int
		maxPrice  float64
		output    string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "List stored products",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			cat, err := openCatalog(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer cat.Close(ctx)

			f := store.Filter{Category: categoryF, Search: search, MaxPrice: maxPrice}
			if minCotton >= 0 {
				f.MinCotton = &minCotton
			}

			products, err := cat.Query(ctx, f)
			if err != nil {
				return fmt.Errorf("query catalog: %w", err)
			}

			if output != "" {
				outFile, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer outFile.Close()
				if err := store.Export(outFile, format, products); err != nil {
					return fmt.Errorf("export: %w", err)
				}
				fmt.Printf("Wrote %d products to %s\n", len(products), output)
				return nil
			}

			if len(products) == 0 {
				fmt.Println("No matching products.")
				return nil
			}
			for _, p := range products {
				price := "   -  "
				if p.Price != nil {
					price = fmt.Sprintf("%6.2f", *p.Price)
				}
				fmt.Printf("%s %-4s %3d%% cotton  %-8s %s\n", price, p.Currency, p.CottonPercentage, p.Category, p.Name)
			}
			fmt.Printf("\n%d products\n", len(products))
			return nil
		},
	}

	cmd.Flags().StringVar(&categoryF, "category", "", "filter by category")
	cmd.Flags().StringVarP(&search, "search", "s", "", "text search over name, fabric and color")
	cmd.Flags().IntVar(&minCotton, "min-cotton", -1, "explicit minimum cotton percentage (-1 = default threshold)")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "maximum price (0 = no limit)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write results to a file instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "export format: json, jsonl, csv")
	return cmd
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fibersift %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Server:\n")
			fmt.Printf("  Port:             %d\n", cfg.Server.Port)
			fmt.Printf("\nScraper:\n")
			fmt.Printf("  Base URL:         %s\n", cfg.Scraper.BaseURL)
			fmt.Printf("  Headless:         %v\n", cfg.Scraper.Headless)
			fmt.Printf("  Fetch Timeout:    %s\n", cfg.Scraper.FetchTimeout)
			fmt.Printf("\nIngest:\n")
			fmt.Printf("  Throttle:         %s to %s\n", cfg.Ingest.MinDelay, cfg.Ingest.MaxDelay)
			fmt.Printf("  Overfetch Factor: %d\n", cfg.Ingest.OverfetchFactor)
			fmt.Printf("  Default Count:    %d\n", cfg.Ingest.DefaultCount)
			fmt.Printf("  Cache TTL:        %s\n", cfg.Ingest.CacheTTL)
			fmt.Printf("\nStore:\n")
			fmt.Printf("  Backend:          %s\n", cfg.Store.Backend)
			fmt.Printf("  Database:         %s\n", cfg.Store.Database)
			fmt.Printf("  Collection:       %s\n", cfg.Store.Collection)
			fmt.Printf("\nAssist:\n")
			fmt.Printf("  Enabled:          %v\n", cfg.Assist.Enabled)
			fmt.Printf("  Provider:         %s\n", cfg.Assist.Provider)
			fmt.Printf("  Model:            %s\n", cfg.Assist.Model)
			fmt.Printf("\nThreshold:\n")
			fmt.Printf("  Cotton qualified: >= %d%%\n", catalog.CottonThreshold)
			return nil
		},
	}
}
