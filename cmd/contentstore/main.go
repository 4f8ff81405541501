// Command contentstore serves and maintains element content tables.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ryanbastic/go-contentstore/internal/config"
)

var (
	// elementTypesFile is set by the --config flag and overrides ELEMENT_TYPES_PATH.
	elementTypesFile string

	cfg    config.Config
	logger *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "contentstore",
	Short: "contentstore stores element field content and keeps it searchable",
	Long: `contentstore keeps the custom field values of elements in per-context
content tables and mirrors their search keywords into a search index.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadRuntime,
}

func init() {
	fs := rootCmd.PersistentFlags()
	fs.StringVar(&elementTypesFile, "config", "", "element types file (default: $ELEMENT_TYPES_PATH)")
	fs.String("port", "", "HTTP port (default: $PORT or 8080)")
	fs.String("driver", "", "database driver: postgres, sqlite or memory (default: $DATABASE_DRIVER)")
	fs.String("search", "", "search backend: bleve, postgres or none (default: $SEARCH_BACKEND)")
	fs.String("log-level", "", "log level: debug, info, warn or error (default: $LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(getCmd)
}

// loadRuntime reads the environment, applies flag overrides and builds the logger.
func loadRuntime(cmd *cobra.Command, args []string) error {
	if elementTypesFile != "" {
		if err := os.Setenv("ELEMENT_TYPES_PATH", elementTypesFile); err != nil {
			return err
		}
	}
	if os.Getenv("ELEMENT_TYPES_PATH") == "" {
		return fmt.Errorf("ELEMENT_TYPES_PATH is not set; pass --config or set the environment variable")
	}

	cfg = config.Load()
	applyFlags(cmd.Flags(), &cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger = newLogger(cfg.LogLevel)
	return nil
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) {
	overrides := map[string]*string{
		"port":      &cfg.Port,
		"driver":    &cfg.DatabaseDriver,
		"search":    &cfg.SearchBackend,
		"log-level": &cfg.LogLevel,
	}
	fs.Visit(func(f *pflag.Flag) {
		if dst, ok := overrides[f.Name]; ok {
			*dst = f.Value.String()
		}
	})
}

func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}
