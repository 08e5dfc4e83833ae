package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/eringen/pubtree"
)

var (
	cfgFile string
	verbose bool

	// siteCfg is loaded before every command runs.
	siteCfg pubtree.SiteConfig
)

var rootCmd = &cobra.Command{
	Use:   "pubtree",
	Short: "Publish plain-text posts as rich document trees",
	Long: `pubtree serves a blog whose posts are stored as document trees.

Posts are written as plain text: lines starting with # are headings, blank
lines separate paragraphs. The server parses them on submission, and the
CLI converts, inspects and submits them from the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		setupLogging(cmd.ErrOrStderr(), verbose)
		cfg, err := pubtree.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		siteCfg = cfg
		log.Debug().Str("config", cfgFile).Str("db", cfg.DatabasePath).Msg("config loaded")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("PUBTREE_CONFIG"), "Path to a YAML or TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func setupLogging(w io.Writer, verbose bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// readInput returns the contents of args[0], or stdin when no file or "-"
// is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}
