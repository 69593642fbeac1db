package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kikiluvv/scenefinder/internal/config"
	"github.com/kikiluvv/scenefinder/internal/gui"
	"github.com/kikiluvv/scenefinder/internal/logging"
	"github.com/kikiluvv/scenefinder/internal/pipeline"
	"github.com/kikiluvv/scenefinder/internal/prompt"
	"github.com/kikiluvv/scenefinder/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	verbose     bool
	videoPath   string
	videoSearch string
	showCollage bool
	threshold   float64
	modeFlag    string
	queryFlag   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		cliLog := logging.WithComponent("cli")
		cliLog.Debug().Err(err).Msg("run failed")
		fmt.Fprintf(os.Stderr, "scenefinder: %v\n", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:           "scenefinder",
	Short:         "scenefinder - find scenes in a video by describing them",
	Long:          "Segments a video into scenes, captions each scene and searches the captions, or asks a video model directly. Matches are saved as a collage.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)
		logger, runID := logging.WithRun(log.Logger)
		log.Logger = logger
		cliLog := logging.WithComponent("cli")
		cliLog.Debug().Str("command", cmd.Name()).Str("run", runID).Msg("starting")

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := applyFlags(cmd, cfg); err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		var mode prompt.Mode
		if cmd.Flags().Changed("mode") {
			m, err := prompt.ParseMode(modeFlag)
			if err != nil {
				return fmt.Errorf("invalid --mode: %w", err)
			}
			mode = m
		}

		prompter := choosePrompter(mode, queryFlag)
		if mode == 0 {
			m, err := prompter.SelectMode(cmd.Context())
			if err != nil {
				return err
			}
			mode = m
		}
		return runQuery(cmd, cfg, prompter, mode, queryFlag)
	},
}

// choosePrompter answers from the command line when it already carries
// everything a run needs, and asks on the terminal otherwise.
func choosePrompter(mode prompt.Mode, query string) prompt.Prompter {
	if mode != 0 && strings.TrimSpace(query) != "" {
		return prompt.Static{Mode: mode, Input: query}
	}
	return prompt.NewTerminal()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./scenefinder.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&videoPath, "video", "", "source video path")
	flags.StringVar(&videoSearch, "video-search", "", "download the first search result when the video is missing")
	flags.BoolVar(&showCollage, "show", false, "open the collage in a window")
	flags.Float64Var(&threshold, "threshold", 0, "minimum caption similarity (0-100)")

	rootCmd.Flags().StringVar(&modeFlag, "mode", "", "1 for caption search, 2 for the video model (skips the menu)")
	rootCmd.Flags().StringVar(&queryFlag, "query", "", "query to run instead of prompting for one")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("video") {
		cfg.Video.Path = videoPath
	}
	if flags.Changed("video-search") {
		cfg.Video.Search = videoSearch
	}
	if flags.Changed("show") {
		cfg.Collage.Show = showCollage
	}
	if flags.Changed("threshold") {
		cfg.Search.Threshold = threshold
	}
	return cfg.Validate()
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Detect scenes and build the caption index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		deps, err := pipeline.DefaultDeps(log.Logger, cfg)
		if err != nil {
			return err
		}

		idx, err := pipeline.NewCaptionSearch(log.Logger, cfg, deps).EnsureIndex(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Caption index ready: %d scenes in %s\n", len(idx), cfg.Resolve(cfg.Index.Path))
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search scene captions and save matching scenes as a collage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		query := strings.Join(args, " ")
		return runQuery(cmd, cfg, choosePrompter(prompt.ModeCaptionSearch, query), prompt.ModeCaptionSearch, query)
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [prompt...]",
	Short: "Ask the video model for matching moments and save them as a collage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		query := strings.Join(args, " ")
		return runQuery(cmd, cfg, choosePrompter(prompt.ModeRemoteQuery, query), prompt.ModeRemoteQuery, query)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.FromContext(cmd.Context()).YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "scenefinder.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if util.FileExists(path) {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func runQuery(cmd *cobra.Command, cfg *config.Config, prompter prompt.Prompter, mode prompt.Mode, query string) error {
	deps, err := pipeline.DefaultDeps(log.Logger, cfg)
	if err != nil {
		return err
	}

	src, err := pipeline.SourceFor(mode, log.Logger, cfg, deps)
	if err != nil {
		return err
	}

	viewer := func(path string, lines []string) error {
		return gui.ShowCollage("scenefinder", path, lines)
	}

	outcome, err := pipeline.New(log.Logger, cfg, prompter, viewer).Run(cmd.Context(), src, query)
	if err != nil {
		return err
	}

	report(cmd.OutOrStdout(), outcome)
	return nil
}

func report(w io.Writer, outcome *pipeline.Outcome) {
	if outcome.NoMatches {
		fmt.Fprintf(w, "No matches for %q.\n", outcome.Query)
		return
	}

	fmt.Fprintf(w, "Matches for %q (%s):\n", outcome.Query, outcome.Source)
	for _, item := range outcome.Items {
		fmt.Fprintf(w, "  %s\n", item.Line())
	}

	if !outcome.Collage.Rendered {
		fmt.Fprintln(w, "None of the matched frames could be loaded; no collage was written.")
		return
	}
	fmt.Fprintf(w, "Collage saved to %s\n", outcome.Collage.Path)
}
