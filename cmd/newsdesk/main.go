package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	initLogging()
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogging() {
	level := slog.LevelInfo
	if os.Getenv("NEWSDESK_DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "newsdesk",
		Short: "Collect, dedup, score and select US news stories for publishing",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(collectCmd())
	root.AddCommand(pickCmd())
	root.AddCommand(postedCmd())
	root.AddCommand(resetCmd())
	root.AddCommand(purgeCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func collectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Fetch all configured feeds and store new articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect()
		},
	}
}

func pickCmd() *cobra.Command {
	var (
		count      int
		window     int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Select the next batch of stories for publishing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPick(count, window, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "target story count (default: from config)")
	cmd.Flags().IntVar(&window, "window", 0, "selection window in hours (default: from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func postedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "posted <id>...",
		Short: "Mark selected articles as posted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPosted(args)
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Revert selected (not posted) articles to unselected",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset()
		},
	}
}

func purgeCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete old, never-posted articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(days)
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "retention window in days (default: from config)")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store statistics and the current selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP status API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with periodic collection and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
