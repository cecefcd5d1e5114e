package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/modernusa/newsdesk/internal/config"
	"github.com/modernusa/newsdesk/internal/pipeline"
	"github.com/modernusa/newsdesk/internal/scheduler"
	"github.com/modernusa/newsdesk/internal/store"
	"github.com/modernusa/newsdesk/pkg/rank"
	"github.com/modernusa/newsdesk/pkg/server"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// openAll loads config and opens the store; callers must Close the store.
func openAll() (*config.Config, *store.SQLiteStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return cfg, db, nil
}

func runCollect() error {
	cfg, db, err := openAll()
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := pipeline.New(cfg, db).Run(context.Background())
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	names := make([]string, 0, len(stats.PerSource))
	for name := range stats.PerSource {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tNEW")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%d\n", name, stats.PerSource[name])
	}
	w.Flush()

	fmt.Printf("\ntotal: %d new articles from %d entries\n", stats.NewArticles, stats.Entries)
	return nil
}

func runPick(count, window int, jsonOutput bool) error {
	cfg, db, err := openAll()
	if err != nil {
		return err
	}
	defer db.Close()

	if count <= 0 {
		count = cfg.Selection.StoryCount
	}
	if window <= 0 {
		window = cfg.Selection.WindowHours
	}

	stories, err := db.SelectStories(context.Background(), store.SelectOpts{
		Count:          count,
		WindowHours:    window,
		CandidateLimit: cfg.Selection.CandidateLimit,
	}, rank.Pick)
	if err != nil {
		return fmt.Errorf("pick stories: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stories)
	}

	if len(stories) == 0 {
		fmt.Println("no eligible candidates (try collecting first: newsdesk collect)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCORE\tCATEGORY\tSOURCE\tTITLE")
	for _, a := range stories {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", a.ID, a.PriorityScore, a.Category, a.Source, a.Title)
	}
	return w.Flush()
}

func runPosted(args []string) error {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid article id %q", arg)
		}
		ids = append(ids, id)
	}

	_, db, err := openAll()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.MarkPosted(context.Background(), ids)
	if err != nil {
		return fmt.Errorf("mark posted: %w", err)
	}
	fmt.Printf("marked %d of %d articles as posted\n", n, len(ids))
	return nil
}

func runReset() error {
	_, db, err := openAll()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.ResetSelections(context.Background())
	if err != nil {
		return fmt.Errorf("reset selections: %w", err)
	}
	fmt.Printf("reset %d selections\n", n)
	return nil
}

func runPurge(days int) error {
	cfg, db, err := openAll()
	if err != nil {
		return err
	}
	defer db.Close()

	if days <= 0 {
		days = cfg.Retention.Days
	}

	n, err := db.Purge(context.Background(), days)
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	fmt.Printf("purged %d articles older than %d days\n", n, days)
	return nil
}

func runStatus() error {
	_, db, err := openAll()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	stats, err := db.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	summary, err := db.SelectionSummary(ctx)
	if err != nil {
		return fmt.Errorf("selection summary: %w", err)
	}

	fmt.Printf("articles:  %d total, %d relevant, %d excluded, %d sources\n",
		stats.TotalArticles, stats.Relevant, stats.Excluded, stats.Sources)

	if len(summary) == 0 {
		fmt.Println("selection: none")
		return nil
	}

	categories := make([]string, 0, len(summary))
	for cat := range summary {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	fmt.Println("selection:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, cat := range categories {
		fmt.Fprintf(w, "  %s\t%d\n", cat, summary[cat])
	}
	return w.Flush()
}

func runServe(port int) error {
	cfg, db, err := openAll()
	if err != nil {
		return err
	}
	defer db.Close()

	if port == 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := server.New(db, pipeline.New(cfg, db), port)
	return srv.ListenAndServe(ctx)
}

func runDaemon(port int) error {
	cfg, db, err := openAll()
	if err != nil {
		return err
	}
	defer db.Close()

	if port == 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := pipeline.New(cfg, db)
	sched := scheduler.New(p, db, cfg.Schedule.ParseCollectInterval(), cfg.Retention.Days)

	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	srv := server.New(db, p, port)
	return srv.ListenAndServe(ctx)
}
