package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"rustmap/internal/config"
	"rustmap/internal/crawler"
	"rustmap/internal/extractor"
	"rustmap/internal/git"
	"rustmap/internal/inventory"
	"rustmap/internal/report"
	"rustmap/internal/storage"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "rustmap",
		Short: "Rust source-entity inventory",
	}
	configPath string
	dbPath     string
	baseRef    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "rustmap.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the inventory database (overrides config)")

	updateCmd.Flags().StringVar(&baseRef, "base", "HEAD", "Git ref to diff against")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(reportCmd)
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	return cfg
}

func openStore(cfg *config.Config) *storage.SQLiteStore {
	store, err := storage.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	return store
}

func newCrawler(cfg *config.Config) *crawler.Crawler {
	ext := extractor.New(extractor.Options{IncludeMain: cfg.Scan.IncludeMain})
	c := crawler.New(ext, cfg.Project.IgnoreDirs)
	c.Workers = cfg.Scan.Workers
	return c
}

func scanBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Extracting files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a project and store its entity inventory",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		root := cfg.Project.Root
		if len(args) > 0 {
			root = args[0]
		}
		absRoot, err := filepath.Abs(root)
		if err != nil {
			log.Fatalf("Failed to resolve path: %v", err)
		}

		fmt.Printf("📂 Scanning directory: %s\n", absRoot)

		store := openStore(cfg)
		defer store.Close()

		ctx := context.Background()
		c := newCrawler(cfg)

		files, err := c.DiscoverFiles(ctx, absRoot)
		if err != nil {
			log.Fatalf("Discovery failed: %v", err)
		}
		fmt.Printf("🔍 Found %d Rust files.\n", len(files))

		inv := inventory.New()
		bar := scanBar(len(files))
		started := time.Now()

		err = c.ScanFiles(ctx, absRoot, files, func(res *extractor.Result) {
			inv.AddResult(res)
			bar.Add(1)
		})
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		inv.ResolveLinks()

		if err := store.SaveSnapshot(ctx, inv); err != nil {
			log.Fatalf("Failed to save inventory: %v", err)
		}
		runID, err := store.RecordScanRun(ctx, absRoot, len(files), started, time.Now())
		if err != nil {
			log.Fatalf("Failed to record scan run: %v", err)
		}

		stats := inv.Stats()
		fmt.Printf("✅ Scan complete in %v (run %s).\n", time.Since(started).Round(time.Millisecond), runID)
		fmt.Printf("  Structs:     %d\n", stats.Structs)
		fmt.Printf("  Impl blocks: %d (%d linked, %d unresolved)\n", stats.ImplBlocks, stats.Linked, stats.Unresolved)
		fmt.Printf("  Methods:     %d\n", stats.Methods)
		fmt.Printf("  Functions:   %d\n", stats.Functions)
		if stats.Diagnostics > 0 {
			fmt.Printf("⚠️  %d diagnostics recorded; see `rustmap report`.\n", stats.Diagnostics)
		}
		fmt.Printf("🎉 Database: %s\n", cfg.Storage.DBPath)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-extract only the files changed since a git ref",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx := context.Background()

		absRoot, err := filepath.Abs(cfg.Project.Root)
		if err != nil {
			log.Fatalf("Failed to resolve project root: %v", err)
		}

		changes, err := git.GetChangedFiles(ctx, absRoot, baseRef)
		if err != nil {
			log.Fatalf("Failed to get git changes: %v", err)
		}
		changes = git.RustFiles(changes)
		if len(changes) == 0 {
			fmt.Println("✅ No Rust file changes detected.")
			return
		}
		fmt.Printf("📝 Detected %d changed Rust files.\n", len(changes))

		store := openStore(cfg)
		defer store.Close()

		inv, err := store.LoadInventory(ctx)
		if err != nil {
			log.Fatalf("Failed to load inventory: %v", err)
		}

		var toExtract []string
		removed := 0
		for _, change := range changes {
			inv.RemoveFile(change.Path)
			if change.Deleted {
				removed++
				continue
			}
			toExtract = append(toExtract, change.Path)
		}

		started := time.Now()
		c := newCrawler(cfg)
		updated := 0
		err = c.ScanFiles(ctx, absRoot, toExtract, func(res *extractor.Result) {
			inv.AddResult(res)
			updated++
		})
		if err != nil {
			log.Fatalf("Update scan failed: %v", err)
		}
		inv.ResolveLinks()

		if err := store.SaveSnapshot(ctx, inv); err != nil {
			log.Fatalf("Failed to save inventory: %v", err)
		}
		if _, err := store.RecordScanRun(ctx, absRoot, len(toExtract), started, time.Now()); err != nil {
			log.Fatalf("Failed to record scan run: %v", err)
		}

		fmt.Printf("📊 Inventory update: %d files re-extracted, %d files removed.\n", updated, removed)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the stored inventory as a markdown report",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx := context.Background()

		store := openStore(cfg)
		defer store.Close()

		inv, err := store.LoadInventory(ctx)
		if err != nil {
			log.Fatalf("Failed to load inventory: %v", err)
		}
		if len(inv.Entities) == 0 {
			fmt.Println("⚠️  Inventory is empty. Run `rustmap scan` first.")
			return
		}

		gen := report.NewMarkdownGenerator()
		path, err := gen.WriteFile(inv, cfg.Report.OutputDir)
		if err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}

		if run, err := store.LastScanRun(ctx); err == nil && run != nil {
			fmt.Printf("🕐 Last scan: %s (%d files)\n", run.FinishedAt.Format(time.RFC3339), run.Files)
		}
		fmt.Printf("✅ Report written to %s\n", path)
	},
}
