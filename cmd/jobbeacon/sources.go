package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobbeacon/internal/adapter"
	"github.com/amishk599/jobbeacon/internal/filter"
)

var sourcesCheck bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List all configured sources",
	Long:  "Reads the config and prints a table of all configured sources. With --check each enabled source is fetched once; nothing is stored.",
	RunE:  runSources,
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesCheck, "check", false, "fetch every enabled source once and report counts")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-20s %-50s %s\n", "Source", "URL", "Status")
	fmt.Println(strings.Repeat("─", 80))

	enabled, disabled := 0, 0
	for _, s := range cfg.Sources {
		status := "enabled"
		if !s.Enabled {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}
		fmt.Printf("%-20s %-50s %s\n", s.Name, truncate(s.URL, 50), status)
	}
	fmt.Printf("\nTotal: %d sources (%d enabled, %d disabled)\n", len(cfg.Sources), enabled, disabled)

	if !sourcesCheck {
		return nil
	}

	logger := quietLogger()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	audience := filter.NewAudienceFilter(cfg.Filters.Regions)

	fmt.Printf("\n%-20s %8s %8s  %s\n", "Source", "Fetched", "In scope", "Error")
	fmt.Println(strings.Repeat("─", 60))
	for _, s := range cfg.EnabledSources() {
		// No cache: a check should always hit the origin.
		a := adapter.NewRemotiveAdapter(s.Name, s.URL, httpClient, nil, logger)
		postings, err := a.FetchJobs(ctx)
		if err != nil {
			fmt.Printf("%-20s %8s %8s  %v\n", s.Name, "-", "-", err)
			continue
		}
		inScope := 0
		for _, p := range postings {
			if audience.Match(p) {
				inScope++
			}
		}
		fmt.Printf("%-20s %8d %8d\n", s.Name, len(postings), inScope)
	}
	return nil
}
