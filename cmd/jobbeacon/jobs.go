package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobbeacon/internal/beacon"
	"github.com/amishk599/jobbeacon/internal/model"
)

var jobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List stored postings, newest first",
	RunE:  runJobs,
}

var searchQuery beacon.SearchQuery

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search stored postings",
	Long:  "Filters stored postings. Empty flags and \"any\" impose no constraint; keywords are comma-separated.",
	RunE:  runSearch,
}

func init() {
	jobsCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 0, "show at most n postings (0 = all)")
	searchCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 0, "show at most n postings (0 = all)")
	addQueryFlags(searchCmd, &searchQuery)

	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(searchCmd)
}

func addQueryFlags(cmd *cobra.Command, q *beacon.SearchQuery) {
	cmd.Flags().StringVar(&q.Keywords, "keywords", "", "comma-separated keywords")
	cmd.Flags().StringVar(&q.Location, "location", "", "location substring")
	cmd.Flags().StringVar(&q.ExperienceLevel, "level", "", "experience level (internship, entry-level, junior, ...)")
	cmd.Flags().StringVar(&q.JobType, "type", "", "job type (Full-time, Part-time, Contract, Internship)")
}

// quietLogger keeps read-only commands' output to the table itself.
func quietLogger() *slog.Logger {
	if debug {
		return setupLogger(true)
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runJobs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, false, quietLogger())
	if err != nil {
		return err
	}
	defer a.close()

	postings, err := a.service.GetJobs(ctx)
	if err != nil {
		return err
	}
	printPostings(postings, jobsLimit)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, false, quietLogger())
	if err != nil {
		return err
	}
	defer a.close()

	postings, err := a.service.SearchJobs(ctx, searchQuery)
	if err != nil {
		return err
	}
	printPostings(postings, jobsLimit)
	return nil
}

func printPostings(postings []model.Posting, limit int) {
	total := len(postings)
	if limit > 0 && limit < total {
		postings = postings[:limit]
	}

	fmt.Printf("%-10s  %-40s  %-20s  %-18s  %s\n", "Posted", "Title", "Company", "Location", "Type")
	fmt.Println(strings.Repeat("─", 104))
	for _, p := range postings {
		posted := "n/a"
		if !p.PostedAt.IsZero() {
			posted = p.PostedAt.Format("2006-01-02")
		}
		fmt.Printf("%-10s  %-40s  %-20s  %-18s  %s\n",
			posted, truncate(p.Title, 40), truncate(p.Company, 20), truncate(p.Location, 18), p.JobType)
	}
	fmt.Printf("\nShowing %d of %d postings\n", len(postings), total)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
