package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobbeacon/internal/beacon"
	"github.com/amishk599/jobbeacon/internal/browse"
	"github.com/amishk599/jobbeacon/internal/filter"
	"github.com/amishk599/jobbeacon/internal/model"
)

var (
	browseEmail    string
	browsePassword string
	browseQuery    beacon.SearchQuery
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored postings interactively (TUI)",
	Long:  "Shows a search picker, then the split-pane view of all postings against the chosen search. With --email the account's saved searches are offered; query flags add an ad-hoc search.",
	RunE:  runBrowseCmd,
}

func init() {
	browseCmd.Flags().StringVar(&browseEmail, "email", "", "account email; offers its saved searches")
	browseCmd.Flags().StringVar(&browsePassword, "password", "", "account password (default: JOBBEACON_PASSWORD env var)")
	addQueryFlags(browseCmd, &browseQuery)
	rootCmd.AddCommand(browseCmd)
}

func runBrowseCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	// Any log output before the alt-screen starts corrupts the display.
	a, err := openApp(ctx, false, quietLogger())
	if err != nil {
		return err
	}
	defer a.close()

	var searches []model.SavedSearch
	if browseEmail != "" {
		creds.password = browsePassword
		p, err := a.service.Authenticate(ctx, beacon.LoginRequest{Email: browseEmail, Password: password()})
		if err != nil {
			return err
		}
		searches = p.SavedSearches
	}

	choices := browse.Choices(searches)
	if q := browseQuery; q != (beacon.SearchQuery{}) {
		choices = append(choices, browse.Choice{
			Label:    "Ad-hoc search",
			Criteria: filter.ParseCriteria(q.Keywords, q.Location, q.ExperienceLevel, q.JobType),
		})
	}

	for {
		i, err := browse.RunPicker(choices)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if i < 0 {
			return nil
		}

		postings, err := browse.RunLoader("stored postings", a.service.GetJobs)
		if err != nil {
			fmt.Printf("Error loading postings: %v\n", err)
			continue
		}

		wantQuit, err := browse.RunBrowser(postings, choices[i])
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
	}
}
