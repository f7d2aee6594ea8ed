package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobbeacon/internal/beacon"
	"github.com/amishk599/jobbeacon/internal/model"
)

type credentials struct {
	name     string
	email    string
	password string
}

var creds credentials

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Account subcommands",
}

var userRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE:  runUserRegister,
}

var userLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check credentials",
	RunE:  runUserLogin,
}

var userShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the account profile",
	RunE:  runUserShow,
}

var userNotifyCmd = &cobra.Command{
	Use:       "notify on|off",
	Short:     "Turn notifications on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runUserNotify,
}

var (
	pushEndpoint string
	pushP256dh   string
	pushAuth     string
	pushClear    bool
)

var userPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Set or clear the browser push subscription",
	RunE:  runUserPush,
}

var savedQuery beacon.SearchQuery

var searchSaveCmd = &cobra.Command{
	Use:   "save NAME",
	Short: "Save a search; an existing search with the same name is replaced",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearchSave,
}

var searchDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a saved search",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearchDelete,
}

func init() {
	userRegisterCmd.Flags().StringVar(&creds.name, "name", "", "display name")
	for _, c := range []*cobra.Command{userRegisterCmd, userLoginCmd, userShowCmd, userNotifyCmd, userPushCmd, searchSaveCmd, searchDeleteCmd} {
		addCredentialFlags(c)
	}

	userPushCmd.Flags().StringVar(&pushEndpoint, "endpoint", "", "push service endpoint URL")
	userPushCmd.Flags().StringVar(&pushP256dh, "p256dh", "", "client public key")
	userPushCmd.Flags().StringVar(&pushAuth, "auth", "", "client auth secret")
	userPushCmd.Flags().BoolVar(&pushClear, "clear", false, "remove the push subscription")

	addQueryFlags(searchSaveCmd, &savedQuery)

	userCmd.AddCommand(userRegisterCmd, userLoginCmd, userShowCmd, userNotifyCmd, userPushCmd)
	searchCmd.AddCommand(searchSaveCmd, searchDeleteCmd)
	rootCmd.AddCommand(userCmd)
}

func addCredentialFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&creds.email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.password, "password", "", "account password (default: JOBBEACON_PASSWORD env var)")
	_ = cmd.MarkFlagRequired("email")
}

func password() string {
	if creds.password != "" {
		return creds.password
	}
	return os.Getenv("JOBBEACON_PASSWORD")
}

// withAccount opens the app, authenticates the caller and runs fn.
func withAccount(fn func(ctx context.Context, a *app, p model.Profile) error) error {
	ctx := context.Background()
	a, err := openApp(ctx, false, quietLogger())
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.service.Authenticate(ctx, beacon.LoginRequest{Email: creds.email, Password: password()})
	if err != nil {
		return err
	}
	return fn(ctx, a, p)
}

func runUserRegister(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, false, quietLogger())
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.service.RegisterUser(ctx, beacon.RegisterRequest{
		Name:     creds.name,
		Email:    creds.email,
		Password: password(),
	})
	if errors.Is(err, model.ErrDuplicateAccount) {
		return fmt.Errorf("an account with email %s already exists", strings.ToLower(strings.TrimSpace(creds.email)))
	}
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s <%s> (id %s)\n", p.Name, p.Email, p.ID)
	return nil
}

func runUserLogin(cmd *cobra.Command, args []string) error {
	return withAccount(func(_ context.Context, _ *app, p model.Profile) error {
		fmt.Printf("Welcome back, %s (id %s)\n", p.Name, p.ID)
		return nil
	})
}

func runUserShow(cmd *cobra.Command, args []string) error {
	return withAccount(func(_ context.Context, _ *app, p model.Profile) error {
		printProfile(p)
		return nil
	})
}

func runUserNotify(cmd *cobra.Command, args []string) error {
	var on bool
	switch args[0] {
	case "on":
		on = true
	case "off":
	default:
		return fmt.Errorf("expected on or off, got %q", args[0])
	}
	return withAccount(func(ctx context.Context, a *app, p model.Profile) error {
		updated, err := a.service.UpdateProfile(ctx, p.ID, model.ProfileUpdate{NotificationsEnabled: &on})
		if err != nil {
			return err
		}
		fmt.Printf("Notifications %s for %s\n", onOff(updated.NotificationsEnabled), updated.Email)
		return nil
	})
}

func runUserPush(cmd *cobra.Command, args []string) error {
	var reg *model.PushRegistration
	if !pushClear {
		reg = &model.PushRegistration{
			Endpoint: pushEndpoint,
			Keys:     model.PushKeys{P256dh: pushP256dh, Auth: pushAuth},
		}
	}
	return withAccount(func(ctx context.Context, a *app, p model.Profile) error {
		if _, err := a.service.SetPushRegistration(ctx, p.ID, reg); err != nil {
			return err
		}
		if reg == nil {
			fmt.Println("Push subscription removed")
		} else {
			fmt.Printf("Push subscription saved for %s\n", reg.Endpoint)
		}
		return nil
	})
}

func runSearchSave(cmd *cobra.Command, args []string) error {
	ss := model.SavedSearch{
		Name:            args[0],
		Keywords:        savedQuery.Keywords,
		Location:        savedQuery.Location,
		ExperienceLevel: savedQuery.ExperienceLevel,
		JobType:         savedQuery.JobType,
	}
	return withAccount(func(ctx context.Context, a *app, p model.Profile) error {
		updated, err := a.service.SaveSearch(ctx, p.ID, ss)
		if err != nil {
			return err
		}
		fmt.Printf("Saved search %q (%d total)\n", strings.TrimSpace(ss.Name), len(updated.SavedSearches))
		return nil
	})
}

func runSearchDelete(cmd *cobra.Command, args []string) error {
	return withAccount(func(ctx context.Context, a *app, p model.Profile) error {
		updated, err := a.service.DeleteSearch(ctx, p.ID, args[0])
		if errors.Is(err, model.ErrSearchNotFound) {
			return fmt.Errorf("no saved search named %q", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Printf("Deleted search %q (%d left)\n", args[0], len(updated.SavedSearches))
		return nil
	})
}

func printProfile(p model.Profile) {
	fmt.Printf("%-15s %s\n", "Name", p.Name)
	fmt.Printf("%-15s %s\n", "Email", p.Email)
	fmt.Printf("%-15s %s\n", "ID", p.ID)
	fmt.Printf("%-15s %s\n", "Notifications", onOff(p.NotificationsEnabled))
	last := "never"
	if p.LastNotified.Unix() > 0 {
		last = p.LastNotified.Local().Format("2006-01-02 15:04 MST")
	}
	fmt.Printf("%-15s %s\n", "Last notified", last)
	push := "none"
	if p.Push != nil {
		push = p.Push.Endpoint
	}
	fmt.Printf("%-15s %s\n", "Push", push)

	fmt.Printf("\nSaved searches (%d)\n", len(p.SavedSearches))
	fmt.Println(strings.Repeat("─", 60))
	for _, s := range p.SavedSearches {
		fmt.Printf("%-15s keywords=%q location=%q level=%q type=%q\n",
			s.Name, s.Keywords, s.Location, s.ExperienceLevel, s.JobType)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
