package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobbeacon/internal/model"
	"github.com/amishk599/jobbeacon/internal/notifier"
)

var (
	notifyTo       string
	notifyEndpoint string
	notifyP256dh   string
	notifyAuth     string
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a sample email through the configured email sender, a sample push when --endpoint is given, and a sample run report when Slack is configured.",
	RunE:  runNotifyTest,
}

func init() {
	notifyTestCmd.Flags().StringVar(&notifyTo, "to", "", "recipient address (default: notification.email.from)")
	notifyTestCmd.Flags().StringVar(&notifyEndpoint, "endpoint", "", "push endpoint for a sample push")
	notifyTestCmd.Flags().StringVar(&notifyP256dh, "p256dh", "test", "push client public key")
	notifyTestCmd.Flags().StringVar(&notifyAuth, "auth", "test", "push client auth secret")

	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	ctx := context.Background()

	a, err := openApp(ctx, false, logger)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	defer a.close()

	to := notifyTo
	if to == "" {
		to = a.cfg.Notification.Email.From
	}

	sample := []model.Posting{notifier.SamplePosting()}
	subject, body, err := notifier.RenderEmail("JobBeacon test", sample)
	if err != nil {
		return err
	}
	if err := a.email.SendEmail(ctx, to, subject, body, sample); err != nil {
		logger.Error("test email failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test email sent", "to", to)

	if notifyEndpoint != "" {
		reg := model.PushRegistration{
			Endpoint: notifyEndpoint,
			Keys:     model.PushKeys{P256dh: notifyP256dh, Auth: notifyAuth},
		}
		if err := a.push.SendPush(ctx, reg, notifier.BuildPushPayload(sample[0])); err != nil {
			logger.Error("test push failed", "error", err)
			os.Exit(1)
		}
		logger.Info("test push sent", "endpoint", notifyEndpoint)
	}

	if a.slack != nil {
		sum := model.RunSummary{Fetched: 42, Added: 3, Duplicates: 39, Notified: 2, StartedAt: time.Now(), Duration: 1500 * time.Millisecond}
		if err := a.slack.Report(ctx, sum); err != nil {
			logger.Error("test slack report failed", "error", err)
			os.Exit(1)
		}
		logger.Info("test slack report sent")
	}

	fmt.Println("test notifications sent successfully")
	return nil
}
