package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"perlentaucher/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg := *base
			if strings.TrimSpace(topic) != "" {
				cfg.Notifications.NtfyTopic = strings.TrimSpace(topic)
			}
			if cfg.Notifications.NtfyTopic == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications disabled; set notifications.ntfy_topic or pass --notify")
				return nil
			}
			service := notifications.NewService(&cfg)
			if err := service.Publish(cmd.Context(), notifications.EventTest, nil); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "notify", "", "ntfy topic URL (overrides notifications.ntfy_topic)")
	return cmd
}
