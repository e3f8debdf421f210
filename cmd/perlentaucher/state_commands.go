package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"perlentaucher/internal/config"
	"perlentaucher/internal/services"
	"perlentaucher/internal/state"
)

type stateOptions struct {
	path string
}

func (o *stateOptions) open(cmd *cobra.Command, ctx *commandContext) (*state.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	path := cfg.Paths.StateFile
	if strings.TrimSpace(o.path) != "" {
		if path, err = config.ExpandPath(o.path); err != nil {
			return nil, fmt.Errorf("resolve state path: %w", err)
		}
	}
	logger, err := ctx.logger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	return state.Open(path, logger), nil
}

func newStateCommand(ctx *commandContext) *cobra.Command {
	opts := &stateOptions{}
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and edit the state file",
	}
	stateCmd.PersistentFlags().StringVar(&opts.path, "state-file", "", "Path of the state file (defaults to paths.state_file)")

	stateCmd.AddCommand(newStateListCommand(ctx, opts))
	stateCmd.AddCommand(newStateShowCommand(ctx, opts))
	stateCmd.AddCommand(newStateForgetCommand(ctx, opts))
	stateCmd.AddCommand(newStateUpgradeCommand(ctx, opts))
	return stateCmd
}

type stateEntryJSON struct {
	ID string `json:"id"`
	state.Record
}

func newStateListCommand(ctx *commandContext, opts *stateOptions) *cobra.Command {
	var status string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.open(cmd, ctx)
			if err != nil {
				return err
			}
			entries := store.List()
			if status != "" {
				filtered := entries[:0]
				for _, e := range entries {
					if strings.EqualFold(e.Status, status) {
						filtered = append(filtered, e)
					}
				}
				entries = filtered
			}
			if asJSON {
				out := make([]stateEntryJSON, 0, len(entries))
				for _, e := range entries {
					out = append(out, stateEntryJSON{ID: e.ID, Record: e.Record})
				}
				return writeJSON(cmd, out)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Keine Einträge.")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.ID,
					e.MovieTitle,
					e.Status,
					yesNo(e.IsSeries),
					formatTimestamp(e.Time()),
					e.Filename,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Eintrag", "Titel", "Status", "Serie", "Zeitpunkt", "Datei"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only show entries with this status")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}

func newStateShowCommand(ctx *commandContext, opts *stateOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Show one recorded entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.open(cmd, ctx)
			if err != nil {
				return err
			}
			rec, ok := store.Load(args[0])
			if !ok {
				return services.Wrap(services.ErrNotFound, "state", "show", fmt.Sprintf("no record for %q", args[0]), nil)
			}
			return writeJSON(cmd, stateEntryJSON{ID: args[0], Record: rec})
		},
	}
}

func newStateForgetCommand(ctx *commandContext, opts *stateOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <entry-id>...",
		Short: "Remove entries so the next run processes them again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.open(cmd, ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range args {
				removed, err := store.Forget(id)
				if err != nil {
					return err
				}
				if removed {
					fmt.Fprintf(out, "Entfernt: %s\n", id)
				} else {
					fmt.Fprintf(out, "Nicht vorhanden: %s\n", id)
				}
			}
			return nil
		},
	}
}

func newStateUpgradeCommand(ctx *commandContext, opts *stateOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Rewrite a legacy state file in the current format",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.open(cmd, ctx)
			if err != nil {
				return err
			}
			changed, err := store.Upgrade()
			if err != nil {
				return err
			}
			if changed {
				fmt.Fprintf(cmd.OutOrStdout(), "State-Datei aktualisiert: %s\n", store.Path())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "State-Datei ist bereits aktuell.")
			}
			return nil
		},
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
