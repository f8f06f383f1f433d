package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"textloom/internal/session"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and clear stored exploration sessions",
	}
	sessionsCmd.AddCommand(newSessionsShowCommand(ctx))
	sessionsCmd.AddCommand(newSessionsClearCommand(ctx))
	return sessionsCmd
}

func newSessionsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show stored sessions and their cache sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.runtime(); err != nil {
				return err
			}
			defer ctx.close()

			rows := make([]table.Row, 0, len(session.Namespaces))
			for _, ns := range session.Namespaces {
				sess, err := ctx.store.GetSession(cmd.Context(), ns)
				if err != nil {
					return err
				}
				snapshot, err := ctx.store.Snapshot(cmd.Context(), ns)
				if err != nil {
					return err
				}
				if sess == nil {
					rows = append(rows, table.Row{string(ns), "-", len(snapshot), "-", "-"})
					continue
				}
				rows = append(rows, table.Row{
					string(ns),
					sess.UpdatedAt.Format("2006-01-02 15:04"),
					len(snapshot),
					sess.InputTokens,
					sess.OutputTokens,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				table.Row{"Feature", "Updated", "Cached", "Tokens In", "Tokens Out"}, rows))
			return nil
		},
	}
}

func newSessionsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <grid|bridge|filters|all>",
		Short: "Delete a stored session and its cached variants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.ToLower(strings.TrimSpace(args[0]))
			var namespaces []session.Namespace
			if target == "all" {
				namespaces = session.Namespaces
			} else {
				ns := session.Namespace(target)
				if !ns.Valid() {
					return fmt.Errorf("unknown feature %q (choose grid, bridge, filters, or all)", target)
				}
				namespaces = []session.Namespace{ns}
			}

			if err := ctx.runtime(); err != nil {
				return err
			}
			defer ctx.close()

			for _, ns := range namespaces {
				if err := ctx.store.ClearSession(cmd.Context(), ns); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s session\n", ns)
			}
			return nil
		},
	}
}
