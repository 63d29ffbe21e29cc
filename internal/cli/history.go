package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/regionsync/pkg/txn"
)

// historyCommand creates the history command.
func (c *CLI) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [layout]",
		Short: "List the journaled changes of a layout",
		Long: `List the transactions recorded for a layout by commands run with --journal,
newest first.`,
		Example: `  regionsync history I1
  regionsync history root --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), args[0], limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries (0 for all)")

	return cmd
}

func runHistory(ctx context.Context, layoutID string, limit int) error {
	dir, err := journalDir()
	if err != nil {
		return fmt.Errorf("get journal dir: %w", err)
	}
	j, err := txn.NewFileJournal(dir)
	if err != nil {
		return err
	}
	deltas, err := j.List(ctx, layoutID)
	if err != nil {
		return err
	}
	if len(deltas) == 0 {
		printInfo("No journaled changes for %s", layoutID)
		printDetail("Directory: %s", j.Path())
		return nil
	}

	fmt.Println(StyleTitle.Render("History of " + layoutID))
	fmt.Println(historyTable(deltas, limit, time.Now()))
	return nil
}

// historyTable renders deltas newest first, at most limit rows when limit is
// positive.
func historyTable(deltas []txn.Delta, limit int, now time.Time) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorMuted).Bold(true)

	var rows [][]string
	for i := len(deltas) - 1; i >= 0; i-- {
		if limit > 0 && len(rows) == limit {
			break
		}
		d := deltas[i]
		rows = append(rows, []string{
			formatRelativeTime(d.Finished, now),
			d.Label,
			fmt.Sprintf("+%d -%d ~%d", len(d.AddedNodes), len(d.RemovedNodes), len(d.MovedNodes)),
			fmt.Sprintf("+%d -%d ~%d", len(d.AddedLinks), len(d.RemovedLinks), len(d.ReroutedLinks)),
			fmt.Sprint(len(d.Recolored)),
			d.ID,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaint)).
		Headers("When", "Operation", "Nodes", "Links", "Recolored", "ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0 || col == 5:
				return lipgloss.NewStyle().Foreground(colorFaint)
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
