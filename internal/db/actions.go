package db

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/inbox-digest/internal/common"
)

func HistoryAction(c *cli.Context) error {
	database, err := openRunLog(c)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := c.Context
	limit := c.Int("limit")

	if c.Bool("stats") {
		stats, err := database.RunStats(ctx)
		if err != nil {
			return fmt.Errorf("failed to load run stats: %w", err)
		}
		if len(stats) == 0 {
			fmt.Println("No runs recorded")
			return nil
		}
		paths := make([]string, 0, len(stats))
		total := 0
		for p, n := range stats {
			paths = append(paths, p)
			total += n
		}
		sort.Strings(paths)

		fmt.Printf("%-14s %-8s %-8s\n", "Path", "Runs", "Share")
		fmt.Println(strings.Repeat("-", 32))
		for _, p := range paths {
			fmt.Printf("%-14s %-8s %5.1f%%\n", p, humanize.Comma(int64(stats[p])), 100*float64(stats[p])/float64(total))
		}
		fmt.Printf("\nTotal: %s runs\n", humanize.Comma(int64(total)))
		return nil
	}

	if c.Bool("cycles") {
		cycles, err := database.RecentCycles(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to list cycles: %w", err)
		}
		if len(cycles) == 0 {
			fmt.Println("No cycles recorded")
			return nil
		}

		fmt.Printf("%-36s %-16s %-10s %-10s %-10s %-12s %-8s\n",
			"Cycle", "Started", "Mode", "Extracted", "Retained", "Outcome", "Took")
		fmt.Println(strings.Repeat("-", 110))
		for _, cy := range cycles {
			fmt.Printf("%-36s %-16s %-10s %-10d %-10d %-12s %-8s\n",
				cy.ID,
				humanize.Time(cy.Started),
				cy.Mode,
				cy.Extracted,
				cy.Retained,
				cy.Outcome,
				cy.Finished.Sub(cy.Started).Round(time.Millisecond),
			)
		}
		fmt.Printf("\nTotal: %d cycles\n", len(cycles))
		return nil
	}

	runs, err := database.RecentRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	fmt.Printf("%-6s %-16s %-10s %-6s %-14s %-24s %-8s %-10s\n",
		"ID", "When", "Mode", "Count", "Path", "Provider", "Lang", "Took")
	fmt.Println(strings.Repeat("-", 110))
	for _, r := range runs {
		fmt.Printf("%-6d %-16s %-10s %-6d %-14s %-24s %-8s %-10s\n",
			r.ID,
			humanize.Time(r.At),
			r.Mode,
			r.Count,
			r.Path,
			r.Provider,
			orNone(r.Language),
			r.Duration.Round(time.Millisecond),
		)
		if r.Err != "" {
			fmt.Printf("       Error: %s\n", r.Err)
		}
	}

	fmt.Printf("\nTotal: %d runs\n", len(runs))
	fmt.Printf("\nTip: Use 'inbox-digest history --cycles' to see page cycles\n")
	return nil
}

func PruneAction(c *cli.Context) error {
	age, err := ParseAge(c.String("older-than"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), common.ExitUsage)
	}

	database, err := openRunLog(c)
	if err != nil {
		return err
	}
	defer database.Close()

	cutoff := time.Now().Add(-age)
	removed, err := database.Prune(c.Context, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	fmt.Printf("Removed %s rows recorded before %s\n", humanize.Comma(removed), cutoff.Format("2006-01-02 15:04:05"))
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
