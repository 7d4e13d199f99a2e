package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/turumba/docview/internal/progress"
	"github.com/turumba/docview/internal/viewer"
)

var checkTimeout time.Duration

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load every section and report failures and unmapped links",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()

		s, _, err := viewer.NewFromConfig(ctx, cfg, "", logOutput())
		if err != nil {
			return fmt.Errorf("starting viewer: %w", err)
		}

		reporter := progress.NewReporter("Checking sections", os.Stderr)
		reporter.Start(s.ContentSections())
		problems, err := s.Check(ctx, func(done int, id string) {
			reporter.Update(done, id)
		})
		reporter.Finish()
		if err != nil {
			return fmt.Errorf("checking sections: %w", err)
		}

		failed := 0
		for _, p := range problems {
			if p.Message != "" {
				failed++
				fmt.Printf("FAIL  %-20s %s: %s\n", p.ID, p.Source, p.Message)
			}
			if p.Unmapped > 0 {
				fmt.Printf("WARN  %-20s %s: %d unmapped link(s)\n", p.ID, p.Source, p.Unmapped)
			}
		}
		fmt.Printf("%d sections checked, %d failed\n", s.ContentSections(), failed)
		if failed > 0 {
			return fmt.Errorf("%d section(s) failed to load", failed)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall time limit")
	rootCmd.AddCommand(checkCmd)
}
