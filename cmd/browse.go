package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/turumba/docview/internal/console"
	"github.com/turumba/docview/internal/viewer"
)

var browseCmd = &cobra.Command{
	Use:   "browse [fragment]",
	Short: "Browse the documentation interactively in the terminal",
	Long: `Opens a viewer session on the given address fragment (or the default
section) and reads navigation commands from stdin. Type "help" for the
command list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fragment := ""
		if len(args) == 1 {
			fragment = args[0]
		}
		s, doc, err := viewer.NewFromConfig(ctx, cfg, fragment, logOutput())
		if err != nil {
			return fmt.Errorf("starting viewer: %w", err)
		}

		return console.New(s, doc, os.Stdout).Run(ctx, os.Stdin)
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
