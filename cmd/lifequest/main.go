// Command lifequest runs the task log ingestion API and its maintenance
// tasks: schema migrations, reward catalog seeding and token hashing.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lifequest",
		Short:         "LifeQuest task log ingestion service",
		Long:          "lifequest records completed task logs and turns them into XP, points, streaks, period progress and rewards.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newRewardsCmd(),
		newTokenCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
