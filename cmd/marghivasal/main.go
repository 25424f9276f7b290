package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/marghivasal/internal/cli"
	"codeberg.org/snonux/marghivasal/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command; the processor is built once config is loaded
	rootCmd := cli.CreateRootCommand(flags, func(cmd *cobra.Command) (cli.App, error) {
		return processor.NewProcessor(cmd.Context(), flags, cli.LoadConfig(flags), cmd.OutOrStdout(), cmd.InOrStdin())
	})

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile, flags.EnvFile)
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
