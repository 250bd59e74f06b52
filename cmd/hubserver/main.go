// Command hubserver serves the Learning Hub pages, the JSON API and the
// WebAssembly client.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"learning-hub/config"
	"learning-hub/internal/app"
	"learning-hub/internal/hub/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "hubserver: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts app.Options
	root := &cobra.Command{
		Use:           "hubserver",
		Short:         "Run the Learning Hub server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "YAML or JSON config file (optional)")
	root.Flags().StringVar(&opts.LogDir, "log-dir", "", "directory for the log file (overrides config)")
	root.Flags().StringVar(&opts.LogFile, "log-file", "", "log file name (overrides config)")

	root.AddCommand(newCheckCommand(&opts))
	return root
}

// newCheckCommand validates the configuration and seed catalogue without
// starting the server.
func newCheckCommand(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and seed catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return check(cmd.OutOrStdout(), opts.ConfigPath)
		},
	}
}

func check(w io.Writer, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	var cat store.Catalogue
	if cfg.Seed.Path != "" {
		cat, err = store.LoadCatalogue(cfg.Seed.Path)
	} else {
		cat, err = store.DefaultCatalogue()
	}
	if err != nil {
		return fmt.Errorf("load catalogue: %w", err)
	}

	fmt.Fprintf(w, "listen:    %s\n", cfg.Server.ListenAddr())
	fmt.Fprintf(w, "catalogue: %d subjects, %d materials, %d comments, %d posts\n",
		len(cat.Subjects), len(cat.Materials), len(cat.Comments), len(cat.Posts))
	if cfg.Server.DataPath == "" {
		fmt.Fprintln(w, "storage:   in memory")
	} else {
		fmt.Fprintf(w, "storage:   %s\n", cfg.Server.DataPath)
	}
	if cfg.Admin.Password == "" {
		fmt.Fprintln(w, "admin:     login disabled")
	} else {
		fmt.Fprintf(w, "admin:     %s\n", cfg.Admin.Username)
	}
	return nil
}
