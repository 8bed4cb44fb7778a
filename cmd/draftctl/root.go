package main

import (
	"fmt"
	"log/slog"
	"os"

	"draft-orchestrator/internal/orchestrator"
	"draft-orchestrator/internal/platform/logger"
	"draft-orchestrator/internal/segment"
	"draft-orchestrator/internal/variant"

	"github.com/spf13/cobra"
)

// commandContext carries the persistent flags and builds what subcommands share.
type commandContext struct {
	logLevel    string
	catalogPath string
	mode        string
	root        string
}

func (c *commandContext) logger() *slog.Logger {
	return logger.NewWriter(os.Stderr, c.logLevel, "text")
}

func (c *commandContext) library() (*variant.Library, error) {
	if c.catalogPath == "" {
		return variant.Builtin(), nil
	}
	return variant.LoadFile(c.catalogPath)
}

// service wires an in-process Service with default-sized registries.
func (c *commandContext) service(modeOverride string) (*orchestrator.Service, error) {
	raw := c.mode
	if modeOverride != "" {
		raw = modeOverride
	}
	mode, ok := orchestrator.ParseMode(raw)
	if !ok {
		return nil, fmt.Errorf("unknown apply mode %q", raw)
	}

	lib, err := c.library()
	if err != nil {
		return nil, err
	}
	log := c.logger()
	engine, err := segment.NewEngine(lib, log)
	if err != nil {
		return nil, err
	}
	drafts, err := orchestrator.NewRegistry(orchestrator.ScopeDraft, 0, nil)
	if err != nil {
		return nil, err
	}
	segments, err := orchestrator.NewRegistry(orchestrator.ScopeSegment, 0, nil)
	if err != nil {
		return nil, err
	}
	return orchestrator.NewService(engine, drafts, segments, log,
		orchestrator.WithMode(mode),
		orchestrator.WithResources(orchestrator.LocalResolver{Root: c.root}),
	), nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "draftctl",
		Short:         "Build timeline drafts from scripts and inspect variant catalogs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.StringVar(&ctx.catalogPath, "catalogs", "", "Variant catalog YAML file (default: built-in catalogs)")
	flags.StringVar(&ctx.mode, "mode", string(orchestrator.ModeImmediate), "Apply mode (immediate, deferred)")
	flags.StringVar(&ctx.root, "resource-root", "", "Directory relative media paths are resolved against")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newCatalogsCommand(ctx))
	rootCmd.AddCommand(newResolveCommand(ctx))

	return rootCmd
}
