package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"harvester/internal/config"
	"harvester/internal/enrich"
	"harvester/internal/logging"
	"harvester/internal/pipeline"
)

func newRunCommand(configFlag *string) *cobra.Command {
	var (
		outputFlag     string
		refFlag        string
		failOnGapsFlag bool
	)

	cmd := &cobra.Command{
		Use:   "run [repo]",
		Short: "Run the harvest pipeline against a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, args, *configFlag, outputFlag, refFlag, failOnGapsFlag, false)
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory (overrides config)")
	cmd.Flags().StringVar(&refFlag, "ref", "", "Git ref to check out (overrides config)")
	cmd.Flags().BoolVar(&failOnGapsFlag, "fail-on-gaps", false, "Exit with code 2 when coverage gaps remain")

	return cmd
}

func newResumeCommand(configFlag *string) *cobra.Command {
	var (
		outputFlag     string
		refFlag        string
		failOnGapsFlag bool
	)

	cmd := &cobra.Command{
		Use:   "resume [repo]",
		Short: "Resume an interrupted harvest run from its last bean checkpoint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, args, *configFlag, outputFlag, refFlag, failOnGapsFlag, true)
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory (overrides config)")
	cmd.Flags().StringVar(&refFlag, "ref", "", "Git ref to check out (overrides config)")
	cmd.Flags().BoolVar(&failOnGapsFlag, "fail-on-gaps", false, "Exit with code 2 when coverage gaps remain")

	return cmd
}

func executeRun(cmd *cobra.Command, args []string, configPath, output, ref string, failOnGaps, resume bool) error {
	cfg, _, _, err := config.LoadFile(configPath)
	if err != nil {
		return exitWith(exitInvalidConfig, err.Error())
	}

	if len(args) == 1 {
		cfg.Repo.Locator = args[0]
	}
	if output != "" {
		expanded, err := config.ExpandPath(output)
		if err != nil {
			return exitWith(exitInvalidConfig, err.Error())
		}
		cfg.Repo.OutputDir = expanded
	}
	if ref != "" {
		cfg.Repo.Ref = ref
	}
	if failOnGaps {
		cfg.Gates.FailOnGaps = true
	}
	cfg.Resume = resume

	if err := cfg.Validate(); err != nil {
		return exitWith(exitInvalidConfig, err.Error())
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: os.Stderr,
	})
	if err != nil {
		return exitWith(exitInvalidConfig, err.Error())
	}

	opts := pipeline.Options{
		Logger: logger,
		Sink:   newConsoleSink(cmd.OutOrStdout()),
	}
	if cfg.EnrichmentEnabled() {
		client, err := enrich.New(cfg.Enrichment, logger)
		if err != nil {
			return exitWith(exitInvalidConfig, err.Error())
		}
		opts.Enricher = client
	}

	orchestrator := pipeline.New(cfg, opts)
	result := orchestrator.Run(cmd.Context())

	printResult(cmd.OutOrStdout(), result)

	if !result.Success {
		return exitWith(exitInternalError,
			fmt.Sprintf("harvest failed in stage %s: %s", result.ErrorStage, result.ErrorMessage))
	}
	if cfg.Gates.FailOnGaps && !result.CoveragePassed {
		return exitWith(exitCoverageGaps,
			fmt.Sprintf("coverage gate failed: %d gaps", result.GapCount))
	}
	return nil
}
