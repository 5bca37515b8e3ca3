package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"harvester/internal/config"
	"harvester/internal/pipeline"
	"harvester/internal/runstate"
)

func newStatusCommand(configFlag *string) *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the persisted state of the last harvest run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.LoadFile(*configFlag)
			if err != nil {
				return exitWith(exitInvalidConfig, err.Error())
			}
			if outputFlag != "" {
				expanded, err := config.ExpandPath(outputFlag)
				if err != nil {
					return exitWith(exitInvalidConfig, err.Error())
				}
				cfg.Repo.OutputDir = expanded
			}

			store, err := runstate.Open(cfg.Repo.OutputDir)
			if err != nil {
				return err
			}
			defer store.Close()

			state, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			if state == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no harvest run recorded for this output directory")
				return nil
			}

			printState(cmd.OutOrStdout(), state)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory (overrides config)")
	return cmd
}

func printState(w io.Writer, state *runstate.RunState) {
	stage := state.LastCompletedStage
	if stage == "" {
		stage = "-"
	} else {
		stage = fmt.Sprintf("%s (%s)", stage, pipeline.Stage(stage).Label())
	}
	rows := [][]string{
		{"Run ID", state.RunID},
		{"Repository", state.RepoLocator},
		{"Last completed stage", stage},
		{"Beans written", strconv.Itoa(state.BeanCountWritten)},
		{"Updated", state.UpdatedAt.Format("2006-01-02 15:04:05 MST")},
	}
	fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows, nil))
}

func printResult(w io.Writer, result pipeline.Result) {
	status := "success"
	if !result.Success {
		status = fmt.Sprintf("failed in stage %s", result.ErrorStage)
	}
	rows := [][]string{
		{"Status", status},
		{"Beans", strconv.Itoa(result.BeanCount)},
		{"Gaps", strconv.Itoa(result.GapCount)},
		{"Coverage passed", strconv.FormatBool(result.CoveragePassed)},
	}
	fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows, nil))
}
