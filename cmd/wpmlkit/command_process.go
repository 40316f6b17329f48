package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sourceplane/wpmlkit/internal/normalize"
	"github.com/sourceplane/wpmlkit/internal/pipeline"
	"github.com/sourceplane/wpmlkit/internal/render"
)

var (
	processDryRun bool
	reportFile    string
)

var processCmd = &cobra.Command{
	Use:   "process <mission.kmz>",
	Short: "Inject the action policy at every waypoint",
	Long: "Extract the WPML mission, give every waypoint exactly one action group implementing " +
		"the policy, repack the KMZ and validate the result before writing it.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return processMission(cmd, args[0])
	},
}

func registerProcessCommand(root *cobra.Command) {
	root.AddCommand(processCmd)

	addPolicyFlags(processCmd)
	addOutputFlags(processCmd)
	processCmd.Flags().BoolVar(&processDryRun, "dry-run", false, "Run every stage but do not write the output")
	processCmd.Flags().StringVar(&reportFile, "report", "", "Also write a report file (json or yaml)")
}

func processMission(cmd *cobra.Command, input string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	output := normalize.OutputPath(settings, input)
	opts := pipeline.Options{
		Policy:    settings.Policy,
		EntryPath: settings.MissionEntry,
		Logger:    logger,
	}

	fmt.Printf("□ Processing %s with %s...\n", input, settings.Policy)
	var res *pipeline.Result
	if processDryRun {
		archive, err := os.ReadFile(input)
		if err != nil {
			return fmt.Errorf("failed to read mission: %w", err)
		}
		res, err = pipeline.Run(archive, opts)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Dry run: %d of %d waypoints would change, nothing written\n", res.Changed, len(res.Report.Results))
	} else {
		res, err = pipeline.ProcessFile(input, output, settings.Overwrite, opts)
		if err != nil {
			return err
		}
		fmt.Printf("✓ %d of %d waypoints updated\n", res.Changed, len(res.Report.Results))
		fmt.Printf("✓ Wrote %s\n", output)
	}

	r := render.NewRenderer()
	rep := r.NewMissionReport(settings.Name, input)
	rep.Entry = res.Entry
	rep.Changed = res.Changed
	rep.Validation = &res.Report
	rep.Summary = &res.Summary
	if !processDryRun {
		rep.Output = output
	}

	fmt.Println()
	fmt.Print(r.SummaryText(res.Summary))

	if reportFile != "" {
		if err := r.WriteReport(rep, reportFile); err != nil {
			return err
		}
		fmt.Printf("✓ Report written to %s\n", reportFile)
	}
	return nil
}
