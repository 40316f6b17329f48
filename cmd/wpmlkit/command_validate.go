package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourceplane/wpmlkit/internal/pipeline"
	"github.com/sourceplane/wpmlkit/internal/render"
	"github.com/sourceplane/wpmlkit/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <mission.kmz>",
	Short: "Check that every waypoint carries the policy's action group exactly once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateMission(cmd, args[0])
	},
}

func registerValidateCommand(root *cobra.Command) {
	root.AddCommand(validateCmd)

	addPolicyFlags(validateCmd)
	validateCmd.Flags().StringVar(&outputFormat, "format", "text", "Output format (text/json/yaml)")
}

func validateMission(cmd *cobra.Command, input string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	if outputFormat == "text" {
		fmt.Printf("□ Validating %s against %s...\n", input, settings.Policy)
	}
	_, entry, doc, err := readMission(input, settings.MissionEntry)
	if err != nil {
		return err
	}

	report := validate.Validate(doc, settings.Policy)
	compat := validate.Check(doc)
	summary := pipeline.Summarize(doc, settings.Policy)

	r := render.NewRenderer()
	rep := r.NewMissionReport(settings.Name, input)
	rep.Entry = entry
	rep.Validation = &report
	rep.Compatibility = &compat
	rep.Summary = &summary

	out, err := r.Render(rep, outputFormat)
	if err != nil {
		return err
	}
	fmt.Print(string(out))

	if failed := len(report.Failures()); failed > 0 {
		return fmt.Errorf("%d of %d waypoints do not satisfy %s", failed, len(report.Results), settings.Policy)
	}
	if outputFormat == "text" {
		fmt.Println("✓ All waypoints satisfy the policy")
	}
	return nil
}
