package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourceplane/wpmlkit/internal/kmz"
	"github.com/sourceplane/wpmlkit/internal/model"
	"github.com/sourceplane/wpmlkit/internal/pipeline"
	"github.com/sourceplane/wpmlkit/internal/render"
	"github.com/sourceplane/wpmlkit/internal/validate"
)

var (
	inspectWaypoint int
	inspectEntries  bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <mission.kmz>",
	Short: "Show the archive layout, waypoints and action groups of a mission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspectMission(args[0])
	},
}

func registerInspectCommand(root *cobra.Command) {
	root.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&missionEntry, "entry", model.DefaultMissionEntry, "Mission entry path inside the KMZ")
	inspectCmd.Flags().IntVarP(&inspectWaypoint, "waypoint", "w", -1, "Show one waypoint in detail (by wpml:index)")
	inspectCmd.Flags().BoolVar(&inspectEntries, "entries", false, "List archive entries")
}

func inspectMission(input string) error {
	archive, entry, doc, err := readMission(input, missionEntry)
	if err != nil {
		return err
	}

	if inspectEntries {
		entries, err := kmz.List(archive)
		if err != nil {
			return err
		}
		fmt.Printf("Archive %s (%d entries)\n", input, len(entries))
		for _, e := range entries {
			switch {
			case e.Dir:
				fmt.Printf("  %-40s <dir>\n", e.Path)
			case e.Path == entry:
				fmt.Printf("  %-40s %8d bytes  method=%d  (mission)\n", e.Path, e.Size, e.Method)
			default:
				fmt.Printf("  %-40s %8d bytes  method=%d\n", e.Path, e.Size, e.Method)
			}
		}
		fmt.Println()
	}

	viewer := render.NewMissionViewer(doc)
	if inspectWaypoint >= 0 {
		fmt.Println(viewer.ViewWaypoint(inspectWaypoint))
		return nil
	}

	fmt.Printf("Mission %s (WPML %s, prefix %q)\n", entry, doc.Namespace, doc.Prefix())
	fmt.Println(viewer.ViewTree())

	r := render.NewRenderer()
	fmt.Print(r.CompatibilityText(validate.Check(doc)))
	fmt.Print(r.SummaryText(pipeline.Summarize(doc, model.NewPhotoOnly())))
	return nil
}
