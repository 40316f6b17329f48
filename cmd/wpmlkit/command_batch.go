package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sourceplane/wpmlkit/internal/loader"
	"github.com/sourceplane/wpmlkit/internal/model"
	"github.com/sourceplane/wpmlkit/internal/pipeline"
	"github.com/sourceplane/wpmlkit/internal/runner"
)

var (
	batchFile   string
	batchDryRun bool
)

var batchCmd = &cobra.Command{
	Use:   "batch [mission.kmz...]",
	Short: "Process several missions with one policy",
	Long: "Process every mission listed in a MissionBatch file (--jobs) or given as arguments. " +
		"Each mission is processed independently; one failure does not stop the others.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, args)
	},
}

func registerBatchCommand(root *cobra.Command) {
	root.AddCommand(batchCmd)

	addPolicyFlags(batchCmd)
	batchCmd.Flags().StringVarP(&batchFile, "jobs", "j", "", "MissionBatch file (YAML)")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "Run every stage but do not write outputs")
	batchCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing output files")
}

func runBatch(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	workDir := "."
	var jobs []model.Job
	if batchFile != "" {
		fmt.Println("□ Loading batch...")
		l, err := loader.New()
		if err != nil {
			return err
		}
		batch, err := l.LoadBatch(batchFile)
		if err != nil {
			return fmt.Errorf("failed to load batch: %w", err)
		}
		jobs = batch.Spec.Jobs
		workDir = filepath.Dir(batchFile)
		fmt.Printf("✓ Loaded %d jobs\n", len(jobs))
	}
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", arg, err)
		}
		jobs = append(jobs, model.Job{Input: abs})
	}
	if len(jobs) == 0 {
		return fmt.Errorf("%w: no missions given (use --jobs or pass files)", model.ErrInvalidConfiguration)
	}

	// Jobs without an explicit output use the configured name and directory.
	// Relative job paths resolve against the batch file's directory; a
	// relative output directory resolves against the working directory.
	if settings.OutputDir != "" {
		abs, err := filepath.Abs(settings.OutputDir)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", settings.OutputDir, err)
		}
		settings.OutputDir = abs
	}
	for i := range jobs {
		if jobs[i].Output != "" {
			continue
		}
		dir := filepath.Dir(jobs[i].Input)
		if settings.OutputDir != "" {
			dir = settings.OutputDir
		}
		jobs[i].Output = filepath.Join(dir, settings.OutputFilename)
	}

	if batchDryRun {
		fmt.Println("□ Dry-run mode enabled. Outputs are not written.")
	}
	r := runner.NewRunner(workDir, os.Stdout, batchDryRun, settings.Overwrite, pipeline.Options{
		Policy:    settings.Policy,
		EntryPath: settings.MissionEntry,
		Logger:    logger,
	})
	if _, err := r.Run(jobs); err != nil {
		return err
	}

	fmt.Println("✓ Batch complete")
	return nil
}
