package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sourceplane/wpmlkit/internal/kmz"
	"github.com/sourceplane/wpmlkit/internal/loader"
	"github.com/sourceplane/wpmlkit/internal/logging"
	"github.com/sourceplane/wpmlkit/internal/model"
	"github.com/sourceplane/wpmlkit/internal/normalize"
	"github.com/sourceplane/wpmlkit/internal/wpml"
)

var (
	configFile   string
	logLevel     string
	noColor      bool
	outputFormat string

	policyName   string
	hoverSeconds int
	outputName   string
	outputDir    string
	missionEntry string
	force        bool

	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "wpmlkit",
	Short: "DJI WPML mission editor: inject hover/photo actions at every waypoint",
	Long: "wpmlkit edits DJI WPML missions (KMZ) so every waypoint carries exactly one " +
		"hover-then-photo or photo-only action group, leaving everything else byte-for-byte intact.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(logLevel, os.Stderr, noColor)
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrInvalidConfiguration, err)
		}
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "ActionPolicy config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")

	registerProcessCommand(rootCmd)
	registerValidateCommand(rootCmd)
	registerInspectCommand(rootCmd)
	registerBatchCommand(rootCmd)
}

// addPolicyFlags registers the flags that override config file values
func addPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&policyName, "policy", "p", string(model.HoverThenPhoto), "Action policy (hover_then_photo/photo_only)")
	cmd.Flags().IntVar(&hoverSeconds, "hover", model.DefaultHoverSeconds, "Hover duration in seconds (1-60)")
	cmd.Flags().StringVar(&missionEntry, "entry", model.DefaultMissionEntry, "Mission entry path inside the KMZ")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputName, "output", "o", model.DefaultOutputFilename, "Output file name (.kmz)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Output directory (default: the input's directory)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing output file")
}

// loadSettings merges the config file (if any) with flags the user set
func loadSettings(cmd *cobra.Command) (*model.Settings, error) {
	var cfg *model.Config
	if configFile != "" {
		fmt.Println("□ Loading config...")
		l, err := loader.New()
		if err != nil {
			return nil, err
		}
		cfg, err = l.LoadConfig(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		fmt.Printf("✓ Loaded config %s\n", cfg.Metadata.Name)
	}

	var o normalize.Overrides
	flags := cmd.Flags()
	if flags.Changed("policy") || cfg == nil {
		o.Policy = &policyName
	}
	if flags.Changed("hover") || cfg == nil {
		o.HoverSeconds = &hoverSeconds
	}
	if flags.Changed("entry") {
		o.MissionEntry = &missionEntry
	}
	if flags.Lookup("output") != nil && flags.Changed("output") {
		o.OutputFilename = &outputName
	}
	if flags.Lookup("output-dir") != nil && flags.Changed("output-dir") {
		o.OutputDir = &outputDir
	}
	if flags.Lookup("force") != nil && flags.Changed("force") {
		o.Overwrite = &force
	}

	settings, err := normalize.NormalizeConfig(cfg, o)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Str("config", settings.Name).
		Str("policy", settings.Policy.String()).
		Str("entry", settings.MissionEntry).
		Msg("settings resolved")
	return settings, nil
}

// readMission loads an archive and parses its mission entry
func readMission(path, entry string) ([]byte, string, *wpml.Document, error) {
	archive, err := os.ReadFile(path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to read mission: %w", err)
	}
	resolved, err := kmz.Locate(archive, entry)
	if err != nil {
		return nil, "", nil, err
	}
	data, err := kmz.Extract(archive, resolved)
	if err != nil {
		return nil, "", nil, err
	}
	doc, err := wpml.Parse(data)
	if err != nil {
		return nil, "", nil, err
	}
	return archive, resolved, doc, nil
}
