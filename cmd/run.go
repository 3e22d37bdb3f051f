// Package cmd provides the command-line interface for the simulation
// engine.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mirage/bootstrap"
	"mirage/config"
	"mirage/core"
	"mirage/runner"
	"mirage/scenario"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
)

// Global flags
var (
	outputJSON bool
	noColor    bool
	quiet      bool
	verbose    bool
)

const defaultTimeout = 5 * time.Minute

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	var (
		scenarioFlag   string
		complexityFlag string
		patternFlag    string
		seed           int64
		detectionRate  float64
		logsPerStage   int
		targetCount    int
		eventCount     int
		space          string
		outputFile     string
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Build one synthetic attack campaign",
		Long: `Build one synthetic attack campaign end to end: stages, topology,
synthesized logs, detection alerts, correlation clusters, and an
investigation guide.

Scenario types: apt, ransomware, insider, supply_chain.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				errorColor.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
				return err
			}

			sugar := zap.NewNop().Sugar()
			if verbose {
				_, sugar, err = bootstrap.InitLogger()
				if err != nil {
					return err
				}
			}

			catalog := scenario.NewCatalog()
			if cfg.Simulation.CatalogFile != "" {
				if err := catalog.LoadFile(cfg.Simulation.CatalogFile); err != nil {
					errorColor.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
					return err
				}
			}

			if complexityFlag == "" {
				complexityFlag = cfg.Simulation.Complexity
			}
			complexity := core.Complexity(complexityFlag)
			if !complexity.IsValid() {
				return fmt.Errorf("invalid complexity %q (low, medium, high, expert)", complexityFlag)
			}
			pattern := core.TimePattern(patternFlag)
			if !pattern.IsValid() {
				return fmt.Errorf("invalid time pattern %q (uniform, business_hours, attack_simulation, weekend_heavy, random)", patternFlag)
			}
			if seed == 0 {
				seed = cfg.Simulation.Seed
			}
			if !cmd.Flags().Changed("detection-rate") {
				detectionRate = cfg.Simulation.DetectionRate
			}
			if logsPerStage <= 0 {
				logsPerStage = cfg.Simulation.LogsPerStage
			}
			if targetCount <= 0 {
				targetCount = cfg.Simulation.TargetCount
			}
			if !cmd.Flags().Changed("events") {
				eventCount = cfg.Simulation.EventCount
			}

			eng := runner.New(catalog, bootstrap.BuildFiller(cfg), nil, sugar)

			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				select {
				case <-sigCh:
					cancel()
				case <-ctx.Done():
				}
			}()

			var s *spinner.Spinner
			if !quiet && !outputJSON {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				s.Suffix = fmt.Sprintf(" Building %s campaign...", scenarioFlag)
				s.Start()
			}

			result, err := eng.Run(ctx, runner.Request{
				Scenario:      core.ScenarioType(scenarioFlag),
				Complexity:    complexity,
				Pattern:       pattern,
				Seed:          seed,
				DetectionRate: detectionRate,
				LogsPerStage:  logsPerStage,
				TargetCount:   targetCount,
				EventCount:    eventCount,
				Space:         space,
			})

			if s != nil {
				s.Stop()
			}
			if err != nil {
				errorColor.Fprintf(os.Stderr, "Campaign build failed: %v\n", err)
				return err
			}

			if outputFile != "" {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal result: %w", err)
				}
				if err := os.WriteFile(outputFile, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outputFile, err)
				}
				if !quiet {
					successColor.Printf("Result written to %s\n", outputFile)
				}
				return nil
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			renderResult(result)
			return nil
		},
	}

	runCmd.Flags().StringVarP(&scenarioFlag, "scenario", "s", "apt", "Scenario type (apt, ransomware, insider, supply_chain)")
	runCmd.Flags().StringVarP(&complexityFlag, "complexity", "c", "", "Complexity (low, medium, high, expert)")
	runCmd.Flags().StringVarP(&patternFlag, "pattern", "p", string(core.PatternAttackSimulation), "Temporal pattern")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for reproducible builds (0 = clock)")
	runCmd.Flags().Float64Var(&detectionRate, "detection-rate", 0.4, "Detection probability per technique [0,1]")
	runCmd.Flags().IntVar(&logsPerStage, "logs-per-stage", 0, "Synthesized events per technique")
	runCmd.Flags().IntVar(&targetCount, "targets", 0, "Number of targeted assets")
	runCmd.Flags().IntVar(&eventCount, "events", 0, "Cap on events per stage (0 = uncapped)")
	runCmd.Flags().StringVar(&space, "space", "default", "Namespace tag for persisted batches")
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write full result JSON to a file")
	runCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	runCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	runCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress non-essential output")
	runCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable engine logging")

	return runCmd
}
