package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/agentpulse/internal/probe"
	"github.com/okian/agentpulse/pkg/logger"
)

const (
	defaultWorkers = 4
	defaultTimeout = 60 * time.Second
	defaultLimit   = 20
)

var (
	baseURL string
	timeout time.Duration
	verbose bool

	offering      string
	period        string
	clientAddress string
	workers       int
	outputFile    string

	limit int
)

var rootCmd = &cobra.Command{
	Use:   "probe",
	Short: "Drive a running AgentPulse service",
	Long: `probe executes offerings against a running AgentPulse service and reads
back the stored results.

Examples:
  # Score three agents concurrently
  probe run --offering agent_score 3212 4029 2651

  # One portfolio report across several agents
  probe run --offering multi_agent_report 3212 4029 2651

  # Latest ten stored results
  probe results --limit 10
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.Init(); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if verbose {
			return logger.SetLevelString("debug")
		}
		return logger.SetLevelString("warn")
	},
}

var runCmd = &cobra.Command{
	Use:   "run [agent-ref...]",
	Short: "Execute an offering for one or more agents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &probe.Config{
			BaseURL:       baseURL,
			Offering:      offering,
			Refs:          splitRefs(args),
			Period:        period,
			ClientAddress: clientAddress,
			Workers:       workers,
			Timeout:       timeout,
			OutputFile:    outputFile,
			Verbose:       verbose,
		}
		_, stats, err := probe.Run(cmd.Context(), cfg, cmd.OutOrStdout())
		if stats.Jobs > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d jobs succeeded in %s\n",
				stats.Succeeded, stats.Jobs, stats.Duration.Round(time.Millisecond))
		}
		return err
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List stored results, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := probe.ListResults(cmd.Context(), &probe.Config{BaseURL: baseURL, Timeout: timeout}, limit, cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", getEnvOrDefault("AGENTPULSE_URL", "http://localhost:8080"), "AgentPulse service URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", defaultTimeout, "HTTP request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print deliverables and debug logs")

	runCmd.Flags().StringVarP(&offering, "offering", "o", "agent_score", "Offering to execute")
	runCmd.Flags().StringVar(&period, "period", "", "Reputation period (7d, 30d, 90d)")
	runCmd.Flags().StringVar(&clientAddress, "client", "", "Client wallet used when no agent resolves")
	runCmd.Flags().IntVarP(&workers, "workers", "w", defaultWorkers, "Concurrent jobs")
	runCmd.Flags().StringVar(&outputFile, "output", "", "Write outcomes to this JSON file")

	resultsCmd.Flags().IntVarP(&limit, "limit", "n", defaultLimit, "Number of results to list")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resultsCmd)
}

// splitRefs accepts "3212,4029" as well as separate arguments.
func splitRefs(args []string) []string {
	var refs []string
	for _, a := range args {
		for _, r := range strings.Split(a, ",") {
			if r = strings.TrimSpace(r); r != "" {
				refs = append(refs, r)
			}
		}
	}
	return refs
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
