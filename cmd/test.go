package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comptest/internal/scenario"
	"comptest/internal/tui"
	"comptest/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	testTimeout    time.Duration
	testVerbose    bool
	testScenario   string
	testTag        string
	testConfigPath string
	testFailFast   bool
	testTUI        bool
	testMCPServer  bool
)

// completeScenarioFlag provides shell completion for the scenario flag.
func completeScenarioFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	scenarios, err := scenario.Collect(scenario.Config{ConfigPath: testConfigPath})
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveDefault
	}
	var names []string
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	return names, cobra.ShellCompDirectiveDefault
}

// testCmd represents the test command
func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the component test scenario suite",
		Long: `The test command runs component test scenarios against the registered
fixtures. Each scenario gets a fresh in-memory browser window; the
ambient runtime module mocks (environment flags, navigation recorder,
page stores) are installed once for the whole run and treated as
read-only fixtures.

Execution modes:
1. Console (default): sequential run with console reporting
2. Terminal UI (--tui): live per-scenario progress, failure inspection,
   copy-to-clipboard
3. MCP server (--mcp-server): exposes list_scenarios/run_scenarios as
   MCP tools over stdio for AI assistant integration

Example usage:
  comptest test                             # Run the builtin suite
  comptest test --scenario=counter-two-way-binding
  comptest test --tag=binding               # Run scenarios with a tag
  comptest test --config-path=./scenarios   # Add YAML scenarios
  comptest test --fail-fast --verbose
  comptest test --tui
  comptest test --mcp-server`,
		RunE: runTest,
	}

	cmd.Flags().DurationVar(&testTimeout, "timeout", 2*time.Minute, "Overall suite timeout")
	cmd.Flags().BoolVarP(&testVerbose, "verbose", "v", false, "Step-level output")
	cmd.Flags().StringVar(&testScenario, "scenario", "", "Run a single named scenario")
	cmd.Flags().StringVar(&testTag, "tag", "", "Run only scenarios carrying this tag")
	cmd.Flags().StringVar(&testConfigPath, "config-path", "", "Directory with additional scenario YAML files")
	cmd.Flags().BoolVar(&testFailFast, "fail-fast", false, "Stop on first failure")
	cmd.Flags().BoolVar(&testTUI, "tui", false, "Render progress as a terminal UI")
	cmd.Flags().BoolVar(&testMCPServer, "mcp-server", false, "Serve the suite over MCP stdio transport")

	_ = cmd.RegisterFlagCompletionFunc("scenario", completeScenarioFlag)
	return cmd
}

func runTest(cmd *cobra.Command, args []string) error {
	config := scenario.Config{
		Scenario:   testScenario,
		Tag:        testTag,
		ConfigPath: testConfigPath,
		Timeout:    testTimeout,
		FailFast:   testFailFast,
		Verbose:    testVerbose,
	}

	if testMCPServer {
		logging.InitForCLI(logging.LevelWarn, os.Stderr)
		return scenario.NewMCPServer(rootCmd.Version, testConfigPath).Serve()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if testTUI {
		return runTestTUI(ctx, config)
	}

	level := logging.LevelWarn
	if testVerbose {
		level = logging.LevelInfo
	}
	logging.InitForCLI(level, os.Stderr)

	runner := scenario.NewRunner(scenario.NewConsoleReporter(os.Stdout, testVerbose))
	result, err := runner.Run(ctx, config)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("suite failed: %d failed, %d errors", result.Failed, result.Errors)
	}
	return nil
}

func runTestTUI(ctx context.Context, config scenario.Config) error {
	// The TUI owns the terminal; logs go to a channel it drains into its
	// log tail pane.
	logCh := logging.InitForTUI(logging.LevelInfo)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reporter := scenario.NewChannelReporter(128)
	runner := scenario.NewRunner(reporter)

	type runOutcome struct {
		result *scenario.SuiteResult
		err    error
	}
	done := make(chan runOutcome, 1)
	go func() {
		result, err := runner.Run(ctx, config)
		done <- runOutcome{result: result, err: err}
		reporter.Close()
		logging.CloseTUIChannel()
	}()

	program := tea.NewProgram(tui.New(reporter.Events(), logCh))
	_, runErr := program.Run()
	cancel()

	// If the user quit before the suite finished, the runner may still be
	// blocked on the reporter or log channel. Drain both so the goroutine
	// can exit.
	go func() {
		for range reporter.Events() {
		}
	}()
	go func() {
		for range logCh {
		}
	}()
	if runErr != nil {
		return fmt.Errorf("terminal UI: %w", runErr)
	}

	outcome := <-done
	if outcome.err != nil {
		return outcome.err
	}
	if outcome.result != nil && !outcome.result.Success() {
		return fmt.Errorf("suite failed: %d failed, %d errors",
			outcome.result.Failed, outcome.result.Errors)
	}
	return nil
}
