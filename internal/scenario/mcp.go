package scenario

import (
	"context"
	"encoding/json"
	"fmt"

	"comptest/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer exposes the scenario suite over MCP stdio transport, so agent
// tooling can list and run scenarios without shelling out to the CLI.
type MCPServer struct {
	server     *server.MCPServer
	configPath string
}

// NewMCPServer creates the MCP server and registers the suite tools.
func NewMCPServer(version, configPath string) *MCPServer {
	s := &MCPServer{
		server: server.NewMCPServer(
			"comptest",
			version,
			server.WithToolCapabilities(true),
		),
		configPath: configPath,
	}
	s.registerTools()
	return s
}

func (s *MCPServer) registerTools() {
	listTool := mcp.NewTool("list_scenarios",
		mcp.WithDescription("List all available component test scenarios"),
		mcp.WithString("tag",
			mcp.Description("Only list scenarios carrying this tag"),
		),
	)
	s.server.AddTool(listTool, s.handleListScenarios)

	runTool := mcp.NewTool("run_scenarios",
		mcp.WithDescription("Run component test scenarios and return the suite result"),
		mcp.WithString("scenario",
			mcp.Description("Run only this named scenario"),
		),
		mcp.WithString("tag",
			mcp.Description("Run only scenarios carrying this tag"),
		),
		mcp.WithBoolean("fail_fast",
			mcp.Description("Stop on the first failing scenario"),
		),
	)
	s.server.AddTool(runTool, s.handleRunScenarios)

	fixturesTool := mcp.NewTool("list_fixtures",
		mcp.WithDescription("List the registered component fixtures scenarios can mount"),
	)
	s.server.AddTool(fixturesTool, s.handleListFixtures)
}

// Serve runs the stdio transport until the client disconnects.
func (s *MCPServer) Serve() error {
	logging.Info("MCP", "Serving scenario suite over stdio")
	return server.ServeStdio(s.server)
}

func (s *MCPServer) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	config := Config{ConfigPath: s.configPath}
	if tag, ok := args["tag"].(string); ok {
		config.Tag = tag
	}

	scenarios, err := Collect(config)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to collect scenarios: %v", err)), nil
	}

	type summary struct {
		Name        string   `json:"name"`
		Description string   `json:"description,omitempty"`
		Fixture     string   `json:"fixture"`
		Tags        []string `json:"tags,omitempty"`
		Steps       int      `json:"steps"`
	}
	summaries := make([]summary, 0, len(scenarios))
	for _, s := range scenarios {
		summaries = append(summaries, summary{
			Name:        s.Name,
			Description: s.Description,
			Fixture:     s.Fixture,
			Tags:        s.Tags,
			Steps:       len(s.Steps),
		})
	}
	jsonData, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format scenarios: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (s *MCPServer) handleRunScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	config := Config{ConfigPath: s.configPath}
	if scenario, ok := args["scenario"].(string); ok {
		config.Scenario = scenario
	}
	if tag, ok := args["tag"].(string); ok {
		config.Tag = tag
	}
	if failFast, ok := args["fail_fast"].(bool); ok {
		config.FailFast = failFast
	}

	runner := NewRunner(NopReporter{})
	result, err := runner.Run(ctx, config)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Suite execution failed: %v", err)), nil
	}

	type scenarioSummary struct {
		Name     string `json:"name"`
		Result   Result `json:"result"`
		Error    string `json:"error,omitempty"`
		Duration string `json:"duration"`
	}
	type suiteSummary struct {
		Total     int               `json:"total"`
		Passed    int               `json:"passed"`
		Failed    int               `json:"failed"`
		Errors    int               `json:"errors"`
		Success   bool              `json:"success"`
		Scenarios []scenarioSummary `json:"scenarios"`
	}
	out := suiteSummary{
		Total:   result.TotalScenarios,
		Passed:  result.Passed,
		Failed:  result.Failed,
		Errors:  result.Errors,
		Success: result.Success(),
	}
	for _, sr := range result.ScenarioResults {
		out.Scenarios = append(out.Scenarios, scenarioSummary{
			Name:     sr.Scenario.Name,
			Result:   sr.Result,
			Error:    sr.Error,
			Duration: sr.Duration.String(),
		})
	}
	jsonData, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (s *MCPServer) handleListFixtures(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(FixtureNames(), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format fixtures: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
