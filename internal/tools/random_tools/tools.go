package random_tools

import (
	"context"
	"math/rand/v2"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/netatmo-mcp/internal/instrumentation"
	"github.com/teemow/netatmo-mcp/internal/logging"
	"github.com/teemow/netatmo-mcp/internal/netatmo"
	"github.com/teemow/netatmo-mcp/internal/server"
	"github.com/teemow/netatmo-mcp/internal/tools/common"
)

// ToolGenerateRandomNumber is the tool name.
const ToolGenerateRandomNumber = "generate_random_number"

// Default bounds, both inclusive.
const (
	DefaultMin = 1
	DefaultMax = 100
)

// RegisterTools registers the random number tool with the MCP server
func RegisterTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	tool := mcp.NewTool(ToolGenerateRandomNumber,
		mcp.WithDescription("Generates a random integer between min and max (inclusive)."),
		mcp.WithNumber("min",
			mcp.Description("The minimum value (inclusive). Defaults to 1."),
			mcp.DefaultNumber(DefaultMin),
		),
		mcp.WithNumber("max",
			mcp.Description("The maximum value (inclusive). Defaults to 100."),
			mcp.DefaultNumber(DefaultMax),
		),
	)

	s.AddTool(tool, common.InstrumentedToolHandlerWithService(
		ToolGenerateRandomNumber, instrumentation.ServiceLocal, instrumentation.OperationGenerate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGenerateRandomNumber(ctx, request, sc)
		}))

	return nil
}

func handleGenerateRandomNumber(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	logger := logging.WithTool(sc.Logger(), ToolGenerateRandomNumber)

	minValue, err := common.IntArg(args, "min", DefaultMin)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	maxValue, err := common.IntArg(args, "max", DefaultMax)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	logger.Info("generate_random_number invoked", "min", minValue, "max", maxValue)

	n, err := RandomInRange(minValue, maxValue)
	if err != nil {
		logger.Warn("validation failed", logging.Err(err))
		return mcp.NewToolResultError(err.Error()), nil
	}

	logger.Debug("generate_random_number result", "result", n)
	return mcp.NewToolResultText(strconv.Itoa(n)), nil
}

// RandomInRange returns a uniformly distributed integer in [minValue, maxValue].
func RandomInRange(minValue, maxValue int) (int, error) {
	if minValue > maxValue {
		return 0, netatmo.NewValidationError("min (%d) must be less than or equal to max (%d).", minValue, maxValue)
	}
	span := int64(maxValue) - int64(minValue) + 1
	return minValue + int(rand.Int64N(span)), nil
}
