package weather_tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/netatmo-mcp/internal/instrumentation"
	"github.com/teemow/netatmo-mcp/internal/logging"
	"github.com/teemow/netatmo-mcp/internal/netatmo"
	"github.com/teemow/netatmo-mcp/internal/server"
	"github.com/teemow/netatmo-mcp/internal/tools/common"
	"github.com/teemow/netatmo-mcp/internal/weather"
)

// Tool names.
const (
	ToolGetTemperatures   = "get_temperatures"
	ToolGetHistoricalData = "get_historical_data"
)

// Argument names.
const (
	argHoursBack = "hours_back"
	argScale     = "scale"
)

// HoursBackOutOfRangeMessage is returned when hours_back is outside 1..720.
const HoursBackOutOfRangeMessage = "hoursBack must be between 1 and 720 (30 days)."

type handlers struct {
	sc  *server.ServerContext
	now func() time.Time
	loc *time.Location
}

// RegisterTools registers the Netatmo weather tools with the MCP server
func RegisterTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	h := &handlers{sc: sc, now: time.Now, loc: time.Local}

	temperaturesTool := mcp.NewTool(ToolGetTemperatures,
		mcp.WithDescription("Gets current temperature and humidity readings from all Netatmo weather stations and modules in the home."),
	)

	s.AddTool(temperaturesTool, common.InstrumentedToolHandlerWithService(
		ToolGetTemperatures, instrumentation.ServiceNetatmo, instrumentation.OperationStations, sc,
		h.handleGetTemperatures))

	historyTool := mcp.NewTool(ToolGetHistoricalData,
		mcp.WithDescription("Gets historical temperature and humidity data for a specific Netatmo module/room over a configurable time period. Use module names like 'Living Room', 'Outdoor', etc."),
		mcp.WithString(common.ArgModuleName,
			mcp.Required(),
			mcp.Description("Name of the module/room to query (e.g. 'Living Room', 'Outdoor')"),
		),
		mcp.WithNumber(argHoursBack,
			mcp.Description("Number of hours to look back (default 24, max 720 = 30 days)"),
			mcp.DefaultNumber(weather.DefaultHoursBack),
		),
		mcp.WithString(argScale,
			mcp.Description("Time scale for data points: '30min', '1hour', '3hours', '1day'. Auto-selected if omitted."),
			mcp.Enum(weather.Scales...),
		),
	)

	s.AddTool(historyTool, common.InstrumentedToolHandlerWithService(
		ToolGetHistoricalData, instrumentation.ServiceNetatmo, instrumentation.OperationMeasure, sc,
		h.handleGetHistoricalData))

	return nil
}

func (h *handlers) handleGetTemperatures(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := logging.WithTool(h.sc.Logger(), ToolGetTemperatures)
	logger.Info("get_temperatures invoked")

	stations, err := h.sc.Netatmo().StationData(ctx)
	if err != nil {
		return failureResult(logger, err), nil
	}

	result := weather.FormatCurrentReadings(stations)
	logger.Debug("get_temperatures result", "result", result)
	return mcp.NewToolResultText(result), nil
}

func (h *handlers) handleGetHistoricalData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	moduleName := common.ModuleFromArgs(args)
	scale := common.StringArg(args, argScale, "")

	logger := logging.WithTool(h.sc.Logger(), ToolGetHistoricalData)

	if moduleName == "" {
		return mcp.NewToolResultError(common.ArgModuleName + " is required"), nil
	}

	hoursBack, err := common.IntArg(args, argHoursBack, weather.DefaultHoursBack)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	logger.Info("get_historical_data invoked",
		logging.Module(moduleName), "hours_back", hoursBack, "scale", scale)

	if !weather.ValidHoursBack(hoursBack) {
		return mcp.NewToolResultText(HoursBackOutOfRangeMessage), nil
	}
	if scale != "" && !weather.IsValidScale(scale) {
		return mcp.NewToolResultError(fmt.Sprintf("scale must be one of: %s", strings.Join(weather.Scales, ", "))), nil
	}

	client := h.sc.Netatmo()

	stations, err := client.StationData(ctx)
	if err != nil {
		return failureResult(logger, err), nil
	}
	if len(stations) == 0 {
		return mcp.NewToolResultText(weather.NoStationsMessage), nil
	}

	res, ok := weather.ResolveModule(stations, moduleName)
	if !ok {
		return mcp.NewToolResultText(
			weather.ModuleNotFoundMessage(moduleName, weather.AvailableModuleNames(stations))), nil
	}

	if scale == "" {
		scale = weather.SelectScale(hoursBack)
	}

	dateEnd := h.now().Unix()
	dateBegin := dateEnd - int64(hoursBack)*3600

	blocks, err := client.Measure(ctx, netatmo.MeasureQuery{
		DeviceID:  res.DeviceID,
		ModuleID:  res.ModuleID,
		Scale:     scale,
		Type:      netatmo.DefaultMeasureType,
		DateBegin: &dateBegin,
		DateEnd:   &dateEnd,
	})
	if err != nil {
		return failureResult(logger, err), nil
	}

	if !weather.HasMeasurements(blocks) {
		return mcp.NewToolResultText(weather.NoDataMessage(res.Name)), nil
	}

	return mcp.NewToolResultText(weather.FormatMeasurements(blocks, res.Name, hoursBack, scale, h.loc)), nil
}

// failureResult turns a Netatmo error into a tool result. Missing
// authentication and HTTP failures are reported as plain text so the
// caller can act on them.
func failureResult(logger *slog.Logger, err error) *mcp.CallToolResult {
	var nerr *netatmo.Error
	if !errors.As(err, &nerr) {
		logger.Error("netatmo request failed", logging.Err(err))
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch Netatmo data: %v", err))
	}

	switch nerr.Kind {
	case netatmo.KindNotAuthenticated:
		logger.Warn("netatmo not authenticated", logging.Err(err))
		return mcp.NewToolResultText(nerr.Message)
	case netatmo.KindHTTPFailure:
		logger.Error("failed to fetch netatmo data", logging.Err(err))
		return mcp.NewToolResultText(fmt.Sprintf("Failed to fetch Netatmo data: %v", err))
	default:
		logger.Error("netatmo request failed", logging.Err(err))
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch Netatmo data: %v", err))
	}
}
