package random_tools

import (
	"context"
	"math"
	"strconv"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/netatmo-mcp/internal/config"
	"github.com/teemow/netatmo-mcp/internal/netatmo"
	"github.com/teemow/netatmo-mcp/internal/server"
	"github.com/teemow/netatmo-mcp/internal/tools/common"
)

func call(t *testing.T, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	sc := server.NewServerContext(context.Background(), config.DefaultSettings(), nil)
	t.Cleanup(sc.Shutdown)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := handleGenerateRandomNumber(context.Background(), req, sc)
	require.NoError(t, err)
	return result
}

func TestGenerateRandomNumber_DefaultRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		result := call(t, map[string]interface{}{})
		require.False(t, result.IsError)

		n, err := strconv.Atoi(common.ResultText(result))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, DefaultMin)
		assert.LessOrEqual(t, n, DefaultMax)
	}
}

func TestGenerateRandomNumber_CustomRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		result := call(t, map[string]interface{}{"min": 10.0, "max": 20.0})

		n, err := strconv.Atoi(common.ResultText(result))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 10)
		assert.LessOrEqual(t, n, 20)
	}
}

func TestGenerateRandomNumber_MinEqualsMax(t *testing.T) {
	result := call(t, map[string]interface{}{"min": 42.0, "max": 42.0})
	assert.Equal(t, "42", common.ResultText(result))
}

func TestGenerateRandomNumber_MinGreaterThanMax(t *testing.T) {
	result := call(t, map[string]interface{}{"min": 50.0, "max": 10.0})

	assert.True(t, result.IsError)
	assert.Equal(t, "min (50) must be less than or equal to max (10).", common.ResultText(result))
}

func TestGenerateRandomNumber_InvalidArgument(t *testing.T) {
	result := call(t, map[string]interface{}{"min": "low"})

	assert.True(t, result.IsError)
	assert.Equal(t, "min must be a whole number", common.ResultText(result))
}

func TestRandomInRange(t *testing.T) {
	_, err := RandomInRange(2, 1)
	require.Error(t, err)
	assert.True(t, netatmo.IsKind(err, netatmo.KindValidationFailure))

	n, err := RandomInRange(math.MinInt32, math.MaxInt32)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, math.MinInt32)
	assert.LessOrEqual(t, n, math.MaxInt32)
}
