package zcql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcatalyst/catalyst-go-sdk/core"
	"github.com/zcatalyst/catalyst-go-sdk/internal/testutil"
)

type order struct {
	RowID   string    `json:"ROWID"`
	Total   float64   `json:"Total"`
	Items   int       `json:"Items"`
	Created time.Time `json:"CREATEDTIME"`
}

func queryPayload() []map[string]any {
	return []map[string]any{
		{"Orders": map[string]any{"ROWID": "3001", "Total": "42.50", "Items": 3, "CREATEDTIME": "2026-08-16 12:17:38:490"}},
		{"Orders": map[string]any{"ROWID": "3002", "Total": 17, "Items": "1", "CREATEDTIME": "2026-08-17 09:00:00"}},
		{"Customers": map[string]any{"ROWID": "9"}},
	}
}

func TestExecuteQuery(t *testing.T) {
	stub := testutil.NewStubRequester().Reply("POST /query", queryPayload())

	rows, err := New(stub).ExecuteQuery(context.Background(), "SELECT * FROM Orders")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "3001", rows[0]["Orders"]["ROWID"])

	req := stub.LastRequest()
	assert.Equal(t, core.MethodPost, req.Method)
	assert.Equal(t, queryRequest{Query: "SELECT * FROM Orders"}, req.Body)
}

func TestExecuteQuery_EmptyResult(t *testing.T) {
	stub := testutil.NewStubRequester().Reply("POST /query", nil)

	rows, err := New(stub).ExecuteQuery(context.Background(), "SELECT * FROM Orders WHERE ROWID = 0")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestExecuteQuery_Validation(t *testing.T) {
	stub := testutil.NewStubRequester()

	_, err := New(stub).ExecuteQuery(context.Background(), "")
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.True(t, IsError(err))
	assert.Zero(t, stub.RequestCount())
}

func TestExecuteQuery_InvalidPayload(t *testing.T) {
	stub := testutil.NewStubRequester().Reply("POST /query", "not rows")

	_, err := New(stub).ExecuteQuery(context.Background(), "SELECT * FROM Orders")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidResponse)
	assert.True(t, IsError(err))
}

func TestDecodeRows(t *testing.T) {
	stub := testutil.NewStubRequester().Reply("POST /query", queryPayload())
	rows, err := New(stub).ExecuteQuery(context.Background(), "SELECT * FROM Orders")
	require.NoError(t, err)

	var orders []order
	require.NoError(t, DecodeRows(rows, "Orders", &orders))
	require.Len(t, orders, 2)

	assert.Equal(t, "3001", orders[0].RowID)
	assert.InDelta(t, 42.5, orders[0].Total, 0.001)
	assert.Equal(t, 3, orders[0].Items)
	assert.Equal(t, time.Date(2026, 8, 16, 12, 17, 38, 490*int(time.Millisecond), time.UTC), orders[0].Created)

	assert.InDelta(t, 17.0, orders[1].Total, 0.001)
	assert.Equal(t, 1, orders[1].Items)
	assert.Equal(t, time.Date(2026, 8, 17, 9, 0, 0, 0, time.UTC), orders[1].Created)
}

func TestDecodeRows_Errors(t *testing.T) {
	rows := []Row{{"Orders": {"ROWID": "1"}}}

	t.Run("empty table", func(t *testing.T) {
		var out []order
		err := DecodeRows(rows, "", &out)
		assert.True(t, core.IsValidation(err))
	})

	t.Run("non-pointer destination", func(t *testing.T) {
		var out []order
		err := DecodeRows(rows, "Orders", out)
		assert.True(t, core.IsValidation(err))
		assert.True(t, IsError(err))
	})

	t.Run("missing table yields no rows", func(t *testing.T) {
		var out []order
		require.NoError(t, DecodeRows(rows, "Customers", &out))
		assert.Empty(t, out)
	})
}
