// Package zcql runs ZCQL queries against the Catalyst data store.
//
// Query results come back as one Row per record, keyed first by table
// name and then by column:
//
//	[
//	    {"Orders": {"ROWID": "3001", "Total": "42.50"}},
//	    {"Orders": {"ROWID": "3002", "Total": "17.00"}}
//	]
//
// DecodeRows maps one table's columns onto a slice of structs.
package zcql

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/zcatalyst/catalyst-go-sdk/core"
	"github.com/zcatalyst/catalyst-go-sdk/internal/invoke"
	"github.com/zcatalyst/catalyst-go-sdk/validate"
)

// Component tags every error raised by this package.
const Component = core.ComponentZCQL

// Row is a single result record: table name to column values.
type Row map[string]map[string]any

// ZCQL executes queries.
type ZCQL struct {
	requester core.Requester
}

// New creates a query facade over the given requester.
func New(r core.Requester) *ZCQL {
	return &ZCQL{requester: r}
}

type queryRequest struct {
	Query string `json:"query"`
}

// ExecuteQuery runs query and returns the result rows.
//
// Example:
//
//	rows, err := zcql.New(requester).ExecuteQuery(ctx, "SELECT * FROM Orders LIMIT 10")
func (z *ZCQL) ExecuteQuery(ctx context.Context, query string) ([]Row, error) {
	check := func() error {
		return validate.NonEmptyString("query", query)
	}
	rows, err := invoke.Call[[]Row](ctx, z.requester, Component, check, &core.Request{
		Method: core.MethodPost,
		Path:   "/query",
		Body:   queryRequest{Query: query},
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

// DecodeRows decodes the columns of table from every row into dest, which
// must be a pointer to a slice of structs (or of maps). Struct fields are
// matched by their json tag and values are converted weakly, so "42" fills
// an int field. Rows without table are skipped.
func DecodeRows(rows []Row, table string, dest any) error {
	if err := validate.Wrap(Component, func() error {
		return validate.NonEmptyString("table", table)
	}); err != nil {
		return err
	}
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Slice {
		return core.NewError(core.CodeInvalidArgument, "destination must be a non-nil pointer to a slice", fmt.Sprintf("%T", dest)).
			WithComponent(Component)
	}

	columns := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if cols, ok := row[table]; ok {
			columns = append(columns, cols)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           dest,
		DecodeHook:       stringToTimeHook,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(columns); err != nil {
		return core.NewError(core.CodeInvalidResponse, "failed to decode rows of "+table, nil).
			Wrap(err).
			WithComponent(Component)
	}
	return nil
}

// TimeLayout is the format of CREATEDTIME and MODIFIEDTIME columns once
// the millisecond separator has been normalized; the backend writes
// "2026-08-16 12:17:38:490".
const TimeLayout = "2006-01-02 15:04:05.000"

func stringToTimeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	s := reflect.ValueOf(data).String()
	if s == "" {
		return time.Time{}, nil
	}
	if i := strings.LastIndexByte(s, ':'); i > len("2006-01-02 15:04") {
		s = s[:i] + "." + s[i+1:]
	}
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateTime, s)
}

// IsError reports whether err was raised by the zcql facade.
func IsError(err error) bool {
	return core.IsComponent(err, Component)
}
