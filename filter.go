package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// sortable fields exposed on /filter, mapped to their column
var incomeStatementSortColumns = map[string]string{
	"date":      "date",
	"revenue":   "revenue",
	"netIncome": "net_income",
}

// IncomeStatementFilter is a parsed /filter request. Nil bounds are unbounded.
type IncomeStatementFilter struct {
	YearStart    *int
	YearEnd      *int
	RevenueMin   *float64
	RevenueMax   *float64
	NetIncomeMin *float64
	NetIncomeMax *float64
	SortBy       string
	Order        string
}

func parseIncomeStatementFilter(values url.Values) (IncomeStatementFilter, error) {
	var (
		f   IncomeStatementFilter
		err error
	)

	if f.YearStart, err = intParam(values, "dateRange.start"); err != nil {
		return f, err
	}
	if f.YearEnd, err = intParam(values, "dateRange.end"); err != nil {
		return f, err
	}
	if f.RevenueMin, err = floatParam(values, "revenue.min"); err != nil {
		return f, err
	}
	if f.RevenueMax, err = floatParam(values, "revenue.max"); err != nil {
		return f, err
	}
	if f.NetIncomeMin, err = floatParam(values, "netIncome.min"); err != nil {
		return f, err
	}
	if f.NetIncomeMax, err = floatParam(values, "netIncome.max"); err != nil {
		return f, err
	}
	f.SortBy = values.Get("sortBy")
	f.Order = values.Get("order")

	return f, nil
}

func intParam(values url.Values, name string) (*int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &FilterError{Param: name, Value: raw, Err: err}
	}
	return &n, nil
}

func floatParam(values url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &FilterError{Param: name, Value: raw, Err: err}
	}
	return &n, nil
}

// query builds the SELECT for this filter with ? bindvars. Years compare on
// the ISO date text, which keeps it portable between SQLite and Postgres.
func (f IncomeStatementFilter) query() (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)

	if f.YearStart != nil {
		where = append(where, "date >= ?")
		args = append(args, fmt.Sprintf("%04d-01-01", *f.YearStart))
	}
	if f.YearEnd != nil {
		where = append(where, "date <= ?")
		args = append(args, fmt.Sprintf("%04d-12-31", *f.YearEnd))
	}
	addRange := func(column string, lo, hi *float64) {
		if lo != nil {
			where = append(where, "CAST("+column+" AS DOUBLE PRECISION) >= ?")
			args = append(args, *lo)
		}
		if hi != nil {
			where = append(where, "CAST("+column+" AS DOUBLE PRECISION) <= ?")
			args = append(args, *hi)
		}
	}
	addRange("revenue", f.RevenueMin, f.RevenueMax)
	addRange("net_income", f.NetIncomeMin, f.NetIncomeMax)

	query := `SELECT ` + incomeStatementColumns + ` FROM income_statement`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}

	if column, ok := incomeStatementSortColumns[f.SortBy]; ok {
		direction := "DESC"
		if f.Order == "asc" {
			direction = "ASC"
		}
		if column == "date" {
			query += ` ORDER BY date ` + direction
		} else {
			query += ` ORDER BY ` + column + ` ` + direction + `, date`
		}
	} else {
		query += ` ORDER BY date`
	}
	return query, args
}

// filterIncomeStatements runs the filter against the stored dataset. It is
// not gated on freshness.
func filterIncomeStatements(ctx context.Context, db *sqlx.DB, f IncomeStatementFilter) ([]FinancialRecord, error) {
	query, args := f.query()
	return selectIncomeStatements(ctx, db, db.Rebind(query), args...)
}
