package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const sqlDateParseType = "2006-01-02"

// FinancialRecord is one annual income statement, keyed by its fiscal date.
type FinancialRecord struct {
	Date            string    `db:"date" json:"date"`
	Revenue         int64     `db:"revenue" json:"revenue"`
	GrossProfit     int64     `db:"gross_profit" json:"grossProfit"`
	OperatingIncome int64     `db:"operating_income" json:"operatingIncome"`
	NetIncome       int64     `db:"net_income" json:"netIncome"`
	EPS             float64   `db:"eps" json:"eps"`
	LastUpdated     time.Time `db:"-" json:"-"`
}

// incomeStatementRow is the on-disk shape; last_updated is unix millis so it
// round-trips the same way through SQLite and Postgres.
type incomeStatementRow struct {
	FinancialRecord
	LastUpdatedMillis int64 `db:"last_updated"`
}

func (r incomeStatementRow) record() FinancialRecord {
	rec := r.FinancialRecord
	rec.LastUpdated = time.UnixMilli(r.LastUpdatedMillis).UTC()
	return rec
}

const incomeStatementColumns = `date, revenue, gross_profit, operating_income, net_income, eps, last_updated`

// getLatestIncomeStatementUpdate returns MAX(last_updated) over the whole
// table, invalid when the table is empty.
func getLatestIncomeStatementUpdate(ctx context.Context, db *sqlx.DB) (sql.NullTime, error) {
	var latest sql.NullInt64
	err := db.QueryRowxContext(ctx, `SELECT MAX(last_updated) FROM income_statement`).Scan(&latest)
	if err != nil {
		return sql.NullTime{}, fmt.Errorf("select latest income_statement update: %w", err)
	}
	if !latest.Valid {
		return sql.NullTime{}, nil
	}
	return sql.NullTime{Valid: true, Time: time.UnixMilli(latest.Int64).UTC()}, nil
}

// getAllIncomeStatements returns every stored record in storage order
// (ascending date).
func getAllIncomeStatements(ctx context.Context, db *sqlx.DB) ([]FinancialRecord, error) {
	return selectIncomeStatements(ctx, db, `SELECT `+incomeStatementColumns+` FROM income_statement ORDER BY date`)
}

func getIncomeStatementByDate(ctx context.Context, db *sqlx.DB, date string) (FinancialRecord, error) {
	var row incomeStatementRow
	query := db.Rebind(`SELECT ` + incomeStatementColumns + ` FROM income_statement WHERE date=?`)
	if err := db.QueryRowxContext(ctx, query, date).StructScan(&row); err != nil {
		return FinancialRecord{}, err
	}
	return row.record(), nil
}

func selectIncomeStatements(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) ([]FinancialRecord, error) {
	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select income_statement: %w", err)
	}
	defer rows.Close()

	records := make([]FinancialRecord, 0, 16)
	for rows.Next() {
		var row incomeStatementRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan income_statement: %w", err)
		}
		records = append(records, row.record())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read income_statement rows: %w", err)
	}
	return records, nil
}

// upsertIncomeStatements writes every record in one transaction, replacing
// all columns of any existing row with the same date, and stamps each with
// updatedAt.
func upsertIncomeStatements(ctx context.Context, db *sqlx.DB, records []FinancialRecord, updatedAt time.Time) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin income_statement upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsert := tx.Rebind(`
		INSERT INTO income_statement (` + incomeStatementColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET
			revenue=excluded.revenue,
			gross_profit=excluded.gross_profit,
			operating_income=excluded.operating_income,
			net_income=excluded.net_income,
			eps=excluded.eps,
			last_updated=excluded.last_updated`)
	stmt, err := tx.PreparexContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("prepare income_statement upsert: %w", err)
	}
	defer stmt.Close()

	millis := updatedAt.UTC().UnixMilli()
	for _, r := range records {
		_, err := stmt.ExecContext(ctx, r.Date, r.Revenue, r.GrossProfit, r.OperatingIncome, r.NetIncome, r.EPS, millis)
		if err != nil {
			return fmt.Errorf("upsert income_statement %s: %w", r.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit income_statement upsert: %w", err)
	}
	return nil
}
