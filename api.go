package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

type jsonErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode json response")
	}
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, r, status, jsonErrorResponse{Error: err.Error()})
}

// GET /get_income-statement
func incomeStatementHandler(deps *Dependencies) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sublog := zerolog.Ctx(ctx)

		records, err := loadIncomeStatements(ctx, deps)
		if err != nil {
			var (
				fetchErr *FetchError
				parseErr *ParseError
			)
			switch {
			case errors.As(err, &fetchErr):
				sublog.Error().Err(err).Int("status_code", fetchErr.StatusCode).Msg("failed to fetch income statements from upstream")
			case errors.As(err, &parseErr):
				sublog.Error().Err(err).Int("item", parseErr.Index).Msg("failed to parse upstream income statements")
			default:
				sublog.Error().Err(err).Str("table_name", "income_statement").Msg("failed to load income statements")
			}
			writeJSONError(w, r, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, r, http.StatusOK, records)
	})
}

// GET /filter
func filterHandler(deps *Dependencies) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sublog := zerolog.Ctx(ctx)

		filter, err := parseIncomeStatementFilter(r.URL.Query())
		if err != nil {
			sublog.Warn().Err(err).Msg("rejected filter request")
			writeJSONError(w, r, http.StatusBadRequest, err)
			return
		}
		if deps.db == nil {
			writeJSONError(w, r, http.StatusInternalServerError, errStoreNotAvailable)
			return
		}

		records, err := filterIncomeStatements(ctx, deps.db, filter)
		if err != nil {
			sublog.Error().Err(err).Str("table_name", "income_statement").Msg("failed on SELECT")
			writeJSONError(w, r, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, r, http.StatusOK, records)
	})
}

// GET /ping, doubles as a database connectivity check
func pingHandler(deps *Dependencies) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if deps.db == nil {
			writeJSONError(w, r, http.StatusServiceUnavailable, errStoreNotAvailable)
			return
		}
		if err := deps.db.PingContext(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("database ping failed")
			writeJSONError(w, r, http.StatusServiceUnavailable, err)
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
}
