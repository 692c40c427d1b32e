package main

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	cfg := newConfig()
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "income.db")

	db, err := openDatabase(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeSource counts calls and returns canned records or an error.
type fakeSource struct {
	records []FinancialRecord
	err     error
	calls   int
}

func (s *fakeSource) FetchIncomeStatements(ctx context.Context) ([]FinancialRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]string
	sets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string]string{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	c.sets++
	return nil
}

func newTestDeps(db *sqlx.DB, source IncomeStatementSource, clock *fakeClock) *Dependencies {
	logger := zerolog.Nop()
	return &Dependencies{
		config:     newConfig(),
		db:         db,
		reconciler: newReconciler(db, source, clock.Now),
		logger:     &logger,
		now:        clock.Now,
	}
}

func sampleRecords() []FinancialRecord {
	return []FinancialRecord{
		{Date: "2023-09-30", Revenue: 383285000000, GrossProfit: 169148000000, OperatingIncome: 114301000000, NetIncome: 96995000000, EPS: 6.16},
		{Date: "2022-09-24", Revenue: 394328000000, GrossProfit: 170782000000, OperatingIncome: 119437000000, NetIncome: 99803000000, EPS: 6.15},
		{Date: "2021-09-25", Revenue: 365817000000, GrossProfit: 152836000000, OperatingIncome: 108949000000, NetIncome: 94680000000, EPS: 5.67},
		{Date: "2020-09-26", Revenue: 274515000000, GrossProfit: 104956000000, OperatingIncome: 66288000000, NetIncome: 57411000000, EPS: 3.31},
	}
}

func recordDates(records []FinancialRecord) []string {
	dates := make([]string, 0, len(records))
	for _, r := range records {
		dates = append(dates, r.Date)
	}
	return dates
}
