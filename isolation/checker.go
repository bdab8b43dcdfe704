// Package isolation detects persistent-state leakage between tests: it
// snapshots database row counts before fixtures run and compares them after
// teardown, reporting per-table drift as isolation violations.
package isolation

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/flanksource/commons/logger"
	"gorm.io/gorm"

	"github.com/flanksource/fixturekit/lifecycle"
)

// Snapshot maps table names to row counts at snapshot time.
type Snapshot map[string]int64

// Checker implements lifecycle.IsolationChecker over a live database.
//
// Snapshots are keyed per test for per-test isolation and per class for
// per-class isolation; a nil declared state falls back to the checker's
// default policy (per-test unless configured otherwise).
type Checker struct {
	db           *gorm.DB
	tables       []string
	defaultState lifecycle.IsolationState

	mu        sync.Mutex
	snapshots map[lifecycle.TestRef]Snapshot
}

// NewChecker creates a checker watching the given tables. With no explicit
// tables the database's full table list is discovered on each snapshot.
func NewChecker(db *gorm.DB, tables ...string) *Checker {
	return &Checker{
		db:           db,
		tables:       tables,
		defaultState: lifecycle.IsolationPerTest,
		snapshots:    make(map[lifecycle.TestRef]Snapshot),
	}
}

// WithDefaultState overrides the policy used when a test declares none.
func (c *Checker) WithDefaultState(state lifecycle.IsolationState) *Checker {
	c.defaultState = state
	return c
}

func (c *Checker) resolve(state *lifecycle.IsolationState) lifecycle.IsolationState {
	if state == nil {
		return c.defaultState
	}
	return *state
}

func snapshotKey(test lifecycle.TestRef, state lifecycle.IsolationState) lifecycle.TestRef {
	if state == lifecycle.IsolationPerClass {
		return test.ClassRef()
	}
	return test
}

func (c *Checker) tableNames() ([]string, error) {
	if len(c.tables) > 0 {
		return c.tables, nil
	}
	tables, err := c.db.Migrator().GetTables()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

func (c *Checker) counts() (Snapshot, error) {
	tables, err := c.tableNames()
	if err != nil {
		return nil, err
	}

	snapshot := make(Snapshot, len(tables))
	for _, table := range tables {
		var count int64
		if err := c.db.Table(table).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count rows in %s: %w", table, err)
		}
		snapshot[table] = count
	}
	return snapshot, nil
}

// CreateSnapshot records the current state for later comparison. Under
// per-class isolation the first snapshot for a class is kept for all of its
// tests; under per-test isolation every test gets a fresh one.
func (c *Checker) CreateSnapshot(test lifecycle.TestRef, state *lifecycle.IsolationState) error {
	resolved := c.resolve(state)
	if resolved == lifecycle.IsolationDisabled {
		return nil
	}

	key := snapshotKey(test, resolved)

	c.mu.Lock()
	defer c.mu.Unlock()
	if resolved == lifecycle.IsolationPerClass {
		if _, ok := c.snapshots[key]; ok {
			return nil
		}
	}

	snapshot, err := c.counts()
	if err != nil {
		return err
	}
	c.snapshots[key] = snapshot
	logger.Debugf("Snapshotted %d tables for %s (%s isolation)", len(snapshot), test, resolved)
	return nil
}

// CheckIsolation compares current state against the earlier snapshot and
// returns a *ViolationError listing per-table drift on mismatch.
func (c *Checker) CheckIsolation(test lifecycle.TestRef, state *lifecycle.IsolationState) error {
	resolved := c.resolve(state)
	if resolved == lifecycle.IsolationDisabled {
		return nil
	}

	key := snapshotKey(test, resolved)

	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot, ok := c.snapshots[key]
	if !ok {
		return fmt.Errorf("no isolation snapshot exists for %s", test)
	}
	if resolved != lifecycle.IsolationPerClass {
		delete(c.snapshots, key)
	}

	current, err := c.counts()
	if err != nil {
		return err
	}

	drift := make(map[string]int64)
	for table, expected := range snapshot {
		if delta := current[table] - expected; delta != 0 {
			drift[table] = delta
		}
	}
	for table, count := range current {
		if _, seen := snapshot[table]; !seen && count != 0 {
			drift[table] = count
		}
	}

	if len(drift) > 0 {
		return &ViolationError{Test: test, Drift: drift}
	}
	return nil
}

// Reset drops all snapshots, typically between test classes.
func (c *Checker) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = make(map[lifecycle.TestRef]Snapshot)
}

// ViolationError reports state that leaked past teardown. Drift maps table
// names to the row-count delta against the snapshot (positive: leaked rows,
// negative: rows deleted that the snapshot still expected).
type ViolationError struct {
	Test  lifecycle.TestRef
	Drift map[string]int64
}

func (e *ViolationError) Error() string {
	tables := make([]string, 0, len(e.Drift))
	for table := range e.Drift {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	parts := make([]string, 0, len(tables))
	for _, table := range tables {
		delta := e.Drift[table]
		if delta > 0 {
			parts = append(parts, fmt.Sprintf("table %s leaked %d row(s)", table, delta))
		} else {
			parts = append(parts, fmt.Sprintf("table %s lost %d row(s)", table, -delta))
		}
	}
	return fmt.Sprintf("isolation violation for %s: %s", e.Test, strings.Join(parts, ", "))
}
