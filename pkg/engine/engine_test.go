package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopu-inc/gsql/pkg/gerr"
	"github.com/gopu-inc/gsql/pkg/parser"
	"github.com/gopu-inc/gsql/pkg/statements"
	"github.com/gopu-inc/gsql/pkg/types"
)

func openTestEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	eng, err := Open(Config{DataDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return eng
}

// run parses and executes one statement.
func run(t *testing.T, eng *Engine, sql string) *statements.QueryResult {
	t.Helper()
	result, err := runErr(eng, sql)
	require.NoError(t, err, "statement %q", sql)
	return result
}

func runErr(eng *Engine, sql string) (*statements.QueryResult, error) {
	p := &parser.Parser{}
	stmt, err := p.ParseStatement(sql)
	if err != nil {
		return nil, err
	}
	return eng.Execute(stmt)
}

func usersTable(t *testing.T, eng *Engine) {
	t.Helper()
	run(t, eng, `CREATE TABLE users (
		id BIGINT PRIMARY KEY,
		name VARCHAR(32) NOT NULL,
		score DOUBLE,
		active BOOLEAN
	)`)
}

func TestInsertSelectRoundTrip(t *testing.T) {
	eng := openTestEngine(t, t.TempDir())
	usersTable(t, eng)

	result := run(t, eng, `INSERT INTO users VALUES
		(1, 'alice', 9.5, TRUE),
		(2, 'bob', NULL, FALSE)`)
	assert.Equal(t, 2, result.RowsAffected)

	result = run(t, eng, `SELECT id, name, score FROM users`)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, []string{"id", "name", "score"}, result.Columns)

	first := result.Rows[0].Fields()
	assert.Equal(t, int64(1), first[0].(*types.IntField).Value)
	assert.Equal(t, "alice", first[1].(*types.TextField).Value)
	assert.Equal(t, 9.5, first[2].(*types.FloatField).Value)

	second := result.Rows[1].Fields()
	assert.Equal(t, types.NullKind, second[2].Kind())
}

func TestSelectStar(t *testing.T) {
	eng := openTestEngine(t, t.TempDir())
	usersTable(t, eng)
	run(t, eng, `INSERT INTO users VALUES (1, 'alice', 1.0, TRUE)`)

	result := run(t, eng, `SELECT * FROM users`)
	assert.Equal(t, []string{"id", "name", "score", "active"}, result.Columns)
	require.Len(t, result.Rows, 1)
}

func TestWhereFiltering(t *testing.T) {
	eng := openTestEngine(t, t.TempDir())
	usersTable(t, eng)
	run(t, eng, `INSERT INTO users VALUES
		(1, 'alice', 9.5, TRUE),
		(2, 'bob', 3.0, FALSE),
		(3, 'carol', NULL, TRUE)`)

	tests := []struct {
		where string
		want  []int64
	}{
		{`id = 2`, []int64{2}},
		{`id != 2`, []int64{1, 3}},
		{`score > 5`, []int64{1}},
		{`score <= 3.0`, []int64{2}},
		{`active = TRUE AND id < 3`, []int64{1}},
		{`id = 1 OR id = 3`, []int64{1, 3}},
		{`NOT (id = 1)`, []int64{2, 3}},
		{`score IS NULL`, []int64{3}},
		{`score IS NOT NULL`, []int64{1, 2}},
		// NULL comparisons are unknown and unknown never matches
		{`score = 7 OR score != 7`, []int64{1, 2}},
		{`NOT (score >= 5)`, []int64{2}},
	}

	for _, tt := range tests {
		t.Run(tt.where, func(t *testing.T) {
			result := run(t, eng, "SELECT id FROM users WHERE "+tt.where)
			var got []int64
			for _, row := range result.Rows {
				got = append(got, row.Fields()[0].(*types.IntField).Value)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrimaryKeyPointLookup(t *testing.T) {
	eng := openTestEngine(t, t.TempDir())
	usersTable(t, eng)
	for i := 1; i <= 50; i++ {
		run(t, eng, fmt.Sprintf(`INSERT INTO users VALUES (%d, 'u%d', NULL, TRUE)`, i, i))
	}

	result := run(t, eng, `SELECT name FROM users WHERE id = 37`)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "u37", result.Rows[0].Fields()[0].(*types.TextField).Value)

	result = run(t, eng, `SELECT name FROM users WHERE 37 = id`)
	require.Len(t, result.Rows, 1)

	result = run(t, eng, `SELECT name FROM users WHERE id = 9999`)
	assert.Empty(t, result.Rows)
}

func TestDuplicatePrimaryKeyRejected(t *testing.T) {
	eng := openTestEngine(t, t.TempDir())
	usersTable(t, eng)
	run(t, eng, `INSERT INTO users VALUES (1, 'alice', NULL, TRUE)`)

	_, err := runErr(eng, `INSERT INTO users VALUES (1, 'impostor', NULL, TRUE)`)
	require.Error(t, err)
	assert.True(t, gerr.IsKind(err, gerr.KindTypeMismatch), "got %v", err)

	// the failed insert left no trace
	result := run(t, eng, `SELECT name FROM users`)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "alice", result.Rows[0].Fields()[0].(*types.TextField).Value)
}

// TestRejectedInsertNotReplayed commits a row after a duplicate was
// rejected, then crashes. Recovery must keep the committed row and
// must not resurrect the rejected one from the log.
func TestRejectedInsertNotReplayed(t *testing.T) {
	dir := t.TempDir()

	crashed, err := Open(Config{DataDir: dir})
	require.NoError(t, err)
	usersTable(t, crashed)
	run(t, crashed, `INSERT INTO users VALUES (1, 'alice', NULL, TRUE)`)
	_, err = runErr(crashed, `INSERT INTO users VALUES (1, 'impostor', NULL, TRUE)`)
	require.Error(t, err)
	run(t, crashed, `INSERT INTO users VALUES (2, 'bob', NULL, FALSE)`)
	// no Close: dirty pages die with the process

	eng := openTestEngine(t, dir)
	result := run(t, eng, `SELECT name FROM users`)
	require.Len(t, result.Rows, 2)
	var names []string
	for _, row := range result.Rows {
		names = append(names, row.Fields()[0].(*types.TextField).Value)
	}
	assert.Equal(t, []string{"alice", "bob"}, names)
}

func TestUniqueColumnRejected(t *testing.T) {
	eng := openTestEngine(t, t.TempDir())
	run(t, eng, `CREATE TABLE accounts (id BIGINT PRIMARY KEY, email TEXT UNIQUE)`)
	run(t, eng, `INSERT INTO accounts VALUES (1, 'a@x.com')`)

	_, err := runErr(eng, `INSERT INTO accounts VALUES (2, 'a@x.com')`)
	require.Error(t, err)
	assert.True(t, gerr.IsKind(err, gerr.KindTypeMismatch), "got %v", err)

	// NULL does not collide with NULL
	run(t, eng, `INSERT INTO accounts VALUES (3, NULL)`)
	run(t, eng, `INSERT INTO accounts VALUES (4, NULL)`)
}

func TestDelete(t *testing.T) {
	eng := openTestEngine(t, t.TempDir())
	usersTable(t, eng)
	run(t, eng, `INSERT INTO users VALUES
		(1, 'alice', 1.0, TRUE),
		(2, 'bob', 2.0, FALSE),
		(3, 'carol', 3.0, TRUE)`)

	result := run(t, eng, `DELETE FROM users WHERE active = FALSE`)
	assert.Equal(t, 1, result.RowsAffected)

	result = run(t, eng, `SELECT id FROM users`)
	require.Len(t, result.Rows, 2)

	// deleted key leaves the index too
	result = run(t, eng, `SELECT id FROM users WHERE id = 2`)
	assert.Empty(t, result.Rows)

	// the freed slot is reused
	run(t, eng, `INSERT INTO users VALUES (4, 'dave', NULL, TRUE)`)
	result = run(t, eng, `SELECT id FROM users WHERE id = 4`)
	require.Len(t, result.Rows, 1)

	result = run(t, eng, `DELETE FROM users`)
	assert.Equal(t, 3, result.RowsAffected)
	result = run(t, eng, `SELECT id FROM users`)
	assert.Empty(t, result.Rows)
}

func TestErrorTaxonomy(t *testing.T) {
	eng := openTestEngine(t, t.TempDir())
	usersTable(t, eng)

	tests := []struct {
		sql  string
		kind gerr.Kind
	}{
		{`CREATE TABLE users (id INT)`, gerr.KindTableExists},
		{`SELECT * FROM nope`, gerr.KindTableNotFound},
		{`INSERT INTO nope VALUES (1)`, gerr.KindTableNotFound},
		{`DELETE FROM nope`, gerr.KindTableNotFound},
		{`SELECT missing FROM users`, gerr.KindColumnNotFound},
		{`SELECT id FROM users WHERE missing = 1`, gerr.KindColumnNotFound},
		{`DELETE FROM users WHERE missing = 1`, gerr.KindColumnNotFound},
		{`INSERT INTO users (id, missing) VALUES (1, 2)`, gerr.KindColumnNotFound},
		{`INSERT INTO users VALUES ('text', 'alice', NULL, TRUE)`, gerr.KindTypeMismatch},
		{`INSERT INTO users VALUES (1, NULL, NULL, TRUE)`, gerr.KindTypeMismatch},
		{`INSERT INTO users VALUES (1)`, gerr.KindSyntax},
		{`SELEC * FROM users`, gerr.KindNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			_, err := runErr(eng, tt.sql)
			require.Error(t, err)
			assert.True(t, gerr.IsKind(err, tt.kind),
				"expected %s, got %v", tt.kind, err)
		})
	}

	// errors never wedge the engine
	result := run(t, eng, `SELECT * FROM users`)
	assert.NotNil(t, result)
}

func TestVarcharLengthEnforced(t *testing.T) {
	eng := openTestEngine(t, t.TempDir())
	run(t, eng, `CREATE TABLE notes (id BIGINT PRIMARY KEY, tag VARCHAR(4))`)

	run(t, eng, `INSERT INTO notes VALUES (1, 'abcd')`)
	_, err := runErr(eng, `INSERT INTO notes VALUES (2, 'abcde')`)
	require.Error(t, err)
	assert.True(t, gerr.IsKind(err, gerr.KindTypeMismatch))
}

func TestMultiPageGrowth(t *testing.T) {
	eng, err := Open(Config{DataDir: t.TempDir(), PoolCapacity: 4})
	require.NoError(t, err)
	defer eng.Close()

	run(t, eng, `CREATE TABLE big (id BIGINT PRIMARY KEY, filler TEXT)`)

	// rows sized so a page holds only a handful, forcing growth well
	// past the pool capacity
	const n = 300
	filler := make([]byte, 512)
	for i := range filler {
		filler[i] = 'x'
	}
	for i := 0; i < n; i++ {
		run(t, eng, fmt.Sprintf(`INSERT INTO big VALUES (%d, '%s')`, i, filler))
	}

	result := run(t, eng, `SELECT id FROM big`)
	assert.Len(t, result.Rows, n)

	seen := make(map[int64]bool)
	for _, row := range result.Rows {
		seen[row.Fields()[0].(*types.IntField).Value] = true
	}
	assert.Len(t, seen, n, "every row must come back exactly once")

	result = run(t, eng, `SELECT filler FROM big WHERE id = 250`)
	require.Len(t, result.Rows, 1)
}

func TestPersistenceAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	eng, err := Open(Config{DataDir: dir})
	require.NoError(t, err)
	usersTable(t, eng)
	run(t, eng, `INSERT INTO users VALUES (1, 'alice', 5.0, TRUE)`)
	require.NoError(t, eng.Close())

	eng = openTestEngine(t, dir)
	result := run(t, eng, `SELECT name FROM users WHERE id = 1`)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "alice", result.Rows[0].Fields()[0].(*types.TextField).Value)
}

// TestCrashRecovery simulates a crash by abandoning an engine without
// Close: the WAL is durable per statement but data pages were never
// flushed. A fresh engine must replay the log.
func TestCrashRecovery(t *testing.T) {
	dir := t.TempDir()

	crashed, err := Open(Config{DataDir: dir})
	require.NoError(t, err)
	usersTable(t, crashed)
	run(t, crashed, `INSERT INTO users VALUES
		(1, 'alice', 9.5, TRUE),
		(2, 'bob', NULL, FALSE)`)
	run(t, crashed, `DELETE FROM users WHERE id = 2`)
	// no Close: dirty pages die with the process

	eng := openTestEngine(t, dir)
	result := run(t, eng, `SELECT id, name FROM users`)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, int64(1), result.Rows[0].Fields()[0].(*types.IntField).Value)

	// the index came back too
	result = run(t, eng, `SELECT name FROM users WHERE id = 1`)
	require.Len(t, result.Rows, 1)
	result = run(t, eng, `SELECT name FROM users WHERE id = 2`)
	assert.Empty(t, result.Rows)
}

// TestReplayIsIdempotent crashes twice: the second recovery must not
// duplicate rows already applied by the first.
func TestReplayIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	crashed, err := Open(Config{DataDir: dir})
	require.NoError(t, err)
	usersTable(t, crashed)
	run(t, crashed, `INSERT INTO users VALUES (1, 'alice', NULL, TRUE)`)

	for i := 0; i < 3; i++ {
		eng, err := Open(Config{DataDir: dir})
		require.NoError(t, err, "recovery attempt %d", i)

		result := run(t, eng, `SELECT id FROM users`)
		require.Len(t, result.Rows, 1, "recovery attempt %d duplicated rows", i)
		// abandon again without Close
		_ = eng
	}
}

func TestCreateTableUnwindOnBadSchema(t *testing.T) {
	eng := openTestEngine(t, t.TempDir())

	_, err := runErr(eng, `CREATE TABLE bad (a INT, a TEXT)`)
	require.Error(t, err)

	// the name stays free for a corrected definition
	run(t, eng, `CREATE TABLE bad (a INT PRIMARY KEY, b TEXT)`)
}

func TestTablesListing(t *testing.T) {
	eng := openTestEngine(t, t.TempDir())
	run(t, eng, `CREATE TABLE zeta (id INT PRIMARY KEY)`)
	run(t, eng, `CREATE TABLE alpha (id INT PRIMARY KEY)`)

	assert.Equal(t, []string{"alpha", "zeta"}, eng.Tables())
}

func TestTableWithoutPrimaryKey(t *testing.T) {
	eng := openTestEngine(t, t.TempDir())
	run(t, eng, `CREATE TABLE plain (a INT, b TEXT)`)
	run(t, eng, `INSERT INTO plain VALUES (1, 'x'), (1, 'y')`)

	result := run(t, eng, `SELECT b FROM plain WHERE a = 1`)
	assert.Len(t, result.Rows, 2)
}
