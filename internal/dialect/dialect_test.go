package dialect_test

import (
	"database/sql/driver"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db2connector/internal/dialect"
	_ "db2connector/internal/dialect/all"
	"db2connector/internal/dialect/db2"
	"db2connector/internal/dialect/mssql"
	"db2connector/internal/dialect/mysql"
	"db2connector/internal/dialect/postgres"
	"db2connector/internal/dialect/sqlite"
	"db2connector/internal/types"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"db2", "mssql", "mysql", "postgres", "sqlite"}, dialect.Names())

	d, err := dialect.Lookup("db2")
	require.NoError(t, err)
	assert.Equal(t, " WITH UR", d.SelectSuffix)

	// Lookup hands out copies.
	d.VarcharMaxLength = 1
	again, err := dialect.Lookup("db2")
	require.NoError(t, err)
	assert.Equal(t, db2.DefaultVarcharMaxLength, again.VarcharMaxLength)

	_, err = dialect.Lookup("oracle")
	assert.EqualError(t, err, "unsupported dialect=oracle")
}

func TestQuote(t *testing.T) {
	t.Parallel()

	d2 := db2.Dialect()
	ms := mssql.Dialect()
	my := mysql.Dialect()

	cases := []struct {
		d    dialect.Dialect
		in   string
		want string
	}{
		{d2, "col", `"col"`},
		{d2, `a"b`, `"a""b"`},
		{d2, `""`, `""""""`},
		{ms, "a]b", "[a]]b]"},
		{ms, "a[b", "[a[b]"},
		{my, "a`b", "`a``b`"},
	}
	for _, tc := range cases {
		if got := tc.d.Quote(tc.in); got != tc.want {
			t.Fatalf("%s Quote(%q) = %q, want %q", tc.d.Name, tc.in, got, tc.want)
		}
	}
}

func TestQualifiedName(t *testing.T) {
	t.Parallel()

	d := db2.Dialect()
	assert.Equal(t, `"T"`, d.QualifiedName("", "", "T"))
	assert.Equal(t, `"S"."T"`, d.QualifiedName("", "S", "T"))
	assert.Equal(t, `"C"."T"`, d.QualifiedName("C", "", "T"))
	assert.Equal(t, `"C"."S"."T"`, d.QualifiedName("C", "S", "T"))
}

func TestStringLiteral(t *testing.T) {
	t.Parallel()

	d := db2.Dialect()
	ms := mssql.Dialect()
	my := mysql.Dialect()

	assert.Equal(t, `'it''s'`, d.StringLiteral("it's"))
	assert.Equal(t, `'a\b'`, d.StringLiteral(`a\b`))
	assert.Equal(t, `N'x'`, ms.StringLiteral("x"))
	assert.Equal(t, `'a\\b'`, my.StringLiteral(`a\b`))
}

func TestLiteralDB2(t *testing.T) {
	t.Parallel()

	d := db2.Dialect()
	ts9, _ := types.Timestamp(9)
	tm, _ := types.Time(3)
	at := time.Date(2024, 5, 6, 7, 8, 9, 120000000, time.UTC)

	cases := []struct {
		typ  types.Type
		v    driver.Value
		want string
	}{
		{types.BigInt, nil, "NULL"},
		{types.BigInt, int64(-5), "-5"},
		{types.Boolean, true, "TRUE"},
		{types.Boolean, false, "FALSE"},
		{types.Double, 1.5, "1.5E+00"},
		{types.Type{Kind: types.KindDecimal, Precision: 5, Scale: 2}, "123.40", "123.40"},
		{types.UnboundedVarchar, "O'Brien", "'O''Brien'"},
		{types.UnboundedVarbinary, []byte{0xde, 0xad}, "BX'DEAD'"},
		{types.Date, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), "CAST('2024-05-06' AS DATE)"},
		{tm, at, "CAST('07:08:09.120' AS TIME)"},
		{types.TimestampMillis, at, "CAST('2024-05-06 07:08:09.120' AS TIMESTAMP(12))"},
		{ts9, "2024-05-06 07:08:09.123456789", "CAST('2024-05-06 07:08:09.123456789' AS TIMESTAMP(12))"},
	}
	for _, tc := range cases {
		got, err := d.Literal(tc.typ, tc.v)
		require.NoError(t, err, "Literal(%s, %v)", tc.typ, tc.v)
		if got != tc.want {
			t.Fatalf("Literal(%s, %v) = %q, want %q", tc.typ, tc.v, got, tc.want)
		}
	}

	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := d.Literal(types.Double, f)
		assert.Error(t, err, "%v", f)
	}
	_, err := d.Literal(types.BigInt, "1")
	assert.Error(t, err)
}

func TestLiteralOtherDialects(t *testing.T) {
	t.Parallel()

	ms := mssql.Dialect()
	pg := postgres.Dialect()
	lite := sqlite.Dialect()
	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

	check := func(d dialect.Dialect, typ types.Type, v driver.Value, want string) {
		t.Helper()
		got, err := d.Literal(typ, v)
		require.NoError(t, err)
		assert.Equal(t, want, got, "%s literal", d.Name)
	}
	check(ms, types.Boolean, true, "1")
	check(ms, types.UnboundedVarchar, "x", "N'x'")
	check(ms, types.UnboundedVarbinary, []byte{1, 2}, "0x0102")
	check(ms, types.Date, day, "CAST('2024-05-06' AS DATE)")
	check(pg, types.Date, day, "DATE '2024-05-06'")
	check(pg, types.UnboundedVarbinary, []byte{0xab}, `'\xAB'::bytea`)
	check(lite, types.Date, day, "'2024-05-06'")
	check(lite, types.Boolean, false, "0")
}

func TestBind(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	lite := sqlite.Dialect()
	d := db2.Dialect()

	assert.Equal(t, "2024-05-06 07:08:09.000", lite.Bind(types.TimestampMillis, at))
	assert.Equal(t, "2024-05-06", lite.Bind(types.Date, at))
	assert.Equal(t, int64(1), lite.Bind(types.BigInt, int64(1)))
	assert.Equal(t, at, d.Bind(types.TimestampMillis, at))
}

func TestStatementTemplates(t *testing.T) {
	t.Parallel()

	d := db2.Dialect()
	assert.Equal(t, `RENAME TABLE "S"."OLD" TO "NEW"`, d.RenameTableSQL(d.QualifiedName("", "S", "OLD"), "NEW"))
	assert.Equal(t,
		`CREATE TABLE "S"."COPY" AS (SELECT "A", "B" FROM "S"."T") WITH NO DATA`,
		d.CopyTableSchemaSQL(d.QualifiedName("", "S", "COPY"), []string{"A", "B"}, d.QualifiedName("", "S", "T")))
	assert.Equal(t, `INSERT INTO "T" ("A", "B") VALUES (?, ?)`, d.InsertSQL(`"T"`, []string{"A", "B"}))

	pg := postgres.Dialect()
	assert.Equal(t, `ALTER TABLE "s"."old" RENAME TO "new"`, pg.RenameTableSQL(pg.QualifiedName("", "s", "old"), "new"))
	assert.Equal(t, `INSERT INTO "t" ("a", "b") VALUES ($1, $2)`, pg.InsertSQL(`"t"`, []string{"a", "b"}))

	ms := mssql.Dialect()
	assert.Equal(t, `EXEC sp_rename N'[dbo].[old]', N'new'`, ms.RenameTableSQL(ms.QualifiedName("", "dbo", "old"), "new"))
	assert.Equal(t, `SELECT [a] INTO [dbo].[copy] FROM [dbo].[t] WHERE 1 = 0`,
		ms.CopyTableSchemaSQL(ms.QualifiedName("", "dbo", "copy"), []string{"a"}, ms.QualifiedName("", "dbo", "t")))
	assert.Equal(t, `INSERT INTO [t] ([a], [b]) VALUES (@p1, @p2)`, ms.InsertSQL("[t]", []string{"a", "b"}))
}
