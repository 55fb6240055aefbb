package db2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db2connector/internal/types"
)

func TestPrepareDSN(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		dsn   string
		props map[string]string
		want  string
	}{
		{
			name: "cli string without props",
			dsn:  "DATABASE=SAMPLE;HOSTNAME=db;PORT=50000;UID=u;PWD=p",
			want: "DATABASE=SAMPLE;HOSTNAME=db;PORT=50000;UID=u;PWD=p;",
		},
		{
			name:  "ssl property appended",
			dsn:   "DATABASE=SAMPLE;HOSTNAME=db;PORT=50000;UID=u;PWD=p;",
			props: map[string]string{"Security": "SSL"},
			want:  "DATABASE=SAMPLE;HOSTNAME=db;PORT=50000;UID=u;PWD=p;Security=SSL;",
		},
		{
			name:  "present keys win and props are sorted",
			dsn:   "DATABASE=SAMPLE;port=50001",
			props: map[string]string{"PORT": "1", "QueryTimeout": "30", "CurrentSchema": "APP"},
			want:  "DATABASE=SAMPLE;port=50001;CurrentSchema=APP;QueryTimeout=30;",
		},
		{
			name: "jdbc url",
			dsn:  "jdbc:db2://u:p@db.example:50001/SAMPLE",
			want: "DATABASE=SAMPLE;HOSTNAME=db.example;PORT=50001;PROTOCOL=TCPIP;UID=u;PWD=p;",
		},
		{
			name:  "url with default port and jdbc properties suffix",
			dsn:   "db2://db.example/SAMPLE:currentSchema=APP;",
			props: map[string]string{"Security": "SSL", "CurrentSchema": "OTHER"},
			want:  "DATABASE=SAMPLE;HOSTNAME=db.example;PORT=50000;PROTOCOL=TCPIP;currentSchema=APP;Security=SSL;",
		},
		{
			name: "jdbc credentials in properties suffix",
			dsn:  "jdbc:db2://h:50000/SAMPLE:user=db2inst1;password=secret;currentSchema=APP;",
			want: "DATABASE=SAMPLE;HOSTNAME=h;PORT=50000;PROTOCOL=TCPIP;UID=db2inst1;PWD=secret;currentSchema=APP;",
		},
		{
			name: "userinfo wins over suffix credentials",
			dsn:  "jdbc:db2://u:p@h/SAMPLE:user=other;password=x;retrieveMessagesFromServerOnGetMessage=true",
			want: "DATABASE=SAMPLE;HOSTNAME=h;PORT=50000;PROTOCOL=TCPIP;UID=u;PWD=p;retrieveMessagesFromServerOnGetMessage=true;",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := PrepareDSN(tc.dsn, tc.props)
			require.NoError(t, err)
			if got != tc.want {
				t.Fatalf("PrepareDSN(%q) = %q, want %q", tc.dsn, got, tc.want)
			}
		})
	}
}

func TestPrepareDSNErrors(t *testing.T) {
	t.Parallel()

	for _, dsn := range []string{
		"",
		"HOSTNAME=db;PORT=50000",
		"DATABASE=SAMPLE;garbage",
		"jdbc:mysql://db/SAMPLE",
		"db2:///SAMPLE",
		"jdbc:db2://h/SAMPLE:currentSchema",
		"jdbc:db2://h/SAMPLE:=APP;",
	} {
		_, err := PrepareDSN(dsn, nil)
		assert.Error(t, err, "PrepareDSN(%q)", dsn)
	}
}

func TestMapType(t *testing.T) {
	t.Parallel()

	dec := func(p, s int) types.Type { return types.Type{Kind: types.KindDecimal, Precision: p, Scale: s} }
	cases := []struct {
		in     types.Type
		want   string
		wantOK bool
	}{
		{types.Boolean, "BOOLEAN", true},
		{types.TinyInt, "SMALLINT", true},
		{types.BigInt, "BIGINT", true},
		{types.Double, "DOUBLE", true},
		{dec(31, 2), "DECIMAL(31, 2)", true},
		{dec(32, 2), "", false},
		{types.Type{Kind: types.KindChar, Length: 254}, "CHAR(254)", true},
		{types.Type{Kind: types.KindChar, Length: 255}, "", false},
		{types.Type{Kind: types.KindVarbinary, Length: 100}, "VARBINARY(100)", true},
		{types.UnboundedVarbinary, "BLOB", true},
		{types.Date, "DATE", true},
		{types.Type{Kind: types.KindTime, Precision: 3}, "TIME", true},
		{types.Type{}, "", false},
	}
	for _, tc := range cases {
		got, ok := MapType(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("MapType(%s) = %q, %v, want %q, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestDialectConventions(t *testing.T) {
	t.Parallel()

	d := Dialect()
	assert.Equal(t, " WITH UR", d.SelectSuffix)
	assert.True(t, d.ReadOnly)
	assert.Equal(t, 32672, d.VarcharMaxLength)
	assert.Equal(t, "VARCHAR(32672)", d.VarcharType(d.VarcharMaxLength))
	assert.Equal(t, "CLOB(40000)", d.LargeObjectType(40000))
	assert.Equal(t, "TIMESTAMP(12)", d.TimestampType(12))
}
