package temporal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, PlainDate{2025, time.June, 1}, d)
	assert.Equal(t, "2025-06-01", d.String())

	for _, bad := range []string{"", "2025-13-01", "01/06/2025", "2025-06-01T10:00"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestToZoned(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	testCases := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"iso seconds", "2025-06-01T10:30:00", time.Date(2025, 6, 1, 10, 30, 0, 0, berlin)},
		{"iso minutes", "2025-06-01T10:30", time.Date(2025, 6, 1, 10, 30, 0, 0, berlin)},
		{"server form", "2025-06-01 23:59", time.Date(2025, 6, 1, 23, 59, 0, 0, berlin)},
		{"offset dropped", "2025-06-01T10:30:00+09:00", time.Date(2025, 6, 1, 10, 30, 0, 0, berlin)},
		{"zone annotation", "2025-06-01T10:30:00+02:00[Europe/Berlin]", time.Date(2025, 6, 1, 10, 30, 0, 0, berlin)},
		{"bare date", "2025-06-01", time.Date(2025, 6, 1, 0, 0, 0, 0, berlin)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToZoned(tc.input, berlin)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "got %s", got)
			assert.Equal(t, berlin, got.Location())
		})
	}

	_, err = ToZoned("not a date", berlin)
	assert.Error(t, err)
	_, err = ToZoned("  ", berlin)
	assert.Error(t, err)
}

func TestPlainDateArithmetic(t *testing.T) {
	d := MustParseDate("2024-01-31")
	assert.Equal(t, MustParseDate("2024-02-29"), d.AddMonths(1))
	assert.Equal(t, MustParseDate("2023-12-31"), d.AddMonths(-1))
	assert.Equal(t, MustParseDate("2024-02-07"), d.AddDays(7))
	assert.Equal(t, MustParseDate("2024-01-30"), d.AddDays(-1))

	assert.Equal(t, -1, MustParseDate("2024-01-31").Compare(MustParseDate("2024-02-01")))
	assert.Equal(t, 1, MustParseDate("2025-01-01").Compare(MustParseDate("2024-12-31")))
	assert.Equal(t, 0, d.Compare(MustParseDate("2024-01-31")))
	// "2024-10-01" < "2024-9-30" as strings would be wrong; ordering is calendar based.
	assert.True(t, PlainDate{2024, time.September, 30}.Before(PlainDate{2024, time.October, 1}))
}

func TestValueNormalizeAndJSON(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`"2025-06-01 10:00"`), &v))
	assert.Equal(t, KindRaw, v.Kind())

	n, err := v.Normalize(time.UTC)
	require.NoError(t, err)
	assert.True(t, n.IsZoned())
	assert.Equal(t, "2025-06-01T10:00:00Z", n.String())

	bad := RawValue("garbage")
	kept, err := bad.Normalize(time.UTC)
	assert.Error(t, err)
	assert.Equal(t, bad, kept)

	b, err := json.Marshal(DateValue(MustParseDate("2025-06-01")))
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-06-01"`, string(b))
}

func TestDateField(t *testing.T) {
	var f DateField
	require.NoError(t, json.Unmarshal([]byte(`"2025-02-30"`), &f))
	assert.Error(t, f.Normalize())
	assert.False(t, f.Valid)
	assert.Equal(t, "2025-02-30", f.Raw)

	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-02-30"`, string(b))

	ok := DateField{Raw: "2025-02-28"}
	require.NoError(t, ok.Normalize())
	assert.Equal(t, MustParseDate("2025-02-28"), ok.Date)
}
