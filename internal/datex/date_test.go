package datex

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Date
		wantErr bool
	}{
		{name: "plain", in: "2024-01-10", want: New(2024, time.January, 10)},
		{name: "leap day", in: "2024-02-29", want: New(2024, time.February, 29)},
		{name: "impossible day", in: "2024-02-30", wantErr: true},
		{name: "not a leap year", in: "2023-02-29", wantErr: true},
		{name: "short form", in: "2024-1-5", wantErr: true},
		{name: "garbage", in: "tomorrow", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestToday_UsesLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 03:30 UTC on Jan 11 is still Jan 10 in New York.
	now := time.Date(2024, time.January, 11, 3, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-01-10", Today(now, ny).String())
	assert.Equal(t, "2024-01-11", Today(now, time.UTC).String())
}

func TestAddDaysAndDaysUntil(t *testing.T) {
	d := MustParse("2024-03-09")

	// Crosses the US DST switch; arithmetic is on calendar days.
	assert.Equal(t, "2024-03-11", d.AddDays(2).String())
	assert.Equal(t, 2, d.DaysUntil(d.AddDays(2)))
	assert.Equal(t, -3, d.DaysUntil(d.AddDays(-3)))
	assert.Equal(t, "2025-03-09", d.AddDays(365).String())
}

func TestCompare(t *testing.T) {
	a := MustParse("2024-01-01")
	b := MustParse("2024-01-02")

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(MustParse("2024-01-01")))
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
}

func TestJSON(t *testing.T) {
	type wrapper struct {
		Due  *Date `json:"due"`
		Seen Date  `json:"seen"`
	}

	in := wrapper{Due: MustParse("2024-05-01").Ptr()}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2024-05-01","seen":""}`, string(b))

	var out wrapper
	require.NoError(t, json.Unmarshal(b, &out))
	require.NotNil(t, out.Due)
	assert.Equal(t, "2024-05-01", out.Due.String())
	assert.True(t, out.Seen.IsZero())

	require.Error(t, json.Unmarshal([]byte(`{"due":"2024-13-01"}`), &out))
}

func TestScanAndValue(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan("2024-07-04"))
	assert.Equal(t, "2024-07-04", d.String())

	require.NoError(t, d.Scan([]byte("2024-07-05")))
	assert.Equal(t, "2024-07-05", d.String())

	require.NoError(t, d.Scan(time.Date(2024, 7, 6, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-07-06", d.String())

	require.NoError(t, d.Scan("2024-07-07T00:00:00Z"))
	assert.Equal(t, "2024-07-07", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	require.Error(t, d.Scan(42))

	v, err := MustParse("2024-07-04").Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-07-04", v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
