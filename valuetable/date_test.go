package valuetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dfirlabs/ewfcore/config"
)

func TestParseOld(t *testing.T) {
	got, err := ParseOld("2019 1 1 0 0 0")
	require.NoError(t, err)
	require.Equal(t, 2019, got.Year())
	require.Equal(t, time.January, got.Month())
	require.Equal(t, 1, got.Day())
}

func TestParseOldRejectsBadFieldCount(t *testing.T) {
	_, err := ParseOld("2019 1 1")
	require.Error(t, err)
}

func TestParseUnix(t *testing.T) {
	got, err := ParseUnix("1546300800")
	require.NoError(t, err)
	require.Equal(t, int64(1546300800), got.Unix())
}

func TestParseHeaderDateDispatch(t *testing.T) {
	viaOld, err := ParseHeaderDate("2019 1 1 0 0 0")
	require.NoError(t, err)

	viaNew, err := ParseHeaderDate("1546300800")
	require.NoError(t, err)

	require.Equal(t, viaOld.Unix(), viaNew.Unix())
}

func TestFormatMonthDay(t *testing.T) {
	ts := time.Date(2019, time.January, 1, 0, 0, 0, 0, time.Local)
	s, err := Format(ts, config.DateFormatMonthDay)
	require.NoError(t, err)
	require.Equal(t, "01/01/2019 00:00:00", s)
}

func TestFormatISO8601Commutativity(t *testing.T) {
	ts := time.Date(2022, time.March, 14, 9, 26, 53, 0, time.Local)
	s, err := Format(ts, config.DateFormatISO8601)
	require.NoError(t, err)

	back, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local)
	require.NoError(t, err)
	require.Equal(t, ts.Unix(), back.Unix())
}
