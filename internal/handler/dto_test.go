package handler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWindowHours(t *testing.T) {
	require.Equal(t, 24, parseWindowHours("", 24))
	require.Equal(t, 48, parseWindowHours("48", 24))
	require.Equal(t, 48, parseWindowHours("48h", 24))
	require.Equal(t, 48, parseWindowHours(" 48H ", 24))
	require.Equal(t, 24, parseWindowHours("abc", 24))
	require.Equal(t, 24, parseWindowHours("-5", 24))
	require.Equal(t, 168, parseWindowHours("9000", 24))
	require.Equal(t, 1, parseWindowHours("0.4", 24))
}

func TestParseThemeCount(t *testing.T) {
	require.Equal(t, 6, parseThemeCount("", 6))
	require.Equal(t, 5, parseThemeCount("5", 6))
	require.Equal(t, 3, parseThemeCount("1", 6))
	require.Equal(t, 10, parseThemeCount("99", 6))
	require.Equal(t, 6, parseThemeCount("lots", 6))
}

func TestParseForce(t *testing.T) {
	require.True(t, parseForce("1"))
	require.True(t, parseForce("true"))
	require.True(t, parseForce("YES"))
	require.False(t, parseForce(""))
	require.False(t, parseForce("0"))
	require.False(t, parseForce("maybe"))
}
