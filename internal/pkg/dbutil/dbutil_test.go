package dbutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToPostgresRewritesLimit(t *testing.T) {
	query, args := toPostgres("SELECT id FROM otp_records WHERE email=? ORDER BY seq desc LIMIT ?,?", []interface{}{"a@b.c", uint(0), uint(1)})
	require.Equal(t, "SELECT id FROM otp_records WHERE email=$1 ORDER BY seq desc LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{"a@b.c", uint(1), uint(0)}, args)
}

func TestSelectLatest(t *testing.T) {
	query, args, err := Select("otp_records", map[string]interface{}{
		"email":    "a@b.c",
		"_orderby": "seq desc",
		"_limit":   []uint{0, 1},
	}, []string{"id", "code"})
	require.NoError(t, err)
	require.Contains(t, query, "LIMIT $2 OFFSET $3")
	require.NotContains(t, query, "?")
	require.Len(t, args, 3)
	require.Equal(t, "a@b.c", args[0])
	require.EqualValues(t, 1, args[1])
}

func TestInsertReturning(t *testing.T) {
	query, args, err := Insert("otp_records", map[string]interface{}{"id": "id-1"}, "ctime", "seq")
	require.NoError(t, err)
	require.Contains(t, query, "$1")
	require.True(t, strings.HasSuffix(query, " RETURNING ctime, seq"))
	require.Equal(t, []interface{}{"id-1"}, args)
}

func TestDeleteWithoutLimit(t *testing.T) {
	query, args, err := Delete("otp_records", map[string]interface{}{"id": "id-1", "code": "123456"})
	require.NoError(t, err)
	require.NotContains(t, query, "?")
	require.Contains(t, query, "$2")
	require.Len(t, args, 2)
}
