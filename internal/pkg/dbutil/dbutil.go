// Package dbutil builds postgres statements from gendry where maps.
package dbutil

import (
	"regexp"
	"strings"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
)

// gendry renders "_limit" MySQL style as "LIMIT offset, count".
var mysqlLimit = regexp.MustCompile(`(?i)LIMIT\s+\?\s*,\s*\?`)

func Select(table string, where map[string]interface{}, fields []string) (string, []interface{}, error) {
	query, args, err := builder.BuildSelect(table, where, fields)
	if err != nil {
		return "", nil, err
	}
	query, args = toPostgres(query, args)
	return query, args, nil
}

// Insert builds a single row insert. Columns named in returning are appended
// as a RETURNING clause so database defaults can be read back.
func Insert(table string, row map[string]interface{}, returning ...string) (string, []interface{}, error) {
	query, args, err := builder.BuildInsert(table, []map[string]interface{}{row})
	if err != nil {
		return "", nil, err
	}
	if len(returning) > 0 {
		query += " RETURNING " + strings.Join(returning, ", ")
	}
	query, args = toPostgres(query, args)
	return query, args, nil
}

func Delete(table string, where map[string]interface{}) (string, []interface{}, error) {
	query, args, err := builder.BuildDelete(table, where)
	if err != nil {
		return "", nil, err
	}
	query, args = toPostgres(query, args)
	return query, args, nil
}

func toPostgres(query string, args []interface{}) (string, []interface{}) {
	if loc := mysqlLimit.FindStringIndex(query); loc != nil {
		i := strings.Count(query[:loc[0]], "?")
		if i+1 < len(args) {
			args[i], args[i+1] = args[i+1], args[i]
			query = query[:loc[0]] + "LIMIT ? OFFSET ?" + query[loc[1]:]
		}
	}
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}
