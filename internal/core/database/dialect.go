package db

import (
	"strconv"
	"strings"
)

// dialect captures the few places Postgres and SQLite differ. Queries are
// written with ? placeholders and rebound per driver.
type dialect struct {
	name           string
	script         string
	metaTableQuery string
	numbered       bool // $1, $2, ... placeholders
	lockRow        string
}

var (
	postgresDialect = dialect{
		name:   "postgres",
		script: "scripts/postgres.sql",
		metaTableQuery: `SELECT EXISTS (
			SELECT 1 FROM information_schema.tables WHERE table_name = 'botgpt_meta'
		)`,
		numbered: true,
		lockRow:  " FOR UPDATE",
	}
	sqliteDialect = dialect{
		name:   "sqlite",
		script: "scripts/sqlite.sql",
		metaTableQuery: `SELECT EXISTS (
			SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'botgpt_meta'
		)`,
	}
)

func (d dialect) rebind(q string) string {
	if !d.numbered {
		return q
	}
	var sb strings.Builder
	sb.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// placeholders returns "?, ?, ..." with n entries.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
