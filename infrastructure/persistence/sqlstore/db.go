// Package sqlstore implements the note repository on database/sql. The same
// queries run against PostgreSQL (pgx) and SQLite (go-sqlite3); a Dialect
// covers the differences in placeholders and time encoding.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Supported driver names, as used in configuration.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// sqliteTimeLayout sorts lexically in the same order as the instants it encodes.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

// Dialect describes a SQL flavour.
type Dialect struct {
	Name string
	// numbered placeholders ($1, $2) instead of ?
	numbered bool
	// times are stored as fixed-width UTC text
	textTimes bool
	// expression used to select the id column as text
	idColumn string
}

var (
	Postgres = Dialect{Name: DriverPostgres, numbered: true, idColumn: "id::text"}
	SQLite   = Dialect{Name: DriverSQLite, textTimes: true, idColumn: "id"}
)

// DialectFor returns the dialect for a configured driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverPostgres:
		return Postgres, nil
	case DriverSQLite:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) bindTime(t time.Time) any {
	if d.textTimes {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// timeColumn scans either a native timestamp or its text encoding.
type timeColumn struct {
	t *time.Time
}

func (c timeColumn) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*c.t = v.UTC()
		return nil
	case string:
		return c.parse(v)
	case []byte:
		return c.parse(string(v))
	case nil:
		return fmt.Errorf("unexpected NULL timestamp")
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (c timeColumn) parse(s string) error {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			*c.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, Dialect{}, err
	}

	driverName := "pgx"
	if dialect == SQLite {
		driverName = "sqlite3"
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("open db: %w", err)
	}

	if dialect == SQLite {
		// in-memory databases are per connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetConnMaxIdleTime(5 * time.Minute)
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetMaxIdleConns(10)
		db.SetMaxOpenConns(20)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, Dialect{}, fmt.Errorf("ping db: %w", err)
	}
	return db, dialect, nil
}
