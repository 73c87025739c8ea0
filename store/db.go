package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB wraps a pool for either SQLite or Postgres. Queries are written with
// '?' placeholders and rebound for the active driver.
type DB struct {
	Pool   *sql.DB
	driver string
}

// Open connects and pings. For SQLite dsn is a file path.
func Open(driver, dsn string) (*DB, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dsn)
	case DriverPostgres:
	default:
		return nil, eris.Errorf("store: unsupported driver %q", driver)
	}

	pool, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, eris.Wrapf(err, "store: open %s", driver)
	}
	if driver == DriverSQLite {
		pool.SetMaxOpenConns(1)
	}
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, eris.Wrapf(err, "store: ping %s", driver)
	}

	return &DB{Pool: pool, driver: driver}, nil
}

func (d *DB) Driver() string {
	return d.driver
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}

// rebind rewrites '?' placeholders to $n for Postgres.
func (d *DB) rebind(query string) string {
	if d.driver != DriverPostgres {
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
