/*
Package csql wraps a standard sql.DB with a schema and a dialect.

Two dialects are supported: postgres through github.com/lib/pq for server
deployments, and sqlite through modernc.org/sqlite for single node deployments
and unit tests. Queries are written with "?" placeholders and passed through
Rebind before execution.
*/
package csql

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // load database driver for postgres
	_ "modernc.org/sqlite" // load database driver for sqlite

	"github.com/huuvinhnguyen/alocoap/core/logger"
)

// Dialect is the SQL dialect of a database
type Dialect string

// all supported dialects
const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB encapsulates a standard sql.DB with a schema
type DB struct {
	*sql.DB
	Schema  string
	Dialect Dialect
}

// ErrNoRows is returned by Scan when QueryRow doesn't return a
// row. In such a case, QueryRow returns a placeholder *Row value that
// defers this error until a Scan.
var ErrNoRows = sql.ErrNoRows

// OpenWithSchema opens a postgres database with a schema.
// The schema gets created if it does not exist yet.
func OpenWithSchema(dataSourceName, password, schema string) *DB {
	logger.Default().Infoln("connecting to postgres database: ", dataSourceName)
	if len(password) > 0 {
		dataSourceName += " password=" + password
	}
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		panic(err)
	}
	err = db.Ping()
	if err != nil {
		panic(err)
	}
	if len(schema) == 0 {
		schema = "public"
	} else {
		logger.Default().Infoln("selected database schema:", schema)
		_, err = db.Exec(`CREATE schema IF NOT EXISTS ` + schema + `;`)
		if err != nil {
			panic(err)
		}
	}
	return &DB{DB: db, Schema: schema, Dialect: Postgres}
}

// OpenSQLite opens (or creates) a sqlite database at path. Use ":memory:" for
// a private in-memory database.
func OpenSQLite(path string) *DB {
	logger.Default().Infoln("opening sqlite database: ", path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		panic(err)
	}
	if path == ":memory:" {
		// every connection would get its own empty database otherwise
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		logger.Default().WithError(err).Warnln("could not set WAL mode")
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		logger.Default().WithError(err).Warnln("could not set busy timeout")
	}
	return &DB{DB: db, Dialect: SQLite}
}

// Table returns the qualified name of table
func (db *DB) Table(name string) string {
	if db.Dialect == Postgres {
		return db.Schema + `."` + name + `"`
	}
	return `"` + name + `"`
}

// Rebind replaces the "?" placeholders of query with the numbered placeholders
// postgres expects. For sqlite the query is returned unchanged.
func (db *DB) Rebind(query string) string {
	if db.Dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ClearSchema clears all the data contained in the database's schema
// Technically this is done by dropping the schema and then recreating it
func (db *DB) ClearSchema() {
	if db.Dialect != Postgres {
		panic("clear schema is only supported for postgres")
	}
	if db.Schema == "public" {
		panic("refuse to drop public schema")
	}
	_, err := db.Exec(`DROP SCHEMA ` + db.Schema + ` CASCADE;
	CREATE schema IF NOT EXISTS ` + db.Schema + `;`)
	if err != nil {
		logger.Default().WithError(err).Errorln("clear schema error:", db.Schema)
	}
}

// Timestamp is a time which is stored the same way in all dialects
type Timestamp time.Time

// timestamp layouts we may get back from a driver that returns text
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// timestampFormat has a fixed width, so text columns sort chronologically
const timestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Value implements driver.Valuer
func (t Timestamp) Value() (driver.Value, error) {
	return time.Time(t).UTC().Format(timestampFormat), nil
}

// Scan implements sql.Scanner
func (t *Timestamp) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*t = Timestamp(v.UTC())
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		*t = Timestamp(time.Time{})
		return nil
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (t *Timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			*t = Timestamp(v.UTC())
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}

// Time returns t as time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}
