package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/huuvinhnguyen/alocoap/core/csql"
	"github.com/huuvinhnguyen/alocoap/iot"
)

// ErrNotFound is returned when a device has no readings
var ErrNotFound = errors.New("no reading found")

// Store persists readings
type Store struct {
	db    *csql.DB
	table string
}

// NewStore returns a new store and creates the reading table if it does not exist
func NewStore(db *csql.DB) *Store {
	if db == nil {
		panic("DB is missing")
	}
	s := &Store{db: db, table: db.Table("reading")}
	if err := s.createTable(); err != nil {
		panic(err)
	}
	return s
}

func (s *Store) createTable() error {
	var ddl string
	switch s.db.Dialect {
	case csql.Postgres:
		ddl = `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			reading_id BIGSERIAL PRIMARY KEY,
			device_id VARCHAR NOT NULL,
			temperature DOUBLE PRECISION NOT NULL,
			humidity DOUBLE PRECISION NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS reading_device_recorded_at ON ` + s.table + `(device_id, recorded_at DESC);`
	default:
		ddl = `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			reading_id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id TEXT NOT NULL,
			temperature REAL NOT NULL,
			humidity REAL NOT NULL,
			recorded_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS reading_device_recorded_at ON ` + s.table + `(device_id, recorded_at DESC);`
	}
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("cannot create reading table: %w", err)
	}
	return nil
}

// HandleReading implements iot.ReadingSink
func (s *Store) HandleReading(ctx context.Context, reading iot.Reading) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO `+s.table+` (device_id, temperature, humidity, recorded_at) VALUES (?, ?, ?, ?);`),
		reading.DeviceID, reading.Temperature, reading.Humidity, csql.Timestamp(reading.Timestamp))
	if err != nil {
		return fmt.Errorf("cannot insert reading: %w", err)
	}
	return nil
}

// List returns up to limit readings of a device, newest first
func (s *Store) List(ctx context.Context, deviceID string, limit int) ([]iot.Reading, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind(`SELECT device_id, temperature, humidity, recorded_at FROM `+s.table+`
		WHERE device_id = ? ORDER BY recorded_at DESC, reading_id DESC LIMIT ?;`),
		deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("cannot query readings: %w", err)
	}
	defer rows.Close()

	readings := []iot.Reading{}
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cannot iterate readings: %w", err)
	}
	return readings, nil
}

// Latest returns the newest reading of a device, or ErrNotFound
func (s *Store) Latest(ctx context.Context, deviceID string) (iot.Reading, error) {
	row := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT device_id, temperature, humidity, recorded_at FROM `+s.table+`
		WHERE device_id = ? ORDER BY recorded_at DESC, reading_id DESC LIMIT 1;`),
		deviceID)
	reading, err := scanReading(row)
	if errors.Is(err, csql.ErrNoRows) {
		return iot.Reading{}, ErrNotFound
	}
	return reading, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReading(row scanner) (iot.Reading, error) {
	var (
		reading    iot.Reading
		recordedAt csql.Timestamp
	)
	err := row.Scan(&reading.DeviceID, &reading.Temperature, &reading.Humidity, &recordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return reading, err
	}
	if err != nil {
		return reading, fmt.Errorf("cannot scan reading: %w", err)
	}
	reading.Timestamp = recordedAt.Time()
	return reading, nil
}
