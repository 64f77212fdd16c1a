package songs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/huuvinhnguyen/alocoap/core/csql"
)

// ErrNotFound is returned when a song does not exist
var ErrNotFound = errors.New("song not found")

// Store persists songs
type Store struct {
	db    *csql.DB
	table string
	now   func() time.Time
}

// NewStore returns a new store and creates the song table if it does not exist
func NewStore(db *csql.DB) *Store {
	if db == nil {
		panic("DB is missing")
	}
	s := &Store{db: db, table: db.Table("song"), now: time.Now}
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
			song_id UUID PRIMARY KEY,
			document JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`
	default:
		ddl = `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			song_id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`
	}
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("cannot create song table: %w", err)
	}
	return nil
}

func marshalFields(fields map[string]json.RawMessage) (string, error) {
	doc := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		if k == propertyID || k == propertyCreateDate {
			continue
		}
		doc[k] = v
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("cannot marshal song: %w", err)
	}
	return string(data), nil
}

// Create stores a new song with a new ID and the current time as create date
func (s *Store) Create(ctx context.Context, fields map[string]json.RawMessage) (Song, error) {
	document, err := marshalFields(fields)
	if err != nil {
		return Song{}, err
	}
	song := Song{
		ID:         uuid.New(),
		CreateDate: s.now().UTC(),
	}
	song.Fields, _ = parseFields([]byte(document))

	_, err = s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO `+s.table+` (song_id, document, created_at) VALUES (?, ?, ?);`),
		song.ID.String(), document, csql.Timestamp(song.CreateDate))
	if err != nil {
		return Song{}, fmt.Errorf("cannot insert song: %w", err)
	}
	return song, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSong(row scanner) (Song, error) {
	var (
		id        string
		document  []byte
		createdAt csql.Timestamp
	)
	if err := row.Scan(&id, &document, &createdAt); err != nil {
		return Song{}, err
	}
	songID, err := uuid.Parse(id)
	if err != nil {
		return Song{}, fmt.Errorf("invalid song id %q: %w", id, err)
	}
	fields, err := parseFields(document)
	if err != nil {
		return Song{}, fmt.Errorf("invalid document of song %s: %w", id, err)
	}
	return Song{ID: songID, CreateDate: createdAt.Time(), Fields: fields}, nil
}

// List returns all songs in creation order
func (s *Store) List(ctx context.Context) ([]Song, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT song_id, document, created_at FROM `+s.table+` ORDER BY created_at, song_id;`)
	if err != nil {
		return nil, fmt.Errorf("cannot query songs: %w", err)
	}
	defer rows.Close()

	songs := []Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cannot iterate songs: %w", err)
	}
	return songs, nil
}

// Get returns the song with the given id, or ErrNotFound
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Song, error) {
	row := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT song_id, document, created_at FROM `+s.table+` WHERE song_id = ?;`),
		id.String())
	song, err := scanSong(row)
	if errors.Is(err, csql.ErrNoRows) {
		return Song{}, ErrNotFound
	}
	if err != nil {
		return Song{}, fmt.Errorf("cannot get song: %w", err)
	}
	return song, nil
}

// Update replaces the document of a song. ID and create date stay as they are.
func (s *Store) Update(ctx context.Context, id uuid.UUID, fields map[string]json.RawMessage) error {
	document, err := marshalFields(fields)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE `+s.table+` SET document = ? WHERE song_id = ?;`),
		document, id.String())
	if err != nil {
		return fmt.Errorf("cannot update song: %w", err)
	}
	return affectedOne(res.RowsAffected())
}

// Delete deletes a song
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM `+s.table+` WHERE song_id = ?;`),
		id.String())
	if err != nil {
		return fmt.Errorf("cannot delete song: %w", err)
	}
	return affectedOne(res.RowsAffected())
}

func affectedOne(count int64, err error) error {
	if err != nil {
		return fmt.Errorf("cannot get affected rows: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
