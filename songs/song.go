package songs

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// reserved properties, managed by the server
const (
	propertyID         = "_id"
	propertyCreateDate = "createDate"
)

// Song is a song document
type Song struct {
	ID         uuid.UUID
	CreateDate time.Time
	// Fields are all other properties of the document
	Fields map[string]json.RawMessage
}

// MarshalJSON returns the document with the reserved properties merged in
func (s Song) MarshalJSON() ([]byte, error) {
	doc := make(map[string]interface{}, len(s.Fields)+2)
	for k, v := range s.Fields {
		doc[k] = v
	}
	doc[propertyID] = s.ID.String()
	doc[propertyCreateDate] = s.CreateDate.UTC().Format(time.RFC3339Nano)
	return json.Marshal(doc)
}

// UnmarshalJSON parses a document
func (s *Song) UnmarshalJSON(data []byte) error {
	fields, err := parseFields(data)
	if err != nil {
		return err
	}
	song := Song{Fields: fields}
	if raw, ok := fields[propertyID]; ok {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return fmt.Errorf("invalid %s: %w", propertyID, err)
		}
		if song.ID, err = uuid.Parse(id); err != nil {
			return fmt.Errorf("invalid %s: %w", propertyID, err)
		}
	}
	if raw, ok := fields[propertyCreateDate]; ok {
		if err := json.Unmarshal(raw, &song.CreateDate); err != nil {
			return fmt.Errorf("invalid %s: %w", propertyCreateDate, err)
		}
	}
	delete(fields, propertyID)
	delete(fields, propertyCreateDate)
	*s = song
	return nil
}

// parseFields parses a JSON object into its properties
func parseFields(data []byte) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Get returns the raw value of a property
func (s Song) Get(key string) (json.RawMessage, bool) {
	v, ok := s.Fields[key]
	return v, ok
}
