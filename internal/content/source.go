package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Content errors. The API layer maps ErrDataUnavailable to 500 (the server
// is misconfigured, not the client) and ErrNotFound to 404.
var (
	ErrDataUnavailable = errors.New("content data unavailable")
	ErrNotFound        = errors.New("content item not found")
)

// Item is a single content entry. Entries are served to the client as-is;
// the only field the server interprets is the numeric "id".
type Item map[string]interface{}

// Source serves one static JSON content file holding an array of items.
// Files are small and read per request, so edits on disk show up without
// a restart.
type Source struct {
	name    string // used in error messages and logs
	path    string
	listKey string // key the item array is wrapped under in List responses
}

// NewSource returns a content source backed by the given JSON file.
func NewSource(name, path, listKey string) *Source {
	return &Source{name: name, path: path, listKey: listKey}
}

// Name returns the source name.
func (s *Source) Name() string { return s.name }

// ListKey returns the response key the item array is wrapped under.
func (s *Source) ListKey() string { return s.listKey }

func (s *Source) load() ([]Item, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s data file not found", ErrDataUnavailable, s.name)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: invalid %s data format", ErrDataUnavailable, s.name)
	}
	return items, nil
}

// List returns all items in file order.
func (s *Source) List() ([]Item, error) {
	return s.load()
}

// Get returns the item with the given numeric id.
func (s *Source) Get(id int) (Item, error) {
	items, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		// JSON numbers decode as float64
		if raw, ok := item["id"].(float64); ok && int(raw) == id {
			return item, nil
		}
	}
	return nil, fmt.Errorf("%w: %s id %d", ErrNotFound, s.name, id)
}
