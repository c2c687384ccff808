package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	model "github.com/aurora-press/editorial-assistant/internal/model/catalog"
)

// Load reads a catalog document from disk and builds the index. Two layouts
// are accepted: a bare book list, or an object with a "books" key. Any
// malformed entry aborts the load; the caller treats that as fatal.
func Load(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	books, err := parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	idx, err := New(books)
	if err != nil {
		return nil, fmt.Errorf("index catalog %s: %w", path, err)
	}
	return idx, nil
}

func parse(raw []byte) ([]model.Book, error) {
	var wrapped struct {
		Books []model.Book `json:"books"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Books != nil {
		return wrapped.Books, nil
	}

	var books []model.Book
	if err := json.Unmarshal(raw, &books); err != nil {
		return nil, fmt.Errorf("expected a book list or an object with a \"books\" key: %w", err)
	}
	return books, nil
}
