package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aurora-press/editorial-assistant/internal/analysis/utterance"
	model "github.com/aurora-press/editorial-assistant/internal/model/catalog"
)

var (
	ErrNotFound  = errors.New("book not found in catalog")
	ErrAmbiguous = errors.New("multiple catalog matches")
	ErrNoStores  = errors.New("no stores registered for location")
)

// minSearchScore is the similarity floor below which a candidate is dropped.
const minSearchScore = 0.55

// Index is the read-only lookup structure over the book catalog. Built once at
// startup, it needs no synchronization afterwards.
type Index struct {
	books   []model.Book
	byTitle map[string]int
}

// New builds an index over the given books. Duplicate titles (compared case-
// and accent-insensitively) are rejected so bad catalogs fail at load time.
func New(books []model.Book) (*Index, error) {
	idx := &Index{
		books:   append([]model.Book(nil), books...),
		byTitle: make(map[string]int, len(books)),
	}
	for i, book := range idx.books {
		key := utterance.Normalize(book.Title)
		if key == "" {
			return nil, fmt.Errorf("catalog entry %d has an empty title", i)
		}
		if prev, ok := idx.byTitle[key]; ok {
			return nil, fmt.Errorf("duplicate catalog title %q (entries %d and %d)", book.Title, prev, i)
		}
		idx.byTitle[key] = i
	}
	return idx, nil
}

// Books returns the catalog in insertion order.
func (idx *Index) Books() []model.Book {
	return append([]model.Book(nil), idx.books...)
}

// Len returns the number of books in the catalog.
func (idx *Index) Len() int {
	return len(idx.books)
}

// FindByTitle looks up a book by exact title, ignoring case and accents.
func (idx *Index) FindByTitle(title string) (model.Book, error) {
	i, ok := idx.byTitle[utterance.Normalize(title)]
	if !ok {
		return model.Book{}, ErrNotFound
	}
	return idx.books[i], nil
}

// HasTitle reports whether the title resolves to a catalog entry. Session
// context uses this to re-validate its weak book reference.
func (idx *Index) HasTitle(title string) bool {
	_, ok := idx.byTitle[utterance.Normalize(title)]
	return ok
}

type scored struct {
	book  model.Book
	score float64
	order int
}

// Search returns candidate books for a partial or misspelled title, best
// match first. Ties keep catalog insertion order.
func (idx *Index) Search(partial string) []model.Book {
	return booksOf(idx.rank(partial))
}

// ResolveOne resolves a fuzzy title to exactly one book. It returns
// ErrAmbiguous when the two best candidates are equally ranked, and
// ErrNotFound when nothing scores above the similarity floor.
func (idx *Index) ResolveOne(partial string) (model.Book, error) {
	ranked := idx.rank(partial)
	switch {
	case len(ranked) == 0:
		return model.Book{}, ErrNotFound
	case len(ranked) > 1 && ranked[0].score == ranked[1].score:
		return model.Book{}, ErrAmbiguous
	}
	return ranked[0].book, nil
}

func (idx *Index) rank(partial string) []scored {
	needle := utterance.Normalize(partial)
	if needle == "" {
		return nil
	}

	var ranked []scored
	for i, book := range idx.books {
		key := utterance.Normalize(book.Title)
		score := similarity(needle, key)
		if score < minSearchScore {
			continue
		}
		ranked = append(ranked, scored{book: book, score: score, order: i})
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].score != ranked[b].score {
			return ranked[a].score > ranked[b].score
		}
		return ranked[a].order < ranked[b].order
	})
	return ranked
}

func booksOf(ranked []scored) []model.Book {
	if len(ranked) == 0 {
		return nil
	}
	books := make([]model.Book, len(ranked))
	for i, r := range ranked {
		books[i] = r.book
	}
	return books
}

// similarity scores two normalized strings: exact match, then prefix, then
// substring, then normalized edit distance.
func similarity(needle, key string) float64 {
	switch {
	case needle == key:
		return 1.0
	case strings.HasPrefix(key, needle):
		return 0.9
	case strings.Contains(key, needle):
		return 0.75
	}
	longest := len(key)
	if len(needle) > longest {
		longest = len(needle)
	}
	if longest == 0 {
		return 0
	}
	return 1.0 - float64(levenshtein(needle, key))/float64(longest)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// LocationsFor returns availability entries for a book. With an empty city it
// returns every location in a stable order: physical cities sorted
// alphabetically, the Online sentinel last. With a city it returns only the
// matching entry; "online" in any capitalization matches the Online sentinel.
// A book with no availability at all yields ErrNoStores.
func (idx *Index) LocationsFor(book model.Book, city string) ([]model.Location, error) {
	if len(book.Availability) == 0 {
		return nil, ErrNoStores
	}
	if city == "" {
		return allLocations(book), nil
	}

	wanted := utterance.CanonicalCity(city)
	if wanted == utterance.Normalize(model.OnlineLocation) {
		if stores, ok := book.Availability[model.OnlineLocation]; ok {
			return []model.Location{{Name: model.OnlineLocation, Stores: stores}}, nil
		}
		return nil, ErrNotFound
	}

	// Exact normalized match first, then the loose prefix/contains matching
	// the original city synonyms required ("sao" -> "sao paulo").
	if loc, ok := matchCity(book, wanted, func(key string) bool { return key == wanted }); ok {
		return []model.Location{loc}, nil
	}
	if loc, ok := matchCity(book, wanted, func(key string) bool {
		return strings.HasPrefix(key, wanted) || strings.HasPrefix(wanted, key) || strings.Contains(key, wanted)
	}); ok {
		return []model.Location{loc}, nil
	}
	return nil, ErrNotFound
}

// OnlineStores returns the Online availability entry, if any.
func (idx *Index) OnlineStores(book model.Book) []string {
	return book.Availability[model.OnlineLocation]
}

func matchCity(book model.Book, wanted string, match func(normalizedKey string) bool) (model.Location, bool) {
	keys := sortedCityKeys(book)
	for _, key := range keys {
		if match(utterance.Normalize(key)) {
			stores := book.Availability[key]
			if len(stores) == 0 {
				continue
			}
			return model.Location{Name: key, Stores: stores}, true
		}
	}
	return model.Location{}, false
}

func allLocations(book model.Book) []model.Location {
	keys := sortedCityKeys(book)
	locations := make([]model.Location, 0, len(book.Availability))
	for _, key := range keys {
		locations = append(locations, model.Location{Name: key, Stores: book.Availability[key]})
	}
	if stores, ok := book.Availability[model.OnlineLocation]; ok {
		locations = append(locations, model.Location{Name: model.OnlineLocation, Stores: stores})
	}
	return locations
}

func sortedCityKeys(book model.Book) []string {
	keys := make([]string, 0, len(book.Availability))
	for key := range book.Availability {
		if key == model.OnlineLocation {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool {
		return utterance.Normalize(keys[a]) < utterance.Normalize(keys[b])
	})
	return keys
}
