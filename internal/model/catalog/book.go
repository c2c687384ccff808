package catalog

// OnlineLocation is the sentinel availability key for web stores. It matches any
// request for "online" regardless of capitalization or requested city.
const OnlineLocation = "Online"

// Book is an immutable catalog record. Title is the unique key, compared
// case- and accent-insensitively.
type Book struct {
	Title        string              `json:"title"`
	Author       string              `json:"author"`
	Imprint      string              `json:"imprint"`
	ReleaseDate  string              `json:"release_date"`
	Synopsis     string              `json:"synopsis"`
	Availability map[string][]string `json:"availability"`
}

// Location pairs an availability key with its ordered store list.
type Location struct {
	Name   string   `json:"name"`
	Stores []string `json:"stores"`
}
