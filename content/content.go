package content

import "strings"

// FetchedContent is an article collected by a fetcher, as stored in the
// repository.
type FetchedContent struct {
	Id        int      `json:"id"`
	Title     string   `json:"title"`
	Date      string   `json:"date"`
	Author    string   `json:"author"`
	Abstract  string   `json:"abstract"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags,omitempty"`
	CanonName string   `json:"canon_name"`
	Uri       string   `json:"uri"`
	Language  string   `json:"language,omitempty"`
}

// Text returns the title and body, the parts of an article that get segmented.
func (c *FetchedContent) Text() string {
	if c.Title == "" {
		return c.Body
	}
	return strings.Join([]string{c.Title, c.Body}, "\n\n")
}
