package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/qwwqe/morfsuite/content"
)

const articlePage = `<!DOCTYPE html>
<html>
<head>
<title>Fallback title</title>
<meta property="og:title" content="Unhappyness in the city" />
<meta property="og:description" content="A short abstract." />
<meta property="article:published_time" content="2019-06-22T05:22:32+00:00" />
<meta name="author" content="Someone" />
<meta name="keywords" content="politics, analysis, , politics" />
</head>
<body>
<a href="/other">other</a>
<article>
<h2>Heading</h2>
<p>First paragraph.</p>
<figure><p>caption</p></figure>
<p>   </p>
<p>Second paragraph.</p>
</article>
</body>
</html>`

const indexPage = `<!DOCTYPE html>
<html><head><title>Index</title></head>
<body>
<a href="/article">article</a>
<a href="/plain">plain</a>
</body>
</html>`

const plainPage = `<!DOCTYPE html><html><head><title>Plain</title></head><body><p>no article here</p></body></html>`

func mustDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("NewDocumentFromReader() error = %v", err)
	}
	return doc
}

func TestProcessArticle(t *testing.T) {
	f := &ArticleFetcher{CanonName: "example", Language: "en", UniversalTags: []string{"news", "analysis"}}

	fc, err := f.ProcessArticle("https://example.com/a", mustDocument(t, articlePage))
	if err != nil {
		t.Fatalf("ProcessArticle() error = %v", err)
	}

	if fc.Title != "Unhappyness in the city" {
		t.Errorf("Title = %q; want %q", fc.Title, "Unhappyness in the city")
	}
	if fc.Date != "2019-06-22 05:22:32" {
		t.Errorf("Date = %q; want %q", fc.Date, "2019-06-22 05:22:32")
	}
	if fc.Author != "Someone" {
		t.Errorf("Author = %q; want %q", fc.Author, "Someone")
	}
	if fc.Abstract != "A short abstract." {
		t.Errorf("Abstract = %q; want %q", fc.Abstract, "A short abstract.")
	}
	if got := strings.Join(fc.Tags, ","); got != "politics,analysis,news" {
		t.Errorf("Tags = %q; want %q", got, "politics,analysis,news")
	}
	if want := "Heading\n\nFirst paragraph.\n\nSecond paragraph."; fc.Body != want {
		t.Errorf("Body = %q; want %q", fc.Body, want)
	}
	if fc.CanonName != "example" || fc.Language != "en" || fc.Uri != "https://example.com/a" {
		t.Errorf("ProcessArticle() = %+v", fc)
	}
}

func TestProcessArticleDefaults(t *testing.T) {
	f := &ArticleFetcher{CanonName: "example"}
	html := `<html><head><title> Only a title </title></head><body><article><p>Body.</p></article></body></html>`

	fc, err := f.ProcessArticle("https://example.com/b", mustDocument(t, html))
	if err != nil {
		t.Fatalf("ProcessArticle() error = %v", err)
	}
	if fc.Title != "Only a title" {
		t.Errorf("Title = %q; want %q", fc.Title, "Only a title")
	}
	if fc.Author != "example" {
		t.Errorf("Author = %q; want canon name", fc.Author)
	}
	if fc.Abstract != fc.Title {
		t.Errorf("Abstract = %q; want title", fc.Abstract)
	}
	if fc.Date == "" {
		t.Errorf("Date is empty; want fetch time")
	}
}

func TestProcessArticleErrors(t *testing.T) {
	f := &ArticleFetcher{}

	if _, err := f.ProcessArticle("u", mustDocument(t, `<html><body><article><p>x</p></article></body></html>`)); err != ErrNoTitle {
		t.Errorf("ProcessArticle(no title) error = %v; want %v", err, ErrNoTitle)
	}
	if _, err := f.ProcessArticle("u", mustDocument(t, `<html><head><title>t</title></head><body><article></article></body></html>`)); err != ErrNoBody {
		t.Errorf("ProcessArticle(no body) error = %v; want %v", err, ErrNoBody)
	}
}

func TestIsArticle(t *testing.T) {
	f := &ArticleFetcher{}
	if !f.IsArticle(mustDocument(t, articlePage)) {
		t.Errorf("IsArticle(articlePage) = false; want true")
	}
	if f.IsArticle(mustDocument(t, plainPage)) {
		t.Errorf("IsArticle(plainPage) = true; want false")
	}
}

func TestInRange(t *testing.T) {
	date := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	before := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		after, before time.Time
		want          bool
	}{
		{time.Time{}, time.Time{}, true},
		{after, before, true},
		{time.Time{}, after, false},
		{before, time.Time{}, false},
		{date, time.Time{}, false},
		{time.Time{}, date, false},
	}
	for _, tt := range tests {
		if got := inRange(date, tt.after, tt.before); got != tt.want {
			t.Errorf("inRange(%v, %v, %v) = %v; want %v", date, tt.after, tt.before, got, tt.want)
		}
	}
}

type memorySink struct {
	mu       sync.Mutex
	contents []*content.FetchedContent
}

func (s *memorySink) SaveContent(_ context.Context, c *content.FetchedContent) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contents = append(s.contents, c)
	c.Id = len(s.contents)
	return c.Id, nil
}

func newTestServer() *httptest.Server {
	pages := map[string]string{
		"/":        indexPage,
		"/article": articlePage,
		"/plain":   plainPage,
		"/other":   plainPage,
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	}))
}

func TestFetch(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	sink := &memorySink{}
	f := &ArticleFetcher{CanonName: "test"}
	f.SetFetcherOptions(&FetcherOptions{Repository: sink})

	if err := f.Fetch(context.Background(), FetchOptions{DeparturePoint: server.URL + "/", MaxDepth: 3}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if got := f.Successful(); got != 1 {
		t.Errorf("Successful() = %d; want 1", got)
	}
	if len(sink.contents) != 1 {
		t.Fatalf("stored %d articles; want 1", len(sink.contents))
	}
	if got, want := sink.contents[0].Uri, server.URL+"/article"; got != want {
		t.Errorf("stored Uri = %q; want %q", got, want)
	}
}

func TestFetchDateFilter(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	sink := &memorySink{}
	f := &ArticleFetcher{CanonName: "test"}
	f.SetFetcherOptions(&FetcherOptions{Repository: sink})

	options := FetchOptions{
		DeparturePoint: server.URL + "/",
		AfterTime:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := f.Fetch(context.Background(), options); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(sink.contents) != 0 {
		t.Errorf("stored %d articles; want 0", len(sink.contents))
	}
}

func TestFetchRequiresOptions(t *testing.T) {
	f := &ArticleFetcher{}
	if err := f.Fetch(context.Background(), FetchOptions{DeparturePoint: "http://example.com"}); err == nil {
		t.Errorf("Fetch() without repository error = nil; want error")
	}

	f.SetFetcherOptions(&FetcherOptions{Repository: &memorySink{}})
	if err := f.Fetch(context.Background(), FetchOptions{}); err == nil {
		t.Errorf("Fetch() without departure point error = nil; want error")
	}
}
