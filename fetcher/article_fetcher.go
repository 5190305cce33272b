package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
	"github.com/gocolly/colly/storage"
	"go.uber.org/zap"

	"github.com/qwwqe/morfsuite/content"
)

const DateFormat = "2006-01-02 15:04:05"

var (
	ErrNoTitle = errors.New("fetcher: article has no title")
	ErrNoBody  = errors.New("fetcher: article has no body")
)

// Selectors locate the parts of an article page. Meta selectors are read
// from the content attribute, the others from element text.
type Selectors struct {
	Article    string `yaml:"article"` // matches only on article pages
	Title      string `yaml:"title"`
	Date       string `yaml:"date"`
	Author     string `yaml:"author"`
	Abstract   string `yaml:"abstract"`
	Tags       string `yaml:"tags"`
	Body       string `yaml:"body"`
	BodyRemove string `yaml:"body_remove"`
}

// DefaultSelectors follow the Open Graph markup most news sites publish.
var DefaultSelectors = Selectors{
	Article:    `article`,
	Title:      `meta[property="og:title"]`,
	Date:       `meta[property="article:published_time"]`,
	Author:     `meta[name="author"]`,
	Abstract:   `meta[property="og:description"]`,
	Tags:       `meta[name="keywords"]`,
	Body:       `article`,
	BodyRemove: `script, style, figure, figcaption, .footnotes, .tags`,
}

// ArticleFetcher crawls one site and stores every article page it finds.
type ArticleFetcher struct {
	CanonName     string
	Domains       []string
	Selectors     Selectors
	UniversalTags []string
	Language      string
	CacheDir      string

	FetcherOptions *FetcherOptions

	mu         sync.Mutex
	successful int
}

func (f *ArticleFetcher) SetFetcherOptions(fetcherOptions *FetcherOptions) {
	f.FetcherOptions = fetcherOptions
}

func (f *ArticleFetcher) GetFetcherOptions() *FetcherOptions {
	return f.FetcherOptions
}

// Successful returns the number of articles stored by the last Fetch.
func (f *ArticleFetcher) Successful() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.successful
}

func (f *ArticleFetcher) Fetch(ctx context.Context, fetchOptions FetchOptions) error {
	if fetchOptions.DeparturePoint == "" {
		return errors.New("fetcher: no departure point")
	}
	if f.FetcherOptions == nil || f.FetcherOptions.Repository == nil {
		return errors.New("fetcher: no repository")
	}

	repo := f.FetcherOptions.Repository
	log := f.FetcherOptions.logger().With(zap.String("fetcher", f.CanonName))

	f.mu.Lock()
	f.successful = 0
	f.mu.Unlock()

	collectorOptions := []func(*colly.Collector){
		colly.IgnoreRobotsTxt(),
		colly.MaxDepth(fetchOptions.MaxDepth),
		colly.Async(fetchOptions.Async),
	}
	if len(f.Domains) > 0 {
		collectorOptions = append(collectorOptions, colly.AllowedDomains(f.Domains...))
	}
	if f.CacheDir != "" {
		collectorOptions = append(collectorOptions, colly.CacheDir(f.CacheDir))
	}
	c := colly.NewCollector(collectorOptions...)

	if fetchOptions.Parallelism > 1 {
		if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: fetchOptions.Parallelism}); err != nil {
			return fmt.Errorf("set limit: %w", err)
		}
	}

	if s, ok := repo.(storage.Storage); ok {
		if err := c.SetStorage(s); err != nil {
			return fmt.Errorf("set storage: %w", err)
		}
	}

	c.OnRequest(func(r *colly.Request) {
		log.Debug("visiting", zap.String("url", r.URL.String()))
	})

	c.OnResponse(func(r *colly.Response) {
		uri := r.Request.URL.String()

		if ctx.Err() != nil || f.limitReached(fetchOptions.ArticleLimit) {
			return
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			log.Warn("parse response body", zap.String("url", uri), zap.Error(err))
			return
		}

		if !f.IsArticle(doc) {
			return
		}

		articleDate := f.ArticleDate(doc)
		if !inRange(articleDate, fetchOptions.AfterTime, fetchOptions.BeforeTime) {
			return
		}

		fc, err := f.ProcessArticle(uri, doc)
		if err != nil {
			log.Info("skipped article", zap.String("url", uri), zap.Error(err))
			return
		}

		if _, err := repo.SaveContent(ctx, fc); err != nil {
			log.Error("save article", zap.String("url", uri), zap.Error(err))
			return
		}

		f.mu.Lock()
		f.successful++
		f.mu.Unlock()
		log.Info("stored article", zap.String("url", uri), zap.String("title", fc.Title))
	})

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if ctx.Err() != nil || f.limitReached(fetchOptions.ArticleLimit) {
			return
		}
		// Request.Visit resolves relative and scheme-relative links
		e.Request.Visit(e.Attr("href"))
	})

	c.OnError(func(r *colly.Response, err error) {
		log.Warn("request failed", zap.String("url", r.Request.URL.String()), zap.Error(err))
	})

	if err := c.Visit(fetchOptions.DeparturePoint); err != nil {
		return fmt.Errorf("visit %s: %w", fetchOptions.DeparturePoint, err)
	}
	c.Wait()

	log.Info("fetch finished", zap.Int("successful", f.Successful()))
	return ctx.Err()
}

func (f *ArticleFetcher) limitReached(limit int) bool {
	if limit <= 0 {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.successful >= limit
}

// inRange reports whether date lies strictly between after and before. Zero
// bounds are open.
func inRange(date, after, before time.Time) bool {
	if !before.IsZero() && !date.Before(before) {
		return false
	}
	if !after.IsZero() && !date.After(after) {
		return false
	}
	return true
}

func (f *ArticleFetcher) selectors() Selectors {
	if f.Selectors == (Selectors{}) {
		return DefaultSelectors
	}
	return f.Selectors
}

func (f *ArticleFetcher) IsArticle(doc *goquery.Document) bool {
	return doc.Find(f.selectors().Article).Length() > 0
}

// ProcessArticle extracts an article from doc. Title and body are required;
// the other fields fall back to defaults.
func (f *ArticleFetcher) ProcessArticle(uri string, doc *goquery.Document) (*content.FetchedContent, error) {
	fc := &content.FetchedContent{
		Uri:       uri,
		CanonName: f.CanonName,
		Language:  f.Language,
	}

	fc.Title = f.ArticleTitle(doc)
	if fc.Title == "" {
		return nil, ErrNoTitle
	}

	date := f.ArticleDate(doc)
	if date.IsZero() {
		fc.Date = time.Now().Format(DateFormat)
	} else {
		fc.Date = date.Format(DateFormat)
	}

	fc.Author = f.ArticleAuthor(doc)
	if fc.Author == "" {
		fc.Author = f.CanonName
	}

	fc.Abstract = f.ArticleAbstract(doc)
	if fc.Abstract == "" {
		fc.Abstract = fc.Title
	}

	fc.Tags = uniqueTags(append(f.ArticleTags(doc), f.UniversalTags...))

	fc.Body = f.ArticleBody(doc)
	if fc.Body == "" {
		return nil, ErrNoBody
	}

	return fc, nil
}

// Format:
// <meta property="og:title" content="..." />
// falling back to the document title.
func (f *ArticleFetcher) ArticleTitle(doc *goquery.Document) string {
	if title := selectionValue(doc.Find(f.selectors().Title)); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// Format:
// <meta property="article:published_time" content="2019-06-22T05:22:32+00:00" />
func (f *ArticleFetcher) ArticleDate(doc *goquery.Document) time.Time {
	raw := selectionValue(doc.Find(f.selectors().Date))
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, DateFormat, "2006-01-02"} {
		if date, err := time.Parse(layout, raw); err == nil {
			return date
		}
	}
	return time.Time{}
}

func (f *ArticleFetcher) ArticleAuthor(doc *goquery.Document) string {
	return selectionValue(doc.Find(f.selectors().Author))
}

func (f *ArticleFetcher) ArticleAbstract(doc *goquery.Document) string {
	return selectionValue(doc.Find(f.selectors().Abstract))
}

// Tags are comma separated:
// <meta name="keywords" content="politics, analysis" />
func (f *ArticleFetcher) ArticleTags(doc *goquery.Document) []string {
	tags := []string{}
	doc.Find(f.selectors().Tags).Each(func(_ int, s *goquery.Selection) {
		for _, tag := range strings.Split(nodeValue(s), ",") {
			if trimTag := strings.TrimSpace(tag); trimTag != "" {
				tags = append(tags, trimTag)
			}
		}
	})
	return tags
}

// ArticleBody returns the non-empty paragraphs and headings of the body,
// separated by blank lines.
func (f *ArticleFetcher) ArticleBody(doc *goquery.Document) string {
	sel := f.selectors()
	bodySelection := doc.Find(sel.Body).First()
	if bodySelection.Length() == 0 {
		return ""
	}

	if sel.BodyRemove != "" {
		bodySelection.Find(sel.BodyRemove).Remove()
	}

	paras := []string{}
	bodySelection.Find(`p, h1, h2, h3, h4, h5, h6`).Each(func(_ int, s *goquery.Selection) {
		if trimmedText := strings.TrimSpace(s.Text()); trimmedText != "" {
			paras = append(paras, trimmedText)
		}
	})

	return strings.Join(paras, "\n\n")
}

// selectionValue returns the value of the last matching node.
func selectionValue(s *goquery.Selection) string {
	var value string
	s.Each(func(_ int, node *goquery.Selection) {
		if v := nodeValue(node); v != "" {
			value = v
		}
	})
	return value
}

func nodeValue(s *goquery.Selection) string {
	if goquery.NodeName(s) == "meta" {
		v, _ := s.Attr("content")
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(s.Text())
}

func uniqueTags(tags []string) []string {
	seen := map[string]bool{}
	var unique []string
	for _, tag := range tags {
		if !seen[tag] {
			seen[tag] = true
			unique = append(unique, tag)
		}
	}
	return unique
}

var _ Fetcher = (*ArticleFetcher)(nil)
