package fetcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/qwwqe/morfsuite/content"
)

type Fetcher interface {
	Fetch(ctx context.Context, options FetchOptions) error
	SetFetcherOptions(options *FetcherOptions)
	GetFetcherOptions() *FetcherOptions
}

type FetchOptions struct {
	ArticleLimit int
	BeforeTime   time.Time
	AfterTime    time.Time

	DeparturePoint string // starting url

	MaxDepth    int
	Async       bool
	Parallelism int
}

// ContentSink receives every article a fetcher extracts. The repository is
// the usual sink; when it also implements colly's storage.Storage it keeps
// the request history between runs.
type ContentSink interface {
	SaveContent(ctx context.Context, c *content.FetchedContent) (int, error)
}

type FetcherOptions struct {
	Repository ContentSink
	Logger     *zap.Logger
}

func (o *FetcherOptions) logger() *zap.Logger {
	if o == nil || o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
