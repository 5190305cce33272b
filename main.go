package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/qwwqe/morfsuite/config"
	"github.com/qwwqe/morfsuite/content"
	"github.com/qwwqe/morfsuite/entities/corpus"
	"github.com/qwwqe/morfsuite/fetcher"
	"github.com/qwwqe/morfsuite/lexicon"
	"github.com/qwwqe/morfsuite/logger"
	"github.com/qwwqe/morfsuite/repository"
	"github.com/qwwqe/morfsuite/tokenizer/morfessor"
)

var usage = `Usage: morfsuite [flags] <poplex | segment | tokenize | fetch> [args]

  poplex <model file>              store a Morfessor model in the repository
  segment                          segment stdin line by line
  tokenize <content_id | tag:name> segment stored content and record the run
  fetch <url>                      crawl a site and store its articles

Flags:
`

type segmenter interface {
	Segment(word string) []corpus.Segmentation
	Tokenize(text string) ([]*corpus.Word, error)
}

type cli struct {
	cfg *config.Config
	log *zap.Logger

	stdin  io.Reader
	stdout io.Writer
}

func main() {
	flags := flag.NewFlagSet("morfsuite", flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprint(flags.Output(), usage)
		flags.PrintDefaults()
	}

	configPath := flags.String("config", config.DefaultPath, "configuration file")
	model := flags.String("model", "", "Morfessor model file; the repository lexicon is used when empty")
	joiner := flags.String("joiner", "", "string placed between subwords")
	addCount := flags.Float64("addcount", 0, "additive smoothing constant for unknown subwords")
	maxLen := flags.Int("maxlen", 0, "maximum subword length in codepoints, 0 for no limit")
	nbest := flags.Int("nbest", 0, "print the n best segmentations with their costs")
	beam := flags.Int("beam", 0, "expansions kept per span, 0 for no pruning")
	nfc := flags.Bool("nfc", false, "NFC-normalize input before segmenting")
	cpuProfile := flags.String("cpuprofile", "", "write a CPU profile to file")
	memProfile := flags.String("memprofile", "", "write a heap profile to file")
	verbose := flags.Bool("v", false, "log at debug level")
	flags.Parse(os.Args[1:])

	if flags.NArg() == 0 {
		flags.Usage()
		os.Exit(0)
	}

	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// flags given on the command line win over file and environment
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			cfg.Model = *model
		case "joiner":
			cfg.Segmenter.Joiner = *joiner
		case "addcount":
			cfg.Segmenter.AddCount = *addCount
		case "maxlen":
			cfg.Segmenter.MaxLen = *maxLen
		case "nbest":
			cfg.Segmenter.NBest = *nbest
		case "beam":
			cfg.Segmenter.Beam = *beam
		case "nfc":
			cfg.NFC = *nfc
		case "v":
			if *verbose {
				cfg.Log.Level = "debug"
			}
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal("could not create CPU profile", zap.Error(err))
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile", zap.Error(err))
		}
		defer pprof.StopCPUProfile()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		server := serveMetrics(cfg.MetricsAddr, log)
		defer server.Shutdown(context.Background())
	}

	c := &cli{cfg: cfg, log: log, stdin: os.Stdin, stdout: os.Stdout}
	args := flags.Args()

	switch args[0] {
	case "poplex":
		if len(args) < 2 {
			flags.Usage()
			os.Exit(1)
		}
		err = c.poplex(ctx, args[1])
	case "segment":
		err = c.segment(ctx)
	case "tokenize":
		if len(args) < 2 {
			flags.Usage()
			os.Exit(1)
		}
		err = c.tokenize(ctx, args[1])
	case "fetch":
		if len(args) < 2 {
			flags.Usage()
			os.Exit(1)
		}
		err = c.fetch(ctx, args[1])
	default:
		flags.Usage()
		os.Exit(1)
	}

	if err != nil {
		log.Error(args[0]+" failed", zap.Error(err))
		// deferred profile writers are skipped by os.Exit
		pprof.StopCPUProfile()
		log.Sync()
		os.Exit(1)
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Fatal("could not create memory profile", zap.Error(err))
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal("could not write memory profile", zap.Error(err))
		}
	}
}

func serveMetrics(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr))
	return server
}

func (c *cli) openRepository(ctx context.Context) (*repository.Repository, error) {
	options := c.cfg.RepositoryOptions()
	options.Logger = c.log.Named("repository")
	return repository.Open(ctx, options)
}

func (c *cli) poplex(ctx context.Context, path string) error {
	tag, err := c.cfg.LanguageTag()
	if err != nil {
		return err
	}

	m, err := lexicon.Load(path, lexicon.WithName(c.cfg.LexiconName), lexicon.WithLanguage(tag))
	if err != nil {
		return err
	}

	repo, err := c.openRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.SaveLexicon(ctx, m); err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "Lexicon %q has %d entries.\n", m.Name(), m.NumEntries())
	return nil
}

// loadLexicon reads the model file when one is configured and the stored
// lexicon otherwise.
func (c *cli) loadLexicon(ctx context.Context, repo *repository.Repository) (*lexicon.Model, error) {
	if c.cfg.Model != "" {
		tag, err := c.cfg.LanguageTag()
		if err != nil {
			return nil, err
		}
		return lexicon.Load(c.cfg.Model, lexicon.WithName(c.cfg.LexiconName), lexicon.WithLanguage(tag))
	}

	if repo == nil {
		var err error
		if repo, err = c.openRepository(ctx); err != nil {
			return nil, err
		}
		defer repo.Close()
	}
	return repo.LoadLexicon(ctx, c.cfg.LexiconName)
}

func (c *cli) newSegmenter(lex lexicon.Lexicon) segmenter {
	options := c.cfg.Segmenter.Options
	seg := morfessor.NewSegmenter(lex, &options, morfessor.WithLogger(c.log.Named("segmenter")))
	if c.cfg.Segmenter.CacheSize == 0 {
		return seg
	}
	return morfessor.NewCachedSegmenter(seg, c.cfg.Segmenter.CacheSize)
}

func (c *cli) normalize(text string) string {
	if c.cfg.NFC {
		return norm.NFC.String(text)
	}
	return text
}

func (c *cli) segment(ctx context.Context) error {
	m, err := c.loadLexicon(ctx, nil)
	if err != nil {
		return err
	}
	c.log.Info("lexicon loaded",
		zap.String("lexicon", m.Name()),
		zap.Int("entries", m.NumEntries()),
		zap.Int("subwords", m.NumSubwords()),
	)
	seg := c.newSegmenter(m)

	scanner := bufio.NewScanner(c.stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	out := bufio.NewWriter(c.stdout)
	defer out.Flush()

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := c.normalize(scanner.Text())
		if !utf8.ValidString(line) {
			c.log.Warn("skipping line with invalid UTF-8")
			fmt.Fprintln(out)
			continue
		}

		if c.cfg.Segmenter.NBest > 0 {
			writeNBest(out, seg, line)
			continue
		}

		words := strings.Fields(line)
		for i, word := range words {
			if i > 0 {
				out.WriteByte(' ')
			}
			out.WriteString(seg.Segment(word)[0].Text)
		}
		out.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func writeNBest(out *bufio.Writer, seg segmenter, line string) {
	for _, word := range strings.Fields(line) {
		for _, s := range seg.Segment(word) {
			fmt.Fprintf(out, "%s\t%s\n", strconv.FormatFloat(s.Cost, 'f', 6, 64), s.Text)
		}
	}
	out.WriteByte('\n')
}

func (c *cli) tokenize(ctx context.Context, target string) error {
	repo, err := c.openRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	var contents []*content.FetchedContent
	if tag, ok := strings.CutPrefix(target, "tag:"); ok {
		if contents, err = repo.GetFetchedContentByTag(ctx, tag); err != nil {
			return err
		}
	} else {
		id, err := strconv.Atoi(target)
		if err != nil {
			return fmt.Errorf("content id %q: %w", target, err)
		}
		fc, err := repo.GetFetchedContent(ctx, id)
		if err != nil {
			return err
		}
		contents = append(contents, fc)
	}

	m, err := c.loadLexicon(ctx, repo)
	if err != nil {
		return err
	}
	seg := c.newSegmenter(m)

	runs := make([]string, len(contents))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for i, fc := range contents {
		i, fc := i, fc
		g.Go(func() error {
			words, err := seg.Tokenize(c.normalize(fc.Text()))
			if err != nil {
				return fmt.Errorf("tokenize content %d: %w", fc.Id, err)
			}
			runs[i], err = repo.RegisterSegmentations(ctx, fc.Id, m.Name(), c.cfg.Segmenter.Options, words)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, fc := range contents {
		fmt.Fprintf(c.stdout, "%d\t%s\n", fc.Id, runs[i])
	}
	return nil
}

func (c *cli) fetch(ctx context.Context, departurePoint string) error {
	fetchOptions, err := c.cfg.Fetch.FetchOptions(departurePoint)
	if err != nil {
		return err
	}

	repo, err := c.openRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	fc := c.cfg.Fetch
	f := &fetcher.ArticleFetcher{
		CanonName:     fc.Name,
		Domains:       fc.Domains,
		Selectors:     fc.Selectors,
		UniversalTags: fc.UniversalTags,
		Language:      fc.Language,
		CacheDir:      fc.CacheDir,
	}
	if f.Language == "" {
		f.Language = c.cfg.Language
	}
	f.SetFetcherOptions(&fetcher.FetcherOptions{
		Repository: repo,
		Logger:     c.log.Named("fetcher"),
	})

	if err := f.Fetch(ctx, fetchOptions); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Stored %d articles.\n", f.Successful())
	return nil
}
