package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/qwwqe/morfsuite/fetcher"
	"github.com/qwwqe/morfsuite/logger"
	"github.com/qwwqe/morfsuite/repository"
	"github.com/qwwqe/morfsuite/tokenizer"
)

// EnvPrefix prefixes every environment variable that overrides the file.
const EnvPrefix = "MORFSUITE_"

const DefaultPath = "morfsuite.yaml"

type Config struct {
	Model       string `yaml:"model"`
	LexiconName string `yaml:"lexicon_name"`
	Language    string `yaml:"language"`
	NFC         bool   `yaml:"nfc"`
	Workers     int    `yaml:"workers"`

	Segmenter SegmenterConfig `yaml:"segmenter"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       logger.Config   `yaml:"log"`
	Fetch     FetchConfig     `yaml:"fetch"`

	MetricsAddr string `yaml:"metrics_addr"`
}

type SegmenterConfig struct {
	tokenizer.Options `yaml:",inline"`
	CacheSize         int `yaml:"cache_size"`
}

type DatabaseConfig struct {
	Driver                string `yaml:"driver"`
	DSN                   string `yaml:"dsn"`
	MaxOpenConns          int    `yaml:"max_open_conns"`
	RestoreRequestHistory bool   `yaml:"restore_request_history"`
	EnableCookies         bool   `yaml:"enable_cookies"`
}

type FetchConfig struct {
	Name          string            `yaml:"name"`
	Domains       []string          `yaml:"domains"`
	Selectors     fetcher.Selectors `yaml:"selectors"`
	UniversalTags []string          `yaml:"tags"`
	Language      string            `yaml:"language"`
	CacheDir      string            `yaml:"cache_dir"`

	MaxDepth     int    `yaml:"max_depth"`
	Async        bool   `yaml:"async"`
	Parallelism  int    `yaml:"parallelism"`
	ArticleLimit int    `yaml:"article_limit"`
	After        string `yaml:"after"`  // YYYY-MM-DD
	Before       string `yaml:"before"` // YYYY-MM-DD
}

func Default() *Config {
	return &Config{
		LexiconName: "default",
		Language:    "und",
		Workers:     4,
		Segmenter: SegmenterConfig{
			Options:   tokenizer.DefaultOptions(),
			CacheSize: 100_000,
		},
		Database: DatabaseConfig{
			Driver: repository.DriverSQLite,
			DSN:    "morfsuite.db",
		},
		Log: logger.DefaultConfig(),
		Fetch: FetchConfig{
			Selectors: fetcher.DefaultSelectors,
			MaxDepth:  2,
		},
	}
}

// LoadEnv reads .env files into the environment without replacing variables
// that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", file, err)
		}
	}
	return nil
}

// Load reads the YAML file at path over the defaults and applies MORFSUITE_*
// environment overrides. A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"MODEL":           &c.Model,
		"LEXICON_NAME":    &c.LexiconName,
		"LANGUAGE":        &c.Language,
		"JOINER":          &c.Segmenter.Joiner,
		"DB_DRIVER":       &c.Database.Driver,
		"DB_DSN":          &c.Database.DSN,
		"LOG_LEVEL":       &c.Log.Level,
		"LOG_FORMAT":      &c.Log.Format,
		"LOG_FILE":        &c.Log.File,
		"METRICS_ADDR":    &c.MetricsAddr,
		"FETCH_CACHE_DIR": &c.Fetch.CacheDir,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"BEAM":              &c.Segmenter.Beam,
		"NBEST":             &c.Segmenter.NBest,
		"MAXLEN":            &c.Segmenter.MaxLen,
		"CACHE_SIZE":        &c.Segmenter.CacheSize,
		"WORKERS":           &c.Workers,
		"DB_MAX_OPEN_CONNS": &c.Database.MaxOpenConns,
	}
	for name, dst := range ints {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	if v, ok := lookup(EnvPrefix + "ADDCOUNT"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("config: %sADDCOUNT: %w", EnvPrefix, err)
		}
		c.Segmenter.AddCount = f
	}

	if v, ok := lookup(EnvPrefix + "NFC"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %sNFC: %w", EnvPrefix, err)
		}
		c.NFC = b
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Segmenter.Validate(); err != nil {
		return fmt.Errorf("config: segmenter: %w", err)
	}
	if c.Segmenter.CacheSize < 0 {
		return fmt.Errorf("config: segmenter: cache_size must not be negative, got %d", c.Segmenter.CacheSize)
	}
	if _, err := c.LanguageTag(); err != nil {
		return err
	}
	if c.LexiconName == "" {
		return errors.New("config: lexicon_name must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	if _, _, err := c.Fetch.Window(); err != nil {
		return err
	}
	return nil
}

func (c *Config) LanguageTag() (language.Tag, error) {
	if c.Language == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.Und, fmt.Errorf("config: language %q: %w", c.Language, err)
	}
	return tag, nil
}

func (c *Config) RepositoryOptions() repository.RepositoryOptions {
	return repository.RepositoryOptions{
		Driver:                c.Database.Driver,
		DSN:                   c.Database.DSN,
		MaxOpenConns:          c.Database.MaxOpenConns,
		RestoreRequestHistory: c.Database.RestoreRequestHistory,
		EnableCookies:         c.Database.EnableCookies,
	}
}

// Window parses the after and before dates.
func (f FetchConfig) Window() (after, before time.Time, err error) {
	if f.After != "" {
		if after, err = time.Parse("2006-01-02", f.After); err != nil {
			return after, before, fmt.Errorf("config: fetch.after: %w", err)
		}
	}
	if f.Before != "" {
		if before, err = time.Parse("2006-01-02", f.Before); err != nil {
			return after, before, fmt.Errorf("config: fetch.before: %w", err)
		}
	}
	return after, before, nil
}

func (f FetchConfig) FetchOptions(departurePoint string) (fetcher.FetchOptions, error) {
	after, before, err := f.Window()
	if err != nil {
		return fetcher.FetchOptions{}, err
	}
	return fetcher.FetchOptions{
		ArticleLimit:   f.ArticleLimit,
		AfterTime:      after,
		BeforeTime:     before,
		DeparturePoint: departurePoint,
		MaxDepth:       f.MaxDepth,
		Async:          f.Async,
		Parallelism:    f.Parallelism,
	}, nil
}
