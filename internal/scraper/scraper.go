package scraper

import (
	"context"
	"errors"
	"log/slog"

	"naokomik/pkg/models"
)

// Source is implemented by each external site. A source fetches its own
// markup and maps it into the canonical models; markup changes stay inside
// one Source implementation.
type Source interface {
	Name() string
	LatestManga(ctx context.Context, page int, tag string) (models.PaginatedResponse[models.Manga], error)
	SearchManga(ctx context.Context, query string, page int) (models.PaginatedResponse[models.Manga], error)
	MangaDetail(ctx context.Context, slug string) (models.MangaDetail, error)
	ChapterImages(ctx context.Context, slug string) (models.ChapterContent, error)
}

// Result is data plus the name of the source that produced it.
type Result[T any] struct {
	Data   T      `json:"data"`
	Source string `json:"source"`
}

// Observer receives one call per source attempt. metrics.Metrics implements it.
type Observer interface {
	ObserveAttempt(source, op string, err error)
	ObserveFailover(op, from string)
}

// Failover tries sources strictly in priority order: the next source is only
// asked after the previous one failed or returned invalid data. There are no
// retries within a source and results are never merged.
type Failover struct {
	sources  []Source
	log      *slog.Logger
	observer Observer
}

// NewFailover needs at least two sources, primary first.
func NewFailover(log *slog.Logger, primary, secondary Source, more ...Source) *Failover {
	if log == nil {
		log = slog.Default()
	}
	return &Failover{
		sources: append([]Source{primary, secondary}, more...),
		log:     log.With("component", "scraper"),
	}
}

// WithObserver reports every attempt to o.
func (f *Failover) WithObserver(o Observer) *Failover {
	f.observer = o
	return f
}

// Sources returns the sources in priority order.
func (f *Failover) Sources() []Source {
	return append([]Source(nil), f.sources...)
}

func (f *Failover) LatestManga(ctx context.Context, page int, tag string) (Result[models.PaginatedResponse[models.Manga]], error) {
	return run(ctx, f, "latest", func(s Source) (models.PaginatedResponse[models.Manga], error) {
		return s.LatestManga(ctx, page, tag)
	}, validateList)
}

func (f *Failover) SearchManga(ctx context.Context, query string, page int) (Result[models.PaginatedResponse[models.Manga]], error) {
	return run(ctx, f, "search", func(s Source) (models.PaginatedResponse[models.Manga], error) {
		return s.SearchManga(ctx, query, page)
	}, validateList)
}

func (f *Failover) MangaDetail(ctx context.Context, slug string) (Result[models.MangaDetail], error) {
	return run(ctx, f, "detail", func(s Source) (models.MangaDetail, error) {
		return s.MangaDetail(ctx, slug)
	}, validateDetail)
}

func (f *Failover) ChapterImages(ctx context.Context, slug string) (Result[models.ChapterContent], error) {
	return run(ctx, f, "chapter", func(s Source) (models.ChapterContent, error) {
		return s.ChapterImages(ctx, slug)
	}, validateChapter)
}

func run[T any](ctx context.Context, f *Failover, op string, call func(Source) (T, error), validate func(T) error) (Result[T], error) {
	var failed []Attempt
	for i, src := range f.sources {
		data, err := call(src)
		if err == nil {
			err = validate(data)
		}
		f.observe(src.Name(), op, err)
		if err == nil {
			return Result[T]{Data: data, Source: src.Name()}, nil
		}

		// The caller went away; asking the next source would be wasted load.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result[T]{}, errors.Join(ctxErr, err)
		}

		failed = append(failed, Attempt{Source: src.Name(), Err: err})
		if i+1 < len(f.sources) {
			next := f.sources[i+1].Name()
			f.log.Warn("source failed, falling back", "op", op, "source", src.Name(), "next", next, "error", err)
			if f.observer != nil {
				f.observer.ObserveFailover(op, src.Name())
			}
		}
	}

	ferr := &FailoverError{Op: op, Attempts: failed}
	f.log.Error("all sources failed", "op", op, "error", ferr)
	return Result[T]{}, ferr
}

func (f *Failover) observe(source, op string, err error) {
	if f.observer != nil {
		f.observer.ObserveAttempt(source, op, err)
	}
}
