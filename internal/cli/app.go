// Package cli holds the operator commands: they call the sources directly,
// without the HTTP layer, to check what each site currently returns.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"naokomik/internal/manga"
	"naokomik/internal/proxy"
	"naokomik/internal/scraper"
	"naokomik/pkg/models"
)

// SourceAuto routes through the failover orchestrator.
const SourceAuto = "auto"

type App struct {
	Out io.Writer
	Log *slog.Logger
	// Sources in priority order; at least two for SourceAuto.
	Sources []scraper.Source
	Allow   *proxy.Allowlist

	source  string
	jsonOut bool
	noColor bool

	title *color.Color
	label *color.Color
	ok    *color.Color
	bad   *color.Color
	dim   *color.Color
}

func NewApp(out io.Writer, log *slog.Logger, allow *proxy.Allowlist, sources ...scraper.Source) *App {
	return &App{Out: out, Log: log, Sources: sources, Allow: allow, source: SourceAuto}
}

func (a *App) initStyles() {
	if a.noColor {
		color.NoColor = true
	}
	a.title = color.New(color.Bold, color.FgCyan)
	a.label = color.New(color.FgHiBlue)
	a.ok = color.New(color.FgGreen)
	a.bad = color.New(color.FgRed)
	a.dim = color.New(color.FgHiBlack)
}

// backend resolves --source into something shaped like the orchestrator.
func (a *App) backend() (manga.Aggregator, error) {
	if a.source == "" || a.source == SourceAuto {
		if len(a.Sources) < 2 {
			return nil, fmt.Errorf("auto needs two sources, have %d", len(a.Sources))
		}
		return scraper.NewFailover(a.Log, a.Sources[0], a.Sources[1], a.Sources[2:]...), nil
	}
	var names []string
	for _, s := range a.Sources {
		if s.Name() == a.source {
			return single{s}, nil
		}
		names = append(names, s.Name())
	}
	return nil, fmt.Errorf("unknown source %q (have %s, %s)", a.source, SourceAuto, strings.Join(names, ", "))
}

// single is one source without fallback or validation.
type single struct{ src scraper.Source }

func (s single) LatestManga(ctx context.Context, page int, tag string) (scraper.Result[models.PaginatedResponse[models.Manga]], error) {
	d, err := s.src.LatestManga(ctx, page, tag)
	return scraper.Result[models.PaginatedResponse[models.Manga]]{Data: d, Source: s.src.Name()}, err
}

func (s single) SearchManga(ctx context.Context, q string, page int) (scraper.Result[models.PaginatedResponse[models.Manga]], error) {
	d, err := s.src.SearchManga(ctx, q, page)
	return scraper.Result[models.PaginatedResponse[models.Manga]]{Data: d, Source: s.src.Name()}, err
}

func (s single) MangaDetail(ctx context.Context, slug string) (scraper.Result[models.MangaDetail], error) {
	d, err := s.src.MangaDetail(ctx, slug)
	return scraper.Result[models.MangaDetail]{Data: d, Source: s.src.Name()}, err
}

func (s single) ChapterImages(ctx context.Context, slug string) (scraper.Result[models.ChapterContent], error) {
	d, err := s.src.ChapterImages(ctx, slug)
	return scraper.Result[models.ChapterContent]{Data: d, Source: s.src.Name()}, err
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) printTable(headers []string, rows [][]string) error {
	table := tablewriter.NewTable(a.Out)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Header.Alignment.Global = tw.AlignLeft
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func (a *App) printField(name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(a.Out, "%s %s\n", a.label.Sprintf("%-10s", name+":"), value)
}

func (a *App) printSource(source string) {
	fmt.Fprintln(a.Out, a.dim.Sprint("source: "+source))
}

func (a *App) printPage(p models.PaginatedResponse[models.Manga], source string) error {
	rows := make([][]string, 0, len(p.Data))
	for _, m := range p.Data {
		rows = append(rows, []string{m.Title, m.Slug, m.LatestChapter, m.Type, m.Rating})
	}
	if err := a.printTable([]string{"Title", "Slug", "Latest", "Type", "Rating"}, rows); err != nil {
		return err
	}
	footer := fmt.Sprintf("page %d", p.CurrentPage)
	if p.NextPage != nil {
		footer += "  next " + *p.NextPage
	}
	fmt.Fprintln(a.Out, a.dim.Sprint(footer))
	a.printSource(source)
	return nil
}
