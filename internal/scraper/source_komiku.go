package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"naokomik/internal/sanitize"
	"naokomik/internal/upstream"
	"naokomik/pkg/models"
)

const (
	KomikuBase    = "https://komiku.org"
	KomikuAPIBase = "https://api.komiku.org"
)

// Komiku scrapes komiku.org. Lists and search are served from the api.
// subdomain, detail and chapter pages from the main site; both expect the
// main site as Referer.
type Komiku struct {
	BaseURL    string
	APIBaseURL string
	Client     *upstream.Client
	Nav        NavPolicy
}

func NewKomiku(client *upstream.Client, baseURL, apiBaseURL string) *Komiku {
	if baseURL == "" {
		baseURL = KomikuBase
	}
	if apiBaseURL == "" {
		apiBaseURL = KomikuAPIBase
	}
	return &Komiku{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIBaseURL: strings.TrimRight(apiBaseURL, "/"),
		Client:     client,
		Nav:        DefaultNavPolicy(),
	}
}

func (s *Komiku) Name() string { return "komiku" }

func (s *Komiku) fetch(ctx context.Context, op, rawURL string, ttl time.Duration) (*goquery.Document, error) {
	doc, err := fetchDocument(ctx, s.Client, upstream.Request{
		URL:      rawURL,
		Referer:  s.BaseURL + "/",
		Accept:   upstream.AcceptHTML,
		CacheTTL: ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("komiku: %s: %w", op, err)
	}
	return doc, nil
}

// LatestManga lists a tag page. "update" lives on the main site, every other
// tag ("hot", "rekomendasi", ...) under /other/<tag>/ on the api host.
func (s *Komiku) LatestManga(ctx context.Context, page int, tag string) (models.PaginatedResponse[models.Manga], error) {
	page = clampPage(page)
	if tag == "" {
		tag = "hot"
	}

	var base string
	if tag == "update" {
		base = s.BaseURL + "/update/"
	} else {
		base = s.APIBaseURL + "/other/" + url.PathEscape(tag) + "/"
	}
	crawlURL := base
	if page > 1 {
		crawlURL = base + "page/" + strconv.Itoa(page) + "/"
	}

	doc, err := s.fetch(ctx, "latest", crawlURL, TTLList)
	if err != nil {
		return models.PaginatedResponse[models.Manga]{}, err
	}

	list := s.parseCards(doc, true)
	return models.Paginate(list, url.Values{"tag": {tag}}, page, len(list) > 0), nil
}

func (s *Komiku) SearchManga(ctx context.Context, query string, page int) (models.PaginatedResponse[models.Manga], error) {
	page = clampPage(page)
	q := url.Values{"post_type": {"manga"}, "s": {query}}.Encode()
	crawlURL := s.APIBaseURL + "/?" + q
	if page > 1 {
		crawlURL = s.APIBaseURL + "/page/" + strconv.Itoa(page) + "/?" + q
	}

	doc, err := s.fetch(ctx, "search", crawlURL, TTLSearch)
	if err != nil {
		return models.PaginatedResponse[models.Manga]{}, err
	}

	list := s.parseCards(doc, false)
	return models.Paginate(list, url.Values{"q": {query}}, page, len(list) > 0), nil
}

// parseCards reads the ".bge" result cards shared by lists and search.
func (s *Komiku) parseCards(doc *goquery.Document, withLatest bool) []models.Manga {
	var list []models.Manga
	doc.Find(".bge").Each(func(_ int, el *goquery.Selection) {
		title := text(el, ".kan h3")
		href, _ := el.Find(".kan a").First().Attr("href")
		slug := sanitize.Text(lastSegment(href))
		if title == "" || slug == "" {
			return
		}

		m := models.Manga{
			Title:       title,
			Slug:        slug,
			Thumbnail:   imageURL(attr(el, ".bgei img", "src")),
			Description: text(el, ".kan p"),
			Type:        text(el, ".bgei .tpe1_inf b"),
			UpdateTime:  text(el, ".kan .judul2"),
		}
		if withLatest {
			m.LatestChapter = sanitize.Text(el.Find(".kan .new1").Last().Find("span").Last().Text())
		}
		list = append(list, m)
	})
	return list
}

func (s *Komiku) MangaDetail(ctx context.Context, slug string) (models.MangaDetail, error) {
	doc, err := s.fetch(ctx, "detail", s.BaseURL+"/manga/"+url.PathEscape(slug)+"/", TTLDetail)
	if err != nil {
		return models.MangaDetail{}, err
	}

	d := models.MangaDetail{
		Manga: models.Manga{
			Title:     sanitize.Text(doc.Find("#Judul h1").First().Text()),
			Slug:      slug,
			Thumbnail: imageURL(attr(doc.Selection, ".ims img", "src")),
		},
		Genres:   []string{},
		Chapters: []models.Chapter{},
	}
	if desc, err := doc.Find(".desc").First().Html(); err == nil {
		d.Synopsis = sanitize.HTML(desc)
	}

	// Info table rows look like <td>Status</td><td>Ongoing</td>.
	doc.Find(".inftable tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		key := strings.ToLower(sanitize.Text(cells.Eq(0).Text()))
		val := sanitize.Text(cells.Eq(1).Text())
		switch {
		case strings.Contains(key, "jenis"):
			d.Type = val
		case strings.Contains(key, "status"):
			d.Status = strings.ToLower(val)
		case strings.Contains(key, "pengarang"), strings.Contains(key, "author"):
			d.Author = val
		}
	})

	doc.Find(".genre li a").Each(func(_ int, el *goquery.Selection) {
		if g := sanitize.Text(el.Text()); g != "" {
			d.Genres = append(d.Genres, g)
		}
	})

	doc.Find("#Daftar_Chapter tbody tr").Each(func(_ int, row *goquery.Selection) {
		// The header row has <th> cells and no chapter link.
		href, ok := row.Find(".judulseries a").First().Attr("href")
		if !ok {
			return
		}
		chSlug := sanitize.Text(lastSegment(href))
		if chSlug == "" {
			return
		}
		d.Chapters = append(d.Chapters, models.Chapter{
			Number:    text(row, ".judulseries"),
			Slug:      chSlug,
			Release:   text(row, ".tanggalseries"),
			DetailURL: readerPath(chSlug),
		})
	})

	doc.Find("#Spoiler .grd").Each(func(_ int, el *goquery.Selection) {
		href, _ := el.Find("a").First().Attr("href")
		sslug := sanitize.Text(lastSegment(href))
		stitle := text(el, ".h4")
		if sslug == "" || stitle == "" {
			return
		}
		d.Similars = append(d.Similars, models.Manga{
			Title:       stitle,
			Slug:        sslug,
			Thumbnail:   imageURL(firstNonEmpty(attr(el, "img", "data-src"), attr(el, "img", "src"))),
			Description: text(el, "p"),
		})
	})

	return d, nil
}

// ChapterImages reads a chapter page, which komiku serves at the site root.
func (s *Komiku) ChapterImages(ctx context.Context, slug string) (models.ChapterContent, error) {
	doc, err := s.fetch(ctx, "chapter", s.BaseURL+"/"+url.PathEscape(slug)+"/", TTLChapter)
	if err != nil {
		return models.ChapterContent{}, err
	}

	c := models.ChapterContent{Images: []string{}}
	doc.Find("#Baca_Komik img").Each(func(_ int, el *goquery.Selection) {
		src, _ := el.Attr("src")
		if u := imageURL(src); u != "" {
			c.Images = append(c.Images, u)
		}
	})

	c.Title = firstNonEmpty(
		sanitize.Text(doc.Find("title").First().Text()),
		sanitize.Text(doc.Find("h1").First().Text()),
	)
	c.MangaTitle = firstNonEmpty(
		stripChapter(sanitize.Text(doc.Find("#Judul h1").First().Text())),
		stripChapter(sanitize.Text(doc.Find(".chapter-title").First().Text())),
		stripChapter(c.Title),
	)
	c.MangaSlug = mangaSlugOf(doc, slug)
	c.MangaThumbnail = imageURL(firstNonEmpty(
		attr(doc.Selection, ".chapter-manga-thumbnail img", "src"),
		attr(doc.Selection, "meta[property='og:image']", "content"),
	))
	if n := chapterNumber(c.Title, slug); n != "" {
		c.ChapterNumber = "Chapter " + n
	}

	prev, _ := doc.Find("a.prev").First().Attr("href")
	next, _ := doc.Find("a.next").First().Attr("href")
	c.PrevChapter = sanitize.Text(s.Nav.Accept(prev, c.MangaSlug))
	c.NextChapter = sanitize.Text(s.Nav.Accept(next, c.MangaSlug))

	return c, nil
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// readerPath is the front end's reader route for a chapter slug.
func readerPath(chapterSlug string) string {
	return "/komik/read/" + url.PathEscape(chapterSlug)
}
