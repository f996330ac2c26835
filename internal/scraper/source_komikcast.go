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

const KomikcastBase = "https://komikcast03.com"

// komikcastPageSize is how many results a full search page holds. A shorter
// page is the last one.
const komikcastPageSize = 60

// Komikcast scrapes the komikcast mirror named by its base URL. The domain
// rotates, so BaseURL always comes from config.
type Komikcast struct {
	BaseURL string
	Client  *upstream.Client
	Nav     NavPolicy
}

func NewKomikcast(client *upstream.Client, baseURL string) *Komikcast {
	if baseURL == "" {
		baseURL = KomikcastBase
	}
	return &Komikcast{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  client,
		Nav:     DefaultNavPolicy(),
	}
}

func (s *Komikcast) Name() string { return "komikcast" }

func (s *Komikcast) fetch(ctx context.Context, op, rawURL string, ttl time.Duration) (*goquery.Document, error) {
	doc, err := fetchDocument(ctx, s.Client, upstream.Request{
		URL:      rawURL,
		Referer:  s.BaseURL + "/",
		Accept:   upstream.AcceptHTML,
		Language: "en-US,en;q=0.5",
		CacheTTL: ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("komikcast: %s: %w", op, err)
	}
	return doc, nil
}

// sortOrder maps a list tag onto the site's two sort modes.
func sortOrder(tag string) string {
	switch strings.ToLower(tag) {
	case "hot", "popular", "rekomendasi":
		return "popular"
	default:
		return "update"
	}
}

func (s *Komikcast) LatestManga(ctx context.Context, page int, tag string) (models.PaginatedResponse[models.Manga], error) {
	page = clampPage(page)
	if tag == "" {
		tag = "hot"
	}
	crawlURL := fmt.Sprintf("%s/daftar-komik/page/%d/?sortby=%s", s.BaseURL, page, sortOrder(tag))

	doc, err := s.fetch(ctx, "latest", crawlURL, TTLList)
	if err != nil {
		return models.PaginatedResponse[models.Manga]{}, err
	}

	list := s.parseCards(doc)
	hasNext := doc.Find(".pagination .next, a.next.page-numbers").Length() > 0 || len(list) >= komikcastPageSize
	return models.Paginate(list, url.Values{"tag": {tag}}, page, hasNext), nil
}

func (s *Komikcast) SearchManga(ctx context.Context, query string, page int) (models.PaginatedResponse[models.Manga], error) {
	page = clampPage(page)
	crawlURL := s.BaseURL + "/page/" + strconv.Itoa(page) + "/?" + url.Values{"s": {query}}.Encode()

	doc, err := s.fetch(ctx, "search", crawlURL, TTLSearch)
	if err != nil {
		return models.PaginatedResponse[models.Manga]{}, err
	}

	list := s.parseCards(doc)
	return models.Paginate(list, url.Values{"q": {query}}, page, len(list) == komikcastPageSize), nil
}

func (s *Komikcast) parseCards(doc *goquery.Document) []models.Manga {
	var list []models.Manga
	doc.Find(".list-update_items-wrapper .list-update_item").Each(func(_ int, el *goquery.Selection) {
		href, _ := el.Find("a").First().Attr("href")
		slug := sanitize.Text(lastSegment(href))
		title := text(el, ".list-update_item-info .title")
		if slug == "" || title == "" {
			return
		}
		list = append(list, models.Manga{
			Title:         title,
			Slug:          slug,
			Thumbnail:     imageURL(attr(el, ".list-update_item-image .wp-post-image", "src")),
			LatestChapter: text(el, ".list-update_item-info .chapter"),
			Type:          text(el, ".list-update_item-image .type"),
			Rating:        text(el, ".rating .numscore"),
		})
	})
	return list
}

func (s *Komikcast) MangaDetail(ctx context.Context, slug string) (models.MangaDetail, error) {
	doc, err := s.fetch(ctx, "detail", s.BaseURL+"/manga/"+url.PathEscape(slug)+"/", TTLDetail)
	if err != nil {
		return models.MangaDetail{}, err
	}

	d := models.MangaDetail{
		Manga: models.Manga{
			Title:     text(doc.Selection, ".komik_info-content-body-title"),
			Slug:      slug,
			Thumbnail: imageURL(attr(doc.Selection, ".komik_info-content-thumbnail img", "src")),
			Rating:    text(doc.Selection, ".data-rating strong, .komik_info-content-rating strong"),
		},
		Genres:   []string{},
		Chapters: []models.Chapter{},
	}
	if syn, err := doc.Find(".komik_info-description-sinopsis").First().Html(); err == nil {
		d.Synopsis = sanitize.HTML(syn)
	}

	// Meta spans read "Status: Ongoing", "Type: Manhwa", "Author: ...".
	doc.Find(".komik_info-content-meta span").Each(func(_ int, el *goquery.Selection) {
		key, val, ok := strings.Cut(sanitize.Text(el.Text()), ":")
		if !ok {
			return
		}
		val = strings.TrimSpace(val)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "status":
			d.Status = strings.ToLower(val)
		case "type":
			d.Type = val
		case "author":
			d.Author = val
		case "updated on":
			d.UpdateTime = val
		}
	})

	doc.Find(".komik_info-content-genre .genre-item").Each(func(_ int, el *goquery.Selection) {
		if g := sanitize.Text(el.Text()); g != "" {
			d.Genres = append(d.Genres, g)
		}
	})

	doc.Find(".komik_info-chapters-wrapper li").Each(func(_ int, el *goquery.Selection) {
		a := el.Find("a").First()
		href, _ := a.Attr("href")
		chSlug := sanitize.Text(lastSegment(href))
		if chSlug == "" {
			return
		}
		// The link text also carries the time span; take it out before reading the number.
		link := a.Clone()
		link.Find(".chapter-link-time").Remove()
		number := strings.TrimSpace(strings.Replace(sanitize.Text(link.Text()), "Chapter", "", 1))
		d.Chapters = append(d.Chapters, models.Chapter{
			Number:    number,
			Slug:      chSlug,
			Release:   text(el, ".chapter-link-time"),
			DetailURL: readerPath(chSlug),
		})
	})
	if len(d.Chapters) > 0 {
		d.LatestChapter = d.Chapters[0].Number
	}

	return d, nil
}

func (s *Komikcast) ChapterImages(ctx context.Context, slug string) (models.ChapterContent, error) {
	doc, err := s.fetch(ctx, "chapter", s.BaseURL+"/chapter/"+url.PathEscape(slug)+"/", TTLChapter)
	if err != nil {
		return models.ChapterContent{}, err
	}

	c := models.ChapterContent{Images: []string{}}
	doc.Find(".main-reading-area img").Each(func(_ int, el *goquery.Selection) {
		src, _ := el.Attr("src")
		if u := imageURL(src); u != "" {
			c.Images = append(c.Images, u)
		}
	})

	heading := firstNonEmpty(
		text(doc.Selection, ".chapter-heading"),
		text(doc.Selection, "h1.entry-title"),
	)
	c.Title = firstNonEmpty(heading, sanitize.Text(doc.Find("title").First().Text()))
	c.MangaTitle = stripChapter(c.Title)
	c.MangaSlug = mangaSlugOf(doc, slug)
	c.MangaThumbnail = imageURL(firstNonEmpty(
		attr(doc.Selection, ".chapter_thumbnail img", "src"),
		attr(doc.Selection, "meta[property='og:image']", "content"),
	))
	if n := chapterNumber(c.Title, slug); n != "" {
		c.ChapterNumber = "Chapter " + n
	}

	prev, _ := doc.Find(".prev_pic a, .ch-prev-btn").First().Attr("href")
	next, _ := doc.Find(".next_pic a, .ch-next-btn").First().Attr("href")
	c.PrevChapter = sanitize.Text(s.Nav.Accept(prev, c.MangaSlug))
	c.NextChapter = sanitize.Text(s.Nav.Accept(next, c.MangaSlug))

	return c, nil
}
