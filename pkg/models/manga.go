package models

// Manga is the normalized list entry every source adapter maps into.
//
// Slug is only unique within the source that produced it. The same title can
// carry different slugs on different sources and they are never merged.
type Manga struct {
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Thumbnail     string `json:"thumbnail"`
	Description   string `json:"description,omitempty"`
	LatestChapter string `json:"latestChapter,omitempty"`
	Type          string `json:"type,omitempty"`   // "Manga", "Manhwa", "Manhua", ...
	Rating        string `json:"rating,omitempty"` // as displayed by the source
	UpdateTime    string `json:"updateTime,omitempty"`
}

// MangaDetail is a manga page with its chapter list.
// A detail without a title or without chapters is a failed fetch.
type MangaDetail struct {
	Manga
	Synopsis string    `json:"synopsis"`
	Genres   []string  `json:"genres"`
	Status   string    `json:"status,omitempty"`
	Author   string    `json:"author,omitempty"`
	Chapters []Chapter `json:"chapters"`
	Similars []Manga   `json:"similars,omitempty"`
}

// Chapter keeps the order the source lists it in (usually newest first).
type Chapter struct {
	Number    string `json:"number"`
	Slug      string `json:"slug"`
	Release   string `json:"release"`
	DetailURL string `json:"detailUrl"`
}

// ChapterContent is the reader payload for one chapter.
// PrevChapter/NextChapter are empty unless the link looked like a real chapter.
type ChapterContent struct {
	Images         []string `json:"images"`
	Title          string   `json:"title,omitempty"`
	MangaSlug      string   `json:"mangaSlug,omitempty"`
	MangaTitle     string   `json:"mangaTitle,omitempty"`
	MangaThumbnail string   `json:"mangaThumbnail,omitempty"`
	ChapterNumber  string   `json:"chapterNumber,omitempty"`
	PrevChapter    string   `json:"prevChapter,omitempty"`
	NextChapter    string   `json:"nextChapter,omitempty"`
}

// PaginatedResponse wraps one page of results.
//
// NextPage and PrevPage are relative query strings ("?page=2&tag=hot"), not
// offsets, since every source paginates its own way. nil means no such page.
type PaginatedResponse[T any] struct {
	Data        []T     `json:"data"`
	NextPage    *string `json:"nextPage"`
	PrevPage    *string `json:"prevPage"`
	CurrentPage int     `json:"currentPage"`
}
