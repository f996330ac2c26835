package scraper

import (
	"fmt"

	"naokomik/pkg/models"
)

func validateList(p models.PaginatedResponse[models.Manga]) error {
	if len(p.Data) == 0 {
		return fmt.Errorf("%w: no manga on page %d", ErrEmptyResult, p.CurrentPage)
	}
	return nil
}

func validateDetail(d models.MangaDetail) error {
	if d.Title == "" {
		return fmt.Errorf("%w: detail has no title", ErrEmptyResult)
	}
	if len(d.Chapters) == 0 {
		return fmt.Errorf("%w: detail has no chapters", ErrEmptyResult)
	}
	return nil
}

func validateChapter(c models.ChapterContent) error {
	if len(c.Images) == 0 {
		return fmt.Errorf("%w: chapter has no images", ErrEmptyResult)
	}
	return nil
}
