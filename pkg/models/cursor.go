package models

import (
	"net/url"
	"strconv"
)

// PageCursor encodes params plus page as a relative query string.
// Keys are sorted by url.Values, so the same inputs always give the same cursor.
func PageCursor(params url.Values, page int) *string {
	q := url.Values{}
	for k, v := range params {
		q[k] = append([]string(nil), v...)
	}
	q.Set("page", strconv.Itoa(page))
	s := "?" + q.Encode()
	return &s
}

// Paginate fills the cursors for page. hasNext decides whether a next page is
// advertised; a previous page exists for every page after the first.
func Paginate[T any](data []T, params url.Values, page int, hasNext bool) PaginatedResponse[T] {
	if data == nil {
		data = []T{}
	}
	resp := PaginatedResponse[T]{Data: data, CurrentPage: page}
	if hasNext {
		resp.NextPage = PageCursor(params, page+1)
	}
	if page > 1 {
		resp.PrevPage = PageCursor(params, page-1)
	}
	return resp
}

// ParseCursor reads a cursor back into its query values.
func ParseCursor(cursor string) (url.Values, error) {
	if len(cursor) > 0 && cursor[0] == '?' {
		cursor = cursor[1:]
	}
	return url.ParseQuery(cursor)
}
