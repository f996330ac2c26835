package models

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCursor_Stable(t *testing.T) {
	c := PageCursor(url.Values{"tag": {"hot"}}, 2)
	require.NotNil(t, c)
	assert.Equal(t, "?page=2&tag=hot", *c)

	c = PageCursor(url.Values{"q": {"one piece"}}, 3)
	assert.Equal(t, "?page=3&q=one+piece", *c)
}

func TestPaginate_FirstPageHasNoPrev(t *testing.T) {
	resp := Paginate([]Manga{{Title: "A", Slug: "a"}}, url.Values{"tag": {"hot"}}, 1, true)
	assert.Nil(t, resp.PrevPage)
	require.NotNil(t, resp.NextPage)
	assert.Equal(t, "?page=2&tag=hot", *resp.NextPage)
	assert.Equal(t, 1, resp.CurrentPage)
}

func TestPaginate_NilDataBecomesEmpty(t *testing.T) {
	resp := Paginate[Manga](nil, url.Values{}, 1, false)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.NextPage)
}

func TestPaginate_NextThenPrevReturnsToSamePage(t *testing.T) {
	params := url.Values{"q": {"naruto & friends"}}
	for page := 1; page <= 5; page++ {
		current := Paginate([]int{1}, params, page, true)
		require.NotNil(t, current.NextPage)

		next, err := ParseCursor(*current.NextPage)
		require.NoError(t, err)
		nextPage, err := strconv.Atoi(next.Get("page"))
		require.NoError(t, err)
		assert.Equal(t, page+1, nextPage)

		following := Paginate([]int{1}, url.Values{"q": next["q"]}, nextPage, true)
		require.NotNil(t, following.PrevPage)

		back, err := ParseCursor(*following.PrevPage)
		require.NoError(t, err)
		want := url.Values{"q": params["q"]}
		want.Set("page", strconv.Itoa(page))
		assert.Equal(t, want, back)
	}
}
