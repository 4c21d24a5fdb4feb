package feed

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	tbl := []struct {
		name     string
		keywords []string
		window   int
		want     string
	}{
		{"default set", []string{`"Bio-Thera Solutions"`, `"百奥泰"`, `"688177"`, "Bio-Thera"}, 90,
			`"Bio-Thera Solutions" OR "百奥泰" OR "688177" OR Bio-Thera when:90d`},
		{"quotes multi-word", []string{"Bio-Thera Solutions", "688177"}, 365, `"Bio-Thera Solutions" OR 688177 when:365d`},
		{"skips blanks", []string{" ", "acme", ""}, 7, "acme when:7d"},
		{"no window", []string{"acme"}, 0, "acme"},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildQuery(tt.keywords, tt.window))
		})
	}
}

func TestSearchURL(t *testing.T) {
	t.Run("google news params", func(t *testing.T) {
		res, err := SearchURL("https://news.google.com/rss/search", `"Bio-Thera" OR 688177 when:90d`, "en-US", "US", "")
		require.NoError(t, err)

		u, err := url.Parse(res)
		require.NoError(t, err)
		assert.Equal(t, "news.google.com", u.Host)
		assert.Equal(t, "/rss/search", u.Path)
		assert.Equal(t, `"Bio-Thera" OR 688177 when:90d`, u.Query().Get("q"))
		assert.Equal(t, "en-US", u.Query().Get("hl"))
		assert.Equal(t, "US", u.Query().Get("gl"))
		assert.Equal(t, "US:en", u.Query().Get("ceid"))
		assert.NotContains(t, res, "+", "spaces must be percent-encoded")
	})

	t.Run("explicit edition", func(t *testing.T) {
		res, err := SearchURL("https://news.google.com/rss/search", "x", "zh-CN", "CN", "CN:zh-Hans")
		require.NoError(t, err)
		u, err := url.Parse(res)
		require.NoError(t, err)
		assert.Equal(t, "CN:zh-Hans", u.Query().Get("ceid"))
	})

	t.Run("invalid base", func(t *testing.T) {
		_, err := SearchURL("not-a-url", "x", "", "", "")
		require.Error(t, err)
	})
}
