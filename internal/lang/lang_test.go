package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedTables(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"cn", "cn_t", "en"}, tables.Languages())

	// Every key the code references must be defined for the default language.
	keys := []string{
		Like, Cancel, Comment, Advertisement, Send, Reply, LikeSeparator, ImageCount,
		Paste, Unread, WeChatIDLabel, NicknameLabel,
		MenuPin, MenuUnpin, MenuMarkUnread, MenuMute, MenuOpenSeparate, MenuHide, MenuDelete,
	}
	cn := tables.For(DefaultLanguage)
	for _, k := range keys {
		_, ok := cn.Lookup(k)
		assert.True(t, ok, "key %q missing from the default language", k)
	}
	for _, language := range tables.Languages() {
		pats, err := tables.For(language).Patterns(Timestamp)
		require.NoError(t, err)
		assert.NotEmpty(t, pats, language)
	}
}

func TestTable_Lookup(t *testing.T) {
	tables := MustLoad()

	t.Run("active language", func(t *testing.T) {
		assert.Equal(t, "Like", tables.For("en").Text(Like))
		assert.Equal(t, "评论", tables.For("cn").Text(Comment))
	})

	t.Run("empty language means default", func(t *testing.T) {
		assert.Equal(t, DefaultLanguage, tables.For("").Language())
		assert.Equal(t, "赞", tables.For("").Text(Like))
	})

	t.Run("unknown language falls back to default", func(t *testing.T) {
		assert.Equal(t, "发送", tables.For("fr").Text(Send))
	})

	t.Run("empty value is a real value", func(t *testing.T) {
		v, ok := tables.For("cn").Lookup(LikeSeparator)
		assert.True(t, ok)
		assert.Empty(t, v)
		assert.Equal(t, ", ", tables.For("en").Text(LikeSeparator))
	})

	t.Run("undefined key returns the key", func(t *testing.T) {
		_, ok := tables.For("cn").Lookup("转发...")
		assert.False(t, ok)
		assert.Equal(t, "转发...", tables.For("cn").Text("转发..."))
	})
}

func TestParse_Fallback(t *testing.T) {
	doc := []byte(`
texts:
  send: {cn: "发送"}
  unread: {cn: '\[(\d+)条\]', en: '\[(\d+)\]'}
lists:
  timestamp:
    cn: ['\d{1,2}:\d{2}']
`)
	tables, err := Parse(doc)
	require.NoError(t, err)

	en := tables.For("en")
	assert.Equal(t, "发送", en.Text(Send), "missing translation falls back to cn")
	assert.Len(t, en.List(Timestamp), 1)

	re, err := en.Pattern(Unread)
	require.NoError(t, err)
	assert.Equal(t, []string{"[4]", "4"}, re.FindStringSubmatch("x [4]"))

	again, err := en.Pattern(Unread)
	require.NoError(t, err)
	assert.Same(t, re, again, "compiled patterns are cached")

	_, err = en.Pattern("missing")
	assert.ErrorIs(t, err, ErrUnknownKey)
	_, err = en.Patterns("missing")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("texts: [unclosed"))
	assert.Error(t, err)

	_, err = Parse([]byte(`texts:
  image_count: {cn: '包含(\d+张图片'}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image_count")

	_, err = Parse([]byte(`lists:
  timestamp: {en: ['[a-']}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp")
}
