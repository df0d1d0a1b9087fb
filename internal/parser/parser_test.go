package parser

import (
	"strings"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/wxauto/internal/lang"
)

func newTestParser(tb testing.TB, language string) *Parser {
	tb.Helper()
	p, err := New(lang.MustLoad().For(language))
	require.NoError(tb, err)
	return p
}

func TestLines(t *testing.T) {
	got := Lines("  张三 \r\n\n今天   \n\t昨天\r")
	assert.Equal(t, []string{"张三", "今天", "昨天"}, got)
	assert.Empty(t, Lines(" \n\n "))
}

func TestParser_Comment(t *testing.T) {
	p := newTestParser(t, "cn")

	tests := []struct {
		name string
		line string
		want Comment
	}{
		{
			name: "reply with full-width colon",
			line: "A 回复 B：C",
			want: Comment{Author: "A", ReplyTo: "B", Content: "C", Raw: "A 回复 B：C"},
		},
		{
			name: "plain with full-width colon",
			line: "A：C",
			want: Comment{Author: "A", Content: "C", Raw: "A：C"},
		},
		{
			name: "ascii colon and padding",
			line: "  张三: 哈喽 ",
			want: Comment{Author: "张三", Content: "哈喽", Raw: "张三: 哈喽"},
		},
		{
			name: "reply without spaces",
			line: "王五回复李四：同意",
			want: Comment{Author: "王五", ReplyTo: "李四", Content: "同意", Raw: "王五回复李四：同意"},
		},
		{
			name: "no separator",
			line: "只有内容没有作者",
			want: Comment{Content: "只有内容没有作者", Raw: "只有内容没有作者"},
		},
		{
			name: "empty content",
			line: "张三：",
			want: Comment{Author: "张三", Raw: "张三："},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Comment(tt.line)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Comment(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
			assert.Equal(t, tt.want.ReplyTo != "", got.IsReply())
		})
	}

	t.Run("reply keyword follows the language", func(t *testing.T) {
		en := newTestParser(t, "en")
		got := en.Comment("Tom replied to Ann: thanks")
		assert.Equal(t, Comment{Author: "Tom", ReplyTo: "Ann", Content: "thanks", Raw: "Tom replied to Ann: thanks"}, got)
	})
}

func TestParser_Likes(t *testing.T) {
	cn := newTestParser(t, "cn")
	en := newTestParser(t, "en")

	assert.Equal(t, []string{"张三", "李四"}, cn.Likes("赞: 张三, 李四"))
	assert.Equal(t, []string{"张三", "李四", "王五"}, cn.Likes("赞：张三，李四,王五"))
	assert.Equal(t, []string{}, cn.Likes("赞"))
	assert.Equal(t, []string{}, cn.Likes("赞： "))
	assert.Equal(t, []string{}, cn.Likes(""))
	assert.Equal(t, []string{"张三"}, cn.Likes("张三"), "the keyword is optional")

	assert.Equal(t, []string{"Ann", "Bob Lee"}, en.Likes("Like: Ann, Bob Lee"))
	assert.Equal(t, []string{"Ann"}, en.Likes("Like Ann"))
	assert.Equal(t, []string{"Likely"}, en.Likes("Likely"), "the keyword must end a word")
}

func TestParser_FeedPost(t *testing.T) {
	p := newTestParser(t, "cn")

	blob := strings.Join([]string{
		"张三",
		"今天天气不错",
		"包含3张图片",
		"昨天",
		"12:30",
		"赞: 李四, 王五",
		"评论",
		"李四：好看",
		"王五 回复 李四：同意",
	}, "\n")

	want := Post{
		Publisher:  "张三",
		Timestamp:  "昨天",
		Content:    "今天天气不错\n12:30",
		ImageCount: 3,
		Likes:      []string{"李四", "王五"},
		Comments: []Comment{
			{Author: "李四", Content: "好看", Raw: "李四：好看"},
			{Author: "王五", ReplyTo: "李四", Content: "同意", Raw: "王五 回复 李四：同意"},
		},
	}
	got := p.FeedPost(blob)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("FeedPost mismatch (-want +got):\n%s", diff)
	}

	again := p.FeedPost(blob)
	assert.Empty(t, cmp.Diff(got, again), "parsing is deterministic")
}

func TestParser_FeedPostClassification(t *testing.T) {
	p := newTestParser(t, "cn")

	t.Run("advertisement marker", func(t *testing.T) {
		post := p.FeedPost("品牌\n新品上市\n广告\n3小时前")
		assert.True(t, post.IsAdvertisement)
		assert.Equal(t, "新品上市\n3小时前", post.Content)
	})

	t.Run("first timestamp wins", func(t *testing.T) {
		post := p.FeedPost("张三\n2024年5月1日\n会议改到 14:00\n星期三")
		assert.Equal(t, "2024年5月1日", post.Timestamp)
		assert.Equal(t, "会议改到 14:00\n星期三", post.Content)
	})

	t.Run("last likes line wins", func(t *testing.T) {
		post := p.FeedPost("张三\n内容\n赞: 甲\n赞: 乙, 丙")
		assert.Equal(t, []string{"乙", "丙"}, post.Likes)
		assert.Equal(t, "内容", post.Content)
	})

	t.Run("image count overrides body", func(t *testing.T) {
		post := p.FeedPost("张三\n包含12张图片")
		assert.Equal(t, 12, post.ImageCount)
		assert.Empty(t, post.Content)
	})

	t.Run("comment marker stops classification", func(t *testing.T) {
		post := p.FeedPost("张三\n评论\n12:30\n赞: 李四\n没有作者")
		assert.Empty(t, post.Timestamp)
		assert.Empty(t, post.Likes)
		require.Len(t, post.Comments, 3)
		assert.Equal(t, "12", post.Comments[0].Author)
		assert.Equal(t, "赞", post.Comments[1].Author)
		assert.Equal(t, Comment{Content: "没有作者", Raw: "没有作者"}, post.Comments[2])
	})

	t.Run("comment marker on the last line", func(t *testing.T) {
		post := p.FeedPost("张三\n内容\n评论")
		assert.Empty(t, post.Comments)
		assert.Equal(t, "内容", post.Content)
	})

	t.Run("comment marker must match exactly", func(t *testing.T) {
		post := p.FeedPost("张三\n评论区见")
		assert.Equal(t, "评论区见", post.Content)
	})

	t.Run("publisher only", func(t *testing.T) {
		post := p.FeedPost("  张三  ")
		assert.Equal(t, Post{Publisher: "张三", Likes: []string{}, Comments: []Comment{}}, post)
	})

	t.Run("empty blob", func(t *testing.T) {
		assert.Equal(t, Post{Likes: []string{}, Comments: []Comment{}}, p.FeedPost("\n \n"))
	})
}

func TestParser_FeedPostEnglish(t *testing.T) {
	p := newTestParser(t, "en")

	post := p.FeedPost(strings.Join([]string{
		"Ann",
		"Hiking today",
		"4 photos",
		"Yesterday 18:20",
		"Like: Bob, Carl",
		"Comment",
		"Bob: nice",
		"Ann replied to Bob: thanks",
	}, "\n"))

	assert.Equal(t, "Ann", post.Publisher)
	assert.Equal(t, "Yesterday 18:20", post.Timestamp)
	assert.Equal(t, "Hiking today", post.Content)
	assert.Equal(t, 4, post.ImageCount)
	assert.Equal(t, []string{"Bob", "Carl"}, post.Likes)
	require.Len(t, post.Comments, 2)
	assert.Equal(t, "Bob", post.Comments[1].ReplyTo)
}

func TestParser_FeedPostEnglishWordStartingWithLike(t *testing.T) {
	p := newTestParser(t, "en")

	post := p.FeedPost("Ann\nLikely rain tomorrow\nLikes: none")
	assert.Equal(t, "Likely rain tomorrow\nLikes: none", post.Content)
	assert.Empty(t, post.Likes)

	post = p.FeedPost("Ann\nLikely rain tomorrow\nLike: Bob")
	assert.Equal(t, "Likely rain tomorrow", post.Content)
	assert.Equal(t, []string{"Bob"}, post.Likes)
}

func TestParser_IsTimestamp(t *testing.T) {
	p := newTestParser(t, "cn")

	for _, line := range []string{"2023年12月1日", "05-20", "9:05", "昨天 10:00", "昨日", "星期日"} {
		assert.True(t, p.IsTimestamp(line), line)
	}
	for _, line := range []string{"", "今天天气不错", "星期", "12"} {
		assert.False(t, p.IsTimestamp(line), line)
	}
}

func TestParser_Session(t *testing.T) {
	p := newTestParser(t, "cn")

	t.Run("unread marker", func(t *testing.T) {
		blob := "文件传输助手\n[3条] 你好\n12:00"
		s := p.Session(blob)
		assert.Equal(t, Session{Name: "文件传输助手", UnreadCount: 3, Raw: blob}, s)
	})

	t.Run("first marker wins", func(t *testing.T) {
		s := p.Session("群聊\n[2条] 甲\n[9条] 乙")
		assert.Equal(t, 2, s.UnreadCount)
	})

	t.Run("no marker", func(t *testing.T) {
		s := p.Session("张三\n晚上见")
		assert.Equal(t, "张三", s.Name)
		assert.Zero(t, s.UnreadCount)
	})

	t.Run("marker in the name is ignored", func(t *testing.T) {
		s := p.Session("测试[5条]\n消息")
		assert.Equal(t, "测试[5条]", s.Name)
		assert.Zero(t, s.UnreadCount)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, Session{Raw: ""}, p.Session(""))
	})
}

func TestRecordFields(t *testing.T) {
	c := Comment{Author: "A", Content: "C", ReplyTo: "B", Raw: "A 回复 B：C"}
	for _, f := range c.Fields() {
		_, ok := c.Value(f)
		assert.True(t, ok, f)
	}
	_, ok := c.Value("control")
	assert.False(t, ok)

	post := Post{Publisher: "张三", ImageCount: 2}
	v, ok := post.Value("image_count")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	_, ok = post.Value("nickname")
	assert.False(t, ok)

	s := Session{Name: "群", UnreadCount: 1}
	assert.Equal(t, []string{"name", "unread_count", "raw"}, s.Fields())
}

func FuzzParser_FeedPost(f *testing.F) {
	p := newTestParser(f, "cn")

	f.Add([]byte("张三\n内容\n赞: 李四\n评论\n李四：好"))
	f.Add([]byte(""))

	f.Fuzz(func(t *testing.T, data []byte) {
		var in struct {
			Lines []string
		}
		if err := fuzz.NewConsumer(data).GenerateStruct(&in); err != nil {
			return
		}
		blob := strings.Join(in.Lines, "\n")

		post := p.FeedPost(blob)
		lines := Lines(blob)
		if len(lines) == 0 {
			assert.Empty(t, post.Publisher)
			return
		}
		assert.Equal(t, lines[0], post.Publisher)
		assert.LessOrEqual(t, len(post.Comments), len(lines)-1)
		assert.Empty(t, cmp.Diff(post, p.FeedPost(blob)))
	})
}
