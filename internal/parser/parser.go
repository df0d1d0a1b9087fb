// internal/parser/parser.go
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xkilldash9x/wxauto/internal/lang"
)

var (
	// likeFallbackSplit is used when the language has no like separator.
	likeFallbackSplit = regexp.MustCompile(`[,:，]`)
	firstNumber       = regexp.MustCompile(`\d+`)
)

// likePunctuation is stripped between the like keyword and the first name.
const likePunctuation = "：: "

// Parser turns the flattened text of a UI node into records, using the
// markers of one display language. A Parser is safe for concurrent use.
type Parser struct {
	table *lang.Table

	like          string
	comment       string
	advertisement string
	likeSeparator string

	imageCount *regexp.Regexp
	unread     *regexp.Regexp
	timestamps []*regexp.Regexp
	commentRe  *regexp.Regexp
}

// New compiles the markers of table.
func New(table *lang.Table) (*Parser, error) {
	p := &Parser{
		table:         table,
		like:          table.Text(lang.Like),
		comment:       table.Text(lang.Comment),
		advertisement: table.Text(lang.Advertisement),
		likeSeparator: table.Text(lang.LikeSeparator),
	}

	var err error
	if p.imageCount, err = table.Pattern(lang.ImageCount); err != nil {
		return nil, fmt.Errorf("image count pattern: %w", err)
	}
	if p.unread, err = table.Pattern(lang.Unread); err != nil {
		return nil, fmt.Errorf("unread pattern: %w", err)
	}
	if p.timestamps, err = table.Patterns(lang.Timestamp); err != nil {
		return nil, fmt.Errorf("timestamp patterns: %w", err)
	}

	reply := regexp.QuoteMeta(table.Text(lang.Reply))
	p.commentRe, err = regexp.Compile(`^(?P<author>[^：:]+?)\s*(?:` + reply + `\s*(?P<reply>[^：:]+?)\s*)?[：:](?P<content>.*)$`)
	if err != nil {
		return nil, fmt.Errorf("comment pattern: %w", err)
	}
	return p, nil
}

// Language returns the display language the parser was built for.
func (p *Parser) Language() string { return p.table.Language() }

// Table returns the table the parser was built from.
func (p *Parser) Table() *lang.Table { return p.table }

// Lines splits blob on any line terminator and returns the trimmed,
// non-empty lines in order.
func Lines(blob string) []string {
	fields := strings.FieldsFunc(blob, isLineBreak)
	out := fields[:0]
	for _, f := range fields {
		if s := strings.TrimSpace(f); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, '\u2028', '\u2029':
		return true
	}
	return false
}

// FeedPost parses the text of a timeline entry. The first line is always the
// publisher. Each later line is classified by the first rule that matches:
// image count, likes, the comment marker (everything after it is a comment),
// advertisement marker, the first timestamp-like line, and finally body text.
func (p *Parser) FeedPost(blob string) Post {
	post := Post{Likes: []string{}, Comments: []Comment{}}
	lines := Lines(blob)
	if len(lines) == 0 {
		return post
	}
	post.Publisher = lines[0]

	var (
		body      []string
		likesLine string
		hasLikes  bool
	)
	rest := lines[1:]
	for i, line := range rest {
		if p.imageCount.MatchString(line) {
			if n, ok := firstCount(line); ok {
				post.ImageCount = n
			}
			continue
		}
		if p.hasLikePrefix(line) {
			// A later likes line replaces an earlier one.
			likesLine, hasLikes = line, true
			continue
		}
		if line == p.comment {
			for _, c := range rest[i+1:] {
				post.Comments = append(post.Comments, p.Comment(c))
			}
			break
		}
		if p.advertisement != "" && strings.Contains(line, p.advertisement) {
			post.IsAdvertisement = true
			continue
		}
		if post.Timestamp == "" && p.IsTimestamp(line) {
			post.Timestamp = line
			continue
		}
		body = append(body, line)
	}

	if hasLikes {
		post.Likes = p.Likes(likesLine)
	}
	post.Content = strings.TrimSpace(strings.Join(body, "\n"))
	return post
}

// hasLikePrefix reports whether text starts with the like keyword. A keyword
// ending in a Latin letter must end a word, so "Likely" is not a likes line.
func (p *Parser) hasLikePrefix(text string) bool {
	if p.like == "" || !strings.HasPrefix(text, p.like) {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(p.like)
	if !unicode.In(last, unicode.Latin) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(text[len(p.like):])
	return next == utf8.RuneError || !(unicode.IsLetter(next) || unicode.IsDigit(next))
}

func firstCount(line string) (int, bool) {
	m := firstNumber.FindString(line)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Likes parses a likes line into names. The like keyword and the punctuation
// after it are optional. Without a configured separator the names are split
// on commas and colons.
func (p *Parser) Likes(line string) []string {
	text := strings.TrimSpace(line)
	if text == "" {
		return []string{}
	}
	if p.hasLikePrefix(text) {
		text = strings.TrimLeft(text[len(p.like):], likePunctuation)
	}

	var parts []string
	if p.likeSeparator != "" {
		parts = strings.Split(text, p.likeSeparator)
	} else {
		parts = likeFallbackSplit.Split(text, -1)
	}

	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			names = append(names, s)
		}
	}
	return names
}

// Comment parses "author [reply-keyword target]: content". Lines without a
// colon keep their whole text as content and an empty author.
func (p *Parser) Comment(line string) Comment {
	text := strings.TrimSpace(line)
	c := Comment{Content: text, Raw: text}

	m := p.commentRe.FindStringSubmatch(text)
	if m == nil {
		return c
	}
	c.Author = strings.TrimSpace(m[p.commentRe.SubexpIndex("author")])
	c.ReplyTo = strings.TrimSpace(m[p.commentRe.SubexpIndex("reply")])
	c.Content = strings.TrimSpace(m[p.commentRe.SubexpIndex("content")])
	return c
}

// IsTimestamp reports whether line looks like a date, a time, a relative day
// or a weekday.
func (p *Parser) IsTimestamp(line string) bool {
	if line == "" {
		return false
	}
	for _, re := range p.timestamps {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// Session parses the text of a session list item. The first line is the
// display name; the first later line carrying an unread marker sets the
// unread count.
func (p *Parser) Session(blob string) Session {
	s := Session{Raw: blob}
	lines := Lines(blob)
	if len(lines) == 0 {
		return s
	}
	s.Name = lines[0]
	for _, line := range lines[1:] {
		m := p.unread.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		digits := m[0]
		if len(m) > 1 {
			digits = m[1]
		}
		if n, ok := firstCount(digits); ok {
			s.UnreadCount = n
			break
		}
	}
	return s
}
