// internal/lang/lang.go
package lang

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed languages.yaml
var embeddedTables []byte

// DefaultLanguage is consulted whenever the active language lacks a key.
const DefaultLanguage = "cn"

// Keys of the text entries.
const (
	Like          = "like"
	Cancel        = "cancel"
	Comment       = "comment"
	Advertisement = "advertisement"
	Send          = "send"
	Reply         = "reply"
	LikeSeparator = "like_separator"
	ImageCount    = "image_count"
	Paste         = "paste"
	Unread        = "unread"
	WeChatIDLabel = "wechat_id_label"
	NicknameLabel = "nickname_label"

	MenuPin          = "menu_pin"
	MenuUnpin        = "menu_unpin"
	MenuMarkUnread   = "menu_mark_unread"
	MenuMute         = "menu_mute"
	MenuOpenSeparate = "menu_open_separate"
	MenuHide         = "menu_hide"
	MenuDelete       = "menu_delete"
)

// Keys of the list entries.
const (
	Timestamp = "timestamp"
)

// patternKeys are compiled eagerly by Parse so a broken table fails at load.
var patternKeys = []string{ImageCount, Unread}

var ErrUnknownKey = errors.New("unknown language key")

type document struct {
	Texts map[string]map[string]string   `yaml:"texts"`
	Lists map[string]map[string][]string `yaml:"lists"`
}

// Tables holds every language's captions and markers.
type Tables struct {
	texts map[string]map[string]string
	lists map[string]map[string][]string

	mu    sync.Mutex
	cache map[string]*regexp.Regexp
}

// Load parses the tables compiled into the binary.
func Load() (*Tables, error) {
	return Parse(embeddedTables)
}

// MustLoad is Load for package initialization. The embedded tables are
// covered by tests, so a failure here is a build defect.
func MustLoad() *Tables {
	t, err := Load()
	if err != nil {
		panic(fmt.Sprintf("lang: embedded tables are invalid: %v", err))
	}
	return t
}

// Parse decodes a YAML document with "texts" and "lists" sections and
// verifies that every pattern entry compiles.
func Parse(data []byte) (*Tables, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode language tables: %w", err)
	}
	t := &Tables{
		texts: doc.Texts,
		lists: doc.Lists,
		cache: make(map[string]*regexp.Regexp),
	}
	if t.texts == nil {
		t.texts = make(map[string]map[string]string)
	}
	if t.lists == nil {
		t.lists = make(map[string]map[string][]string)
	}

	for _, key := range patternKeys {
		for language, expr := range t.texts[key] {
			if _, err := t.compile(expr); err != nil {
				return nil, fmt.Errorf("pattern %q for language %q: %w", key, language, err)
			}
		}
	}
	for key, byLang := range t.lists {
		for language, exprs := range byLang {
			for _, expr := range exprs {
				if _, err := t.compile(expr); err != nil {
					return nil, fmt.Errorf("pattern list %q for language %q: %w", key, language, err)
				}
			}
		}
	}
	return t, nil
}

// Languages returns every language code that appears in the tables.
func (t *Tables) Languages() []string {
	seen := make(map[string]struct{})
	for _, byLang := range t.texts {
		for l := range byLang {
			seen[l] = struct{}{}
		}
	}
	for _, byLang := range t.lists {
		for l := range byLang {
			seen[l] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Keys returns the text keys in sorted order.
func (t *Tables) Keys() []string {
	out := make([]string, 0, len(t.texts))
	for k := range t.texts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// For returns the view of the tables for one display language.
func (t *Tables) For(language string) *Table {
	if language == "" {
		language = DefaultLanguage
	}
	return &Table{language: language, tables: t}
}

func (t *Tables) compile(expr string) (*regexp.Regexp, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if re, ok := t.cache[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	t.cache[expr] = re
	return re, nil
}

// Table resolves keys for the active language with a fallback to
// DefaultLanguage.
type Table struct {
	language string
	tables   *Tables
}

// Language returns the active language code.
func (t *Table) Language() string { return t.language }

// Lookup returns the text for key. ok is false when neither the active nor
// the default language defines it.
func (t *Table) Lookup(key string) (string, bool) {
	byLang, ok := t.tables.texts[key]
	if !ok {
		return "", false
	}
	if v, ok := byLang[t.language]; ok {
		return v, true
	}
	v, ok := byLang[DefaultLanguage]
	return v, ok
}

// Text returns the text for key, or key itself when it is undefined, which
// keeps callers working against captions that were never localized.
func (t *Table) Text(key string) string {
	if v, ok := t.Lookup(key); ok {
		return v
	}
	return key
}

// List returns the list entry for key with the same fallback as Lookup.
func (t *Table) List(key string) []string {
	byLang, ok := t.tables.lists[key]
	if !ok {
		return nil
	}
	if v, ok := byLang[t.language]; ok {
		return v
	}
	return byLang[DefaultLanguage]
}

// Pattern returns the compiled regular expression stored under key.
func (t *Table) Pattern(key string) (*regexp.Regexp, error) {
	expr, ok := t.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return t.tables.compile(expr)
}

// Patterns compiles every entry of the list stored under key.
func (t *Table) Patterns(key string) ([]*regexp.Regexp, error) {
	exprs := t.List(key)
	if exprs == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := t.tables.compile(expr)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}
