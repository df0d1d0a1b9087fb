package parser

// Comment is one line of a feed post's comment section.
type Comment struct {
	Author  string `json:"author"`
	Content string `json:"content"`
	// ReplyTo is empty unless the comment answers another author.
	ReplyTo string `json:"reply_to,omitempty"`
	Raw     string `json:"raw"`
}

var commentFields = []string{"author", "content", "reply_to", "raw"}

func (c Comment) Fields() []string { return commentFields }

func (c Comment) Value(field string) (any, bool) {
	switch field {
	case "author":
		return c.Author, true
	case "content":
		return c.Content, true
	case "reply_to":
		return c.ReplyTo, true
	case "raw":
		return c.Raw, true
	}
	return nil, false
}

// IsReply reports whether the comment answers another author.
func (c Comment) IsReply() bool { return c.ReplyTo != "" }

// Post is the structured content of one timeline entry.
type Post struct {
	Publisher       string    `json:"publisher"`
	Timestamp       string    `json:"timestamp"`
	Content         string    `json:"content"`
	ImageCount      int       `json:"image_count"`
	IsAdvertisement bool      `json:"is_advertisement"`
	Likes           []string  `json:"likes"`
	Comments        []Comment `json:"comments"`
}

var postFields = []string{"publisher", "timestamp", "content", "image_count", "is_advertisement", "likes", "comments"}

func (p Post) Fields() []string { return postFields }

func (p Post) Value(field string) (any, bool) {
	switch field {
	case "publisher":
		return p.Publisher, true
	case "timestamp":
		return p.Timestamp, true
	case "content":
		return p.Content, true
	case "image_count":
		return p.ImageCount, true
	case "is_advertisement":
		return p.IsAdvertisement, true
	case "likes":
		return p.Likes, true
	case "comments":
		return p.Comments, true
	}
	return nil, false
}

// Session is the summary of one entry in the session list.
type Session struct {
	Name        string `json:"name"`
	UnreadCount int    `json:"unread_count"`
	Raw         string `json:"raw"`
}

var sessionFields = []string{"name", "unread_count", "raw"}

func (s Session) Fields() []string { return sessionFields }

func (s Session) Value(field string) (any, bool) {
	switch field {
	case "name":
		return s.Name, true
	case "unread_count":
		return s.UnreadCount, true
	case "raw":
		return s.Raw, true
	}
	return nil, false
}
