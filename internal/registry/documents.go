package registry

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type userDoc struct {
	ID         *uint   `json:"id,omitempty"`
	Password   string  `json:"password"`
	Bio        string  `json:"bio"`
	ProfilePic string  `json:"profile_pic"`
	Role       string  `json:"role"`
	CreatedAt  docTime `json:"created_at"`
}

type commentDoc struct {
	ID        *uint   `json:"id,omitempty"`
	Author    string  `json:"author"`
	Content   string  `json:"content"`
	Timestamp docTime `json:"timestamp"`
}

type postDoc struct {
	ID        *uint        `json:"id,omitempty"`
	Author    string       `json:"author"`
	Content   string       `json:"content"`
	Image     string       `json:"image"`
	Likes     []string     `json:"likes"`
	Comments  []commentDoc `json:"comments"`
	Timestamp docTime      `json:"timestamp"`
}

type messageDoc struct {
	ID        *uint   `json:"id,omitempty"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Content   string  `json:"content"`
	Timestamp docTime `json:"timestamp"`
}

type notificationDoc struct {
	ID        *uint   `json:"id,omitempty"`
	Type      string  `json:"type"`
	From      string  `json:"from,omitempty"`
	PostID    *uint   `json:"post_id,omitempty"`
	Message   string  `json:"message"`
	Read      bool    `json:"read"`
	Timestamp docTime `json:"timestamp"`
}

// sequencesDoc records the largest id ever handed out per collection, so ids
// of deleted records are never reused.
type sequencesDoc struct {
	User         uint `json:"user"`
	Post         uint `json:"post"`
	Comment      uint `json:"comment"`
	Message      uint `json:"message"`
	Notification uint `json:"notification"`
}

// docTime accepts the timestamp spellings found in older documents and
// decodes anything unrecognised as the zero time.
type docTime struct {
	time.Time
}

var docTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func (t *docTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] != '"' {
		if secs, err := strconv.ParseFloat(string(data), 64); err == nil {
			t.Time = time.Unix(int64(secs), 0).UTC()
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	for _, layout := range docTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return nil
}

func (t docTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// idAssigner hands out ids to records that lack one, in file order, starting
// after the largest id present in the collection. Duplicate ids are reassigned.
type idAssigner struct {
	next uint
	seen map[uint]bool
}

func newIDAssigner(present []*uint) *idAssigner {
	a := &idAssigner{seen: make(map[uint]bool)}
	for _, id := range present {
		if id != nil && *id > a.next {
			a.next = *id
		}
	}
	return a
}

func (a *idAssigner) assign(id *uint) (uint, bool) {
	if id != nil && *id > 0 && !a.seen[*id] {
		a.seen[*id] = true
		return *id, false
	}
	a.next++
	a.seen[a.next] = true
	return a.next, true
}

func (a *idAssigner) max() uint {
	return a.next
}
