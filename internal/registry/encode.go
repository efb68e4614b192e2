package registry

import (
	"encoding/json"
	"fmt"

	"socialnest/internal/docstore"
	"socialnest/internal/models"
)

// encodeDirty serializes every collection touched since the last flush. The
// sequences document joins any unit that moved a high-water mark.
func (s *State) encodeDirty() (map[docstore.Collection][]byte, error) {
	if len(s.dirty) > 0 && s.marks() != s.saved {
		s.touch(docstore.Sequences)
	}
	docs := make(map[docstore.Collection][]byte, len(s.dirty))
	for c := range s.dirty {
		data, err := s.encode(c)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", c.File(), err)
		}
		docs[c] = data
	}
	return docs, nil
}

func (s *State) encode(c docstore.Collection) ([]byte, error) {
	switch c {
	case docstore.Users:
		return s.encodeUsers()
	case docstore.Posts:
		return s.encodePosts()
	case docstore.Followers:
		return s.encodeFollowers()
	case docstore.Messages:
		return s.encodeMessages()
	case docstore.Notifications:
		return s.encodeNotifications()
	case docstore.Sequences:
		return json.Marshal(s.marks())
	}
	return nil, fmt.Errorf("unknown collection %q", c)
}

func (s *State) marks() sequencesDoc {
	return sequencesDoc{
		User:         s.seq.user,
		Post:         s.seq.post,
		Comment:      s.seq.comment,
		Message:      s.seq.message,
		Notification: s.seq.notification,
	}
}

func (s *State) name(id uint) string {
	if u, ok := s.users[id]; ok {
		return u.Username
	}
	return ""
}

func idPtr(id uint) *uint {
	return &id
}

func (s *State) encodeUsers() ([]byte, error) {
	entries := make([]docstore.Entry, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		u := s.users[id]
		raw, err := json.Marshal(userDoc{
			ID:         idPtr(u.ID),
			Password:   u.Password,
			Bio:        u.Bio,
			ProfilePic: u.ProfilePic,
			Role:       string(u.Role),
			CreatedAt:  docTime{u.CreatedAt},
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, docstore.Entry{Key: u.Username, Value: raw})
	}
	return docstore.EncodeKeyed(entries)
}

func (s *State) encodePosts() ([]byte, error) {
	out := make([]postDoc, 0, len(s.postOrder))
	for _, id := range s.postOrder {
		p := s.posts[id]
		doc := postDoc{
			ID:        idPtr(p.ID),
			Author:    s.name(p.UserID),
			Content:   p.Content,
			Image:     p.Image,
			Likes:     make([]string, 0, len(p.Likes)),
			Comments:  make([]commentDoc, 0, len(p.Comments)),
			Timestamp: docTime{p.CreatedAt},
		}
		for _, l := range p.Likes {
			doc.Likes = append(doc.Likes, s.name(l.UserID))
		}
		for _, c := range p.Comments {
			doc.Comments = append(doc.Comments, commentDoc{
				ID:        idPtr(c.ID),
				Author:    s.name(c.UserID),
				Content:   c.Content,
				Timestamp: docTime{c.CreatedAt},
			})
		}
		out = append(out, doc)
	}
	return json.Marshal(out)
}

func (s *State) encodeFollowers() ([]byte, error) {
	var order []uint
	grouped := make(map[uint][]string)
	for _, k := range s.followOrder {
		if _, seen := grouped[k.followed]; !seen {
			order = append(order, k.followed)
		}
		grouped[k.followed] = append(grouped[k.followed], s.name(k.follower))
	}

	entries := make([]docstore.Entry, 0, len(order))
	for _, followed := range order {
		raw, err := json.Marshal(grouped[followed])
		if err != nil {
			return nil, err
		}
		entries = append(entries, docstore.Entry{Key: s.name(followed), Value: raw})
	}
	return docstore.EncodeKeyed(entries)
}

func (s *State) encodeMessages() ([]byte, error) {
	var order []uint
	grouped := make(map[uint][]messageDoc)
	for _, m := range s.messages {
		if _, seen := grouped[m.ReceiverID]; !seen {
			order = append(order, m.ReceiverID)
		}
		grouped[m.ReceiverID] = append(grouped[m.ReceiverID], messageDoc{
			ID:        idPtr(m.ID),
			From:      s.name(m.SenderID),
			To:        s.name(m.ReceiverID),
			Content:   m.Content,
			Timestamp: docTime{m.CreatedAt},
		})
	}

	entries := make([]docstore.Entry, 0, len(order))
	for _, receiver := range order {
		raw, err := json.Marshal(grouped[receiver])
		if err != nil {
			return nil, err
		}
		entries = append(entries, docstore.Entry{Key: s.name(receiver), Value: raw})
	}
	return docstore.EncodeKeyed(entries)
}

func (s *State) encodeNotifications() ([]byte, error) {
	entries := make([]docstore.Entry, 0, len(s.recipientOrder))
	for _, uid := range s.recipientOrder {
		list := s.notifications[uid]
		docs := make([]notificationDoc, 0, len(list))
		for _, n := range list {
			docs = append(docs, notificationDocFor(s, n))
		}
		raw, err := json.Marshal(docs)
		if err != nil {
			return nil, err
		}
		entries = append(entries, docstore.Entry{Key: s.name(uid), Value: raw})
	}
	return docstore.EncodeKeyed(entries)
}

func notificationDocFor(s *State, n *models.Notification) notificationDoc {
	doc := notificationDoc{
		ID:        idPtr(n.ID),
		Type:      string(n.Type),
		PostID:    n.PostID,
		Message:   n.Message,
		Read:      n.IsRead,
		Timestamp: docTime{n.CreatedAt},
	}
	if n.ActorID != nil {
		doc.From = s.name(*n.ActorID)
	}
	return doc
}
