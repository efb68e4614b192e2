package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"socialnest/internal/docstore"
	"socialnest/internal/middleware"
	"socialnest/internal/models"
)

// decodeState rebuilds a State from raw documents, backfilling fields and ids
// missing from older records.
func decodeState(ctx context.Context, docs map[docstore.Collection][]byte) (*State, error) {
	s := newState()
	log := middleware.Logger

	if err := s.decodeUsers(ctx, docs[docstore.Users]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", docstore.Users.File(), err)
	}
	if err := s.decodePosts(ctx, docs[docstore.Posts]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", docstore.Posts.File(), err)
	}
	if err := s.decodeFollowers(ctx, docs[docstore.Followers]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", docstore.Followers.File(), err)
	}
	if err := s.decodeMessages(ctx, docs[docstore.Messages]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", docstore.Messages.File(), err)
	}
	if err := s.decodeNotifications(ctx, docs[docstore.Notifications]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", docstore.Notifications.File(), err)
	}
	if err := s.decodeSequences(docs[docstore.Sequences]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", docstore.Sequences.File(), err)
	}

	log.InfoContext(ctx, "registry loaded",
		slog.Int("users", len(s.users)),
		slog.Int("posts", len(s.posts)),
		slog.Int("follows", len(s.follows)),
		slog.Int("messages", len(s.messages)),
	)
	return s, nil
}

func warnDropped(ctx context.Context, collection docstore.Collection, reason, username string) {
	middleware.Logger.WarnContext(ctx, "dropping reference to unknown user",
		slog.String("collection", string(collection)),
		slog.String("field", reason),
		slog.String("username", username),
	)
}

func (s *State) decodeUsers(ctx context.Context, data []byte) error {
	entries, err := docstore.DecodeKeyed(data)
	if err != nil {
		return err
	}

	records := make([]userDoc, len(entries))
	ids := make([]*uint, len(entries))
	for i, e := range entries {
		if err := json.Unmarshal(e.Value, &records[i]); err != nil {
			return fmt.Errorf("user %q: %w", e.Key, err)
		}
		ids[i] = records[i].ID
	}

	assigner := newIDAssigner(ids)
	for i, e := range entries {
		rec := records[i]
		key := models.FoldUsername(e.Key)
		if _, dup := s.byKey[key]; dup {
			middleware.Logger.WarnContext(ctx, "dropping user whose name differs from another only by case",
				slog.String("username", e.Key))
			continue
		}

		id, backfilled := assigner.assign(rec.ID)
		if backfilled {
			s.touch(docstore.Users)
		}
		role, ok := models.ParseRole(rec.Role)
		if !ok {
			if rec.Role != "" {
				middleware.Logger.WarnContext(ctx, "unknown role, defaulting to user",
					slog.String("username", e.Key), slog.String("role", rec.Role))
			}
			role = models.RoleUser
		}
		s.insertUser(&models.User{
			ID:          id,
			Username:    e.Key,
			UsernameKey: key,
			Password:    rec.Password,
			Bio:         rec.Bio,
			ProfilePic:  rec.ProfilePic,
			Role:        role,
			CreatedAt:   rec.CreatedAt.Time,
			UpdatedAt:   rec.CreatedAt.Time,
		})
	}
	s.seq.user = assigner.max()
	return nil
}

func (s *State) decodePosts(ctx context.Context, data []byte) error {
	var records []postDoc
	if len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return err
		}
	}

	postIDs := make([]*uint, 0, len(records))
	var commentIDs []*uint
	for _, rec := range records {
		postIDs = append(postIDs, rec.ID)
		for _, c := range rec.Comments {
			commentIDs = append(commentIDs, c.ID)
		}
	}
	posts := newIDAssigner(postIDs)
	comments := newIDAssigner(commentIDs)

	for _, rec := range records {
		id, backfilled := posts.assign(rec.ID)
		if backfilled || rec.Likes == nil || rec.Comments == nil {
			s.touch(docstore.Posts)
		}

		author, ok := s.UserByName(rec.Author)
		if !ok {
			warnDropped(ctx, docstore.Posts, "author", rec.Author)
			s.touch(docstore.Posts)
			continue
		}

		p := &models.Post{
			ID:        id,
			UserID:    author.ID,
			Content:   rec.Content,
			Image:     rec.Image,
			Likes:     []models.Like{},
			Comments:  []models.Comment{},
			CreatedAt: rec.Timestamp.Time,
		}
		for _, name := range rec.Likes {
			u, ok := s.UserByName(name)
			if !ok {
				warnDropped(ctx, docstore.Posts, "likes", name)
				s.touch(docstore.Posts)
				continue
			}
			if p.LikedByUser(u.ID) {
				continue
			}
			s.seq.like++
			p.Likes = append(p.Likes, models.Like{ID: s.seq.like, UserID: u.ID, PostID: id, CreatedAt: p.CreatedAt})
		}
		for _, c := range rec.Comments {
			cid, backfilled := comments.assign(c.ID)
			if backfilled {
				s.touch(docstore.Posts)
			}
			u, ok := s.UserByName(c.Author)
			if !ok {
				warnDropped(ctx, docstore.Posts, "comments.author", c.Author)
				s.touch(docstore.Posts)
				continue
			}
			p.Comments = append(p.Comments, models.Comment{
				ID:        cid,
				PostID:    id,
				UserID:    u.ID,
				Content:   c.Content,
				CreatedAt: c.Timestamp.Time,
			})
		}

		s.posts[id] = p
		s.postOrder = append(s.postOrder, id)
	}
	s.seq.post = posts.max()
	s.seq.comment = comments.max()
	return nil
}

func (s *State) decodeFollowers(ctx context.Context, data []byte) error {
	entries, err := docstore.DecodeKeyed(data)
	if err != nil {
		return err
	}
	for _, e := range entries {
		var names []string
		if err := json.Unmarshal(e.Value, &names); err != nil {
			return fmt.Errorf("followers of %q: %w", e.Key, err)
		}
		followed, ok := s.UserByName(e.Key)
		if !ok {
			warnDropped(ctx, docstore.Followers, "followed", e.Key)
			s.touch(docstore.Followers)
			continue
		}
		for _, name := range names {
			follower, ok := s.UserByName(name)
			if !ok {
				warnDropped(ctx, docstore.Followers, "follower", name)
				s.touch(docstore.Followers)
				continue
			}
			if follower.ID == followed.ID || s.IsFollowing(follower.ID, followed.ID) {
				s.touch(docstore.Followers)
				continue
			}
			s.insertFollow(follower.ID, followed.ID, followed.CreatedAt)
		}
	}
	return nil
}

func (s *State) decodeMessages(ctx context.Context, data []byte) error {
	entries, err := docstore.DecodeKeyed(data)
	if err != nil {
		return err
	}

	type pending struct {
		receiver string
		rec      messageDoc
	}
	var all []pending
	var ids []*uint
	for _, e := range entries {
		var list []messageDoc
		if err := json.Unmarshal(e.Value, &list); err != nil {
			return fmt.Errorf("messages of %q: %w", e.Key, err)
		}
		for _, rec := range list {
			all = append(all, pending{receiver: e.Key, rec: rec})
			ids = append(ids, rec.ID)
		}
	}

	assigner := newIDAssigner(ids)
	for _, p := range all {
		id, backfilled := assigner.assign(p.rec.ID)
		if backfilled {
			s.touch(docstore.Messages)
		}
		to := p.rec.To
		if to == "" {
			to = p.receiver
		}
		sender, ok := s.UserByName(p.rec.From)
		if !ok {
			warnDropped(ctx, docstore.Messages, "from", p.rec.From)
			s.touch(docstore.Messages)
			continue
		}
		receiver, ok := s.UserByName(to)
		if !ok {
			warnDropped(ctx, docstore.Messages, "to", to)
			s.touch(docstore.Messages)
			continue
		}
		s.messages = append(s.messages, &models.Message{
			ID:         id,
			SenderID:   sender.ID,
			ReceiverID: receiver.ID,
			Content:    p.rec.Content,
			CreatedAt:  p.rec.Timestamp.Time,
		})
	}
	sortMessages(s.messages)
	s.seq.message = assigner.max()
	return nil
}

func (s *State) decodeNotifications(ctx context.Context, data []byte) error {
	entries, err := docstore.DecodeKeyed(data)
	if err != nil {
		return err
	}

	lists := make([][]notificationDoc, len(entries))
	var ids []*uint
	for i, e := range entries {
		if err := json.Unmarshal(e.Value, &lists[i]); err != nil {
			return fmt.Errorf("notifications of %q: %w", e.Key, err)
		}
		for _, rec := range lists[i] {
			ids = append(ids, rec.ID)
		}
	}

	assigner := newIDAssigner(ids)
	for i, e := range entries {
		recipient, known := s.UserByName(e.Key)
		for _, rec := range lists[i] {
			id, backfilled := assigner.assign(rec.ID)
			if backfilled {
				s.touch(docstore.Notifications)
			}
			if !known {
				continue
			}
			kind := models.NotificationType(rec.Type)
			if !kind.Valid() {
				middleware.Logger.WarnContext(ctx, "dropping notification with unknown type",
					slog.String("recipient", e.Key), slog.String("type", rec.Type))
				s.touch(docstore.Notifications)
				continue
			}
			n := &models.Notification{
				ID:        id,
				Type:      kind,
				UserID:    recipient.ID,
				PostID:    rec.PostID,
				Message:   rec.Message,
				IsRead:    rec.Read,
				CreatedAt: rec.Timestamp.Time,
			}
			if rec.From != "" {
				if actor, ok := s.UserByName(rec.From); ok {
					actorID := actor.ID
					n.ActorID = &actorID
				} else {
					warnDropped(ctx, docstore.Notifications, "from", rec.From)
					s.touch(docstore.Notifications)
				}
			}
			s.appendNotification(n)
		}
		if !known {
			warnDropped(ctx, docstore.Notifications, "recipient", e.Key)
			s.touch(docstore.Notifications)
		}
	}
	s.seq.notification = assigner.max()
	return nil
}

// decodeSequences raises each id sequence to its persisted high-water mark.
// Without one, post ids still referenced by notifications are treated as used.
func (s *State) decodeSequences(data []byte) error {
	var saved sequencesDoc
	if len(data) > 0 {
		if err := json.Unmarshal(data, &saved); err != nil {
			return err
		}
	}
	s.saved = saved

	for _, list := range s.notifications {
		for _, n := range list {
			if n.PostID != nil {
				s.seq.post = max(s.seq.post, *n.PostID)
			}
		}
	}
	s.seq.user = max(s.seq.user, saved.User)
	s.seq.post = max(s.seq.post, saved.Post)
	s.seq.comment = max(s.seq.comment, saved.Comment)
	s.seq.message = max(s.seq.message, saved.Message)
	s.seq.notification = max(s.seq.notification, saved.Notification)
	return nil
}
