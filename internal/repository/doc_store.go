package repository

import (
	"context"
	"sort"

	"socialnest/internal/models"
	"socialnest/internal/registry"
)

// docStore serves every repository from the in-memory registry. Outside
// Atomic each write is its own registry update; inside Atomic all writes land
// on one working copy that is committed when fn returns.
type docStore struct {
	reg   *registry.Registry
	state *registry.State
}

// NewDocumentStore returns a Store backed by reg.
func NewDocumentStore(reg *registry.Registry) Store {
	return &docStore{reg: reg}
}

func (s *docStore) Users() UserRepository                 { return &docUsers{s} }
func (s *docStore) Posts() PostRepository                 { return &docPosts{s} }
func (s *docStore) Follows() FollowRepository             { return &docFollows{s} }
func (s *docStore) Messages() MessageRepository           { return &docMessages{s} }
func (s *docStore) Notifications() NotificationRepository { return &docNotifications{s} }

func (s *docStore) Atomic(ctx context.Context, fn func(Store) error) error {
	if s.state != nil {
		return fn(s)
	}
	return s.reg.Update(ctx, func(st *registry.State) error {
		return fn(&docStore{reg: s.reg, state: st})
	})
}

func (s *docStore) Ping(context.Context) error { return nil }
func (s *docStore) Close() error               { return nil }

func (s *docStore) read(fn func(*registry.State) error) error {
	if s.state != nil {
		return fn(s.state)
	}
	return s.reg.View(fn)
}

func (s *docStore) write(ctx context.Context, fn func(*registry.State) error) error {
	if s.state != nil {
		return fn(s.state)
	}
	return s.reg.Update(ctx, fn)
}

// Hydration copies registry entities into standalone values with their
// relations resolved.

func userValue(st *registry.State, id uint) models.User {
	if u, ok := st.UserByID(id); ok {
		return *u
	}
	return models.User{ID: id}
}

func postValue(st *registry.State, p *models.Post) models.Post {
	out := *p
	out.User = userValue(st, p.UserID)
	out.Likes = make([]models.Like, len(p.Likes))
	for i, l := range p.Likes {
		l.User = userValue(st, l.UserID)
		out.Likes[i] = l
	}
	out.Comments = make([]models.Comment, len(p.Comments))
	for i, c := range p.Comments {
		c.User = userValue(st, c.UserID)
		out.Comments[i] = c
	}
	out.FillDerived()
	return out
}

func notificationValue(st *registry.State, n *models.Notification) models.Notification {
	out := *n
	if n.ActorID != nil {
		actorID := *n.ActorID
		out.ActorID = &actorID
		if u, ok := st.UserByID(actorID); ok {
			actor := *u
			out.Actor = &actor
		}
	}
	if n.PostID != nil {
		postID := *n.PostID
		out.PostID = &postID
	}
	return out
}

func usersValue(list []*models.User) []models.User {
	out := make([]models.User, 0, len(list))
	for _, u := range list {
		out = append(out, *u)
	}
	return out
}

type docUsers struct{ s *docStore }

func (r *docUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	var out models.User
	err := r.s.read(func(st *registry.State) error {
		u, ok := st.UserByID(id)
		if !ok {
			return models.NewNotFoundError("User", id)
		}
		out = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *docUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	var out models.User
	err := r.s.read(func(st *registry.State) error {
		u, ok := st.UserByName(username)
		if !ok {
			return models.NewNotFoundError("User", username)
		}
		out = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *docUsers) FindByFoldedUsername(_ context.Context, username string) (*models.User, error) {
	var out *models.User
	err := r.s.read(func(st *registry.State) error {
		if u, ok := st.UserByFoldedName(username); ok {
			cp := *u
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *docUsers) Create(ctx context.Context, user *models.User) error {
	return r.s.write(ctx, func(st *registry.State) error {
		return st.AddUser(user)
	})
}

func (r *docUsers) UpdateProfile(ctx context.Context, id uint, bio, profilePic *string) (*models.User, error) {
	var out models.User
	err := r.s.write(ctx, func(st *registry.State) error {
		u, ok := st.UserByID(id)
		if !ok {
			return models.NewNotFoundError("User", id)
		}
		next := *u
		if bio != nil {
			next.Bio = *bio
		}
		if profilePic != nil {
			next.ProfilePic = *profilePic
		}
		if bio != nil || profilePic != nil {
			if err := st.SaveUser(&next); err != nil {
				return err
			}
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *docUsers) SetPassword(ctx context.Context, id uint, hash string) error {
	return r.modify(ctx, id, func(u *models.User) { u.Password = hash })
}

func (r *docUsers) SetRole(ctx context.Context, id uint, role models.Role) error {
	return r.modify(ctx, id, func(u *models.User) { u.Role = role })
}

func (r *docUsers) modify(ctx context.Context, id uint, change func(*models.User)) error {
	return r.s.write(ctx, func(st *registry.State) error {
		u, ok := st.UserByID(id)
		if !ok {
			return models.NewNotFoundError("User", id)
		}
		next := *u
		change(&next)
		return st.SaveUser(&next)
	})
}

func (r *docUsers) List(_ context.Context, limit, offset int) ([]models.User, error) {
	limit = clampLimit(limit, 50)
	var out []models.User
	err := r.s.read(func(st *registry.State) error {
		all := st.Users()
		if offset >= len(all) {
			return nil
		}
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		out = usersValue(all[offset:end])
		return nil
	})
	return out, err
}

func (r *docUsers) Count(context.Context) (int64, error) {
	var n int64
	err := r.s.read(func(st *registry.State) error {
		n = int64(len(st.Users()))
		return nil
	})
	return n, err
}

type docPosts struct{ s *docStore }

func (r *docPosts) GetByID(_ context.Context, id uint) (*models.Post, error) {
	var out models.Post
	err := r.s.read(func(st *registry.State) error {
		p, ok := st.Post(id)
		if !ok {
			return models.NewNotFoundError("Post", id)
		}
		out = postValue(st, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func newestFirst(st *registry.State, posts []*models.Post, limit int) []models.Post {
	out := make([]models.Post, 0, limit)
	for i := len(posts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, postValue(st, posts[i]))
	}
	return out
}

func (r *docPosts) List(_ context.Context, limit int) ([]models.Post, error) {
	var out []models.Post
	err := r.s.read(func(st *registry.State) error {
		out = newestFirst(st, st.Posts(), clampLimit(limit, 50))
		return nil
	})
	return out, err
}

func (r *docPosts) ListByUser(_ context.Context, userID uint, limit int) ([]models.Post, error) {
	var out []models.Post
	err := r.s.read(func(st *registry.State) error {
		out = newestFirst(st, st.PostsByUser(userID), clampLimit(limit, 50))
		return nil
	})
	return out, err
}

func (r *docPosts) Create(ctx context.Context, post *models.Post) error {
	return r.s.write(ctx, func(st *registry.State) error {
		return st.AddPost(post)
	})
}

func (r *docPosts) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func(st *registry.State) error {
		if !st.DeletePost(id) {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
}

func (r *docPosts) Like(ctx context.Context, postID, userID uint) (bool, error) {
	var added bool
	err := r.s.write(ctx, func(st *registry.State) error {
		var err error
		added, err = st.AddLike(postID, userID)
		return err
	})
	return added, err
}

func (r *docPosts) Unlike(ctx context.Context, postID, userID uint) (bool, error) {
	var removed bool
	err := r.s.write(ctx, func(st *registry.State) error {
		var err error
		removed, err = st.RemoveLike(postID, userID)
		return err
	})
	return removed, err
}

func (r *docPosts) IsLiked(_ context.Context, postID, userID uint) (bool, error) {
	var liked bool
	err := r.s.read(func(st *registry.State) error {
		p, ok := st.Post(postID)
		if !ok {
			return models.NewNotFoundError("Post", postID)
		}
		liked = p.LikedByUser(userID)
		return nil
	})
	return liked, err
}

func (r *docPosts) AddComment(ctx context.Context, comment *models.Comment) error {
	return r.s.write(ctx, func(st *registry.State) error {
		return st.AddComment(comment)
	})
}

type docFollows struct{ s *docStore }

func (r *docFollows) Follow(ctx context.Context, followerID, followedID uint) (bool, error) {
	var created bool
	err := r.s.write(ctx, func(st *registry.State) error {
		var err error
		created, err = st.AddFollow(followerID, followedID)
		return err
	})
	return created, err
}

func (r *docFollows) IsFollowing(_ context.Context, followerID, followedID uint) (bool, error) {
	var following bool
	err := r.s.read(func(st *registry.State) error {
		following = st.IsFollowing(followerID, followedID)
		return nil
	})
	return following, err
}

func (r *docFollows) Followers(_ context.Context, userID uint) ([]models.User, error) {
	var out []models.User
	err := r.s.read(func(st *registry.State) error {
		out = usersValue(st.Followers(userID))
		return nil
	})
	return out, err
}

func (r *docFollows) Following(_ context.Context, userID uint) ([]models.User, error) {
	var out []models.User
	err := r.s.read(func(st *registry.State) error {
		out = usersValue(st.Following(userID))
		return nil
	})
	return out, err
}

type docMessages struct{ s *docStore }

func (r *docMessages) Create(ctx context.Context, message *models.Message) error {
	return r.s.write(ctx, func(st *registry.State) error {
		return st.AddMessage(message)
	})
}

func (r *docMessages) Conversation(_ context.Context, a, b uint, limit int) ([]models.Message, error) {
	limit = clampLimit(limit, 50)
	var out []models.Message
	err := r.s.read(func(st *registry.State) error {
		all := st.Conversation(a, b)
		if len(all) > limit {
			all = all[len(all)-limit:]
		}
		out = make([]models.Message, 0, len(all))
		for _, m := range all {
			v := *m
			v.Sender = userValue(st, m.SenderID)
			v.Receiver = userValue(st, m.ReceiverID)
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

type docNotifications struct{ s *docStore }

func (r *docNotifications) Create(ctx context.Context, n *models.Notification) error {
	return r.s.write(ctx, func(st *registry.State) error {
		return st.AddNotification(n)
	})
}

func (r *docNotifications) ListForUser(_ context.Context, userID uint, limit int) ([]models.Notification, error) {
	limit = clampLimit(limit, 50)
	var out []models.Notification
	err := r.s.read(func(st *registry.State) error {
		all := st.NotificationsFor(userID)
		sorted := make([]*models.Notification, len(all))
		copy(sorted, all)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })
		if len(sorted) > limit {
			sorted = sorted[:limit]
		}
		out = make([]models.Notification, 0, len(sorted))
		for _, n := range sorted {
			out = append(out, notificationValue(st, n))
		}
		return nil
	})
	return out, err
}

func (r *docNotifications) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	var changed int64
	err := r.s.write(ctx, func(st *registry.State) error {
		changed = st.MarkAllRead(userID)
		return nil
	})
	return changed, err
}

func (r *docNotifications) UnreadCount(_ context.Context, userID uint) (int64, error) {
	var n int64
	err := r.s.read(func(st *registry.State) error {
		n = st.UnreadCount(userID)
		return nil
	})
	return n, err
}
