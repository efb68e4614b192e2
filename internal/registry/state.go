package registry

import (
	"sort"
	"time"

	"socialnest/internal/docstore"
	"socialnest/internal/models"
)

type followKey struct {
	follower uint
	followed uint
}

type sequences struct {
	user, post, like, comment, follow, message, notification uint
}

// State is the in-memory working set. It is not safe for concurrent use on its
// own; reach it through Registry.View or Registry.Update. Entities returned by
// its accessors must be treated as read-only.
type State struct {
	users     map[uint]*models.User
	userOrder []uint
	byName    map[string]uint
	byKey     map[string]uint

	posts     map[uint]*models.Post
	postOrder []uint

	follows     map[followKey]*models.Follow
	followOrder []followKey
	followers   map[uint][]uint
	following   map[uint][]uint

	messages []*models.Message

	notifications  map[uint][]*models.Notification
	recipientOrder []uint

	seq   sequences
	saved sequencesDoc
	dirty map[docstore.Collection]bool
	now   func() time.Time
}

func newState() *State {
	return &State{
		users:         make(map[uint]*models.User),
		byName:        make(map[string]uint),
		byKey:         make(map[string]uint),
		posts:         make(map[uint]*models.Post),
		follows:       make(map[followKey]*models.Follow),
		followers:     make(map[uint][]uint),
		following:     make(map[uint][]uint),
		notifications: make(map[uint][]*models.Notification),
		dirty:         make(map[docstore.Collection]bool),
		now:           time.Now,
	}
}

func (s *State) touch(c docstore.Collection) {
	s.dirty[c] = true
}

func (s *State) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC()
	}
	return t
}

// clone returns a deep copy of s with a clean dirty set.
func (s *State) clone() *State {
	c := newState()
	c.now = s.now
	c.seq = s.seq
	c.saved = s.saved

	for id, u := range s.users {
		cp := *u
		c.users[id] = &cp
	}
	c.userOrder = append([]uint(nil), s.userOrder...)
	for k, v := range s.byName {
		c.byName[k] = v
	}
	for k, v := range s.byKey {
		c.byKey[k] = v
	}

	for id, p := range s.posts {
		c.posts[id] = clonePost(p)
	}
	c.postOrder = append([]uint(nil), s.postOrder...)

	for k, f := range s.follows {
		cp := *f
		c.follows[k] = &cp
	}
	c.followOrder = append([]followKey(nil), s.followOrder...)
	for k, v := range s.followers {
		c.followers[k] = append([]uint(nil), v...)
	}
	for k, v := range s.following {
		c.following[k] = append([]uint(nil), v...)
	}

	c.messages = make([]*models.Message, len(s.messages))
	for i, m := range s.messages {
		cp := *m
		c.messages[i] = &cp
	}

	for uid, list := range s.notifications {
		cl := make([]*models.Notification, len(list))
		for i, n := range list {
			cl[i] = cloneNotification(n)
		}
		c.notifications[uid] = cl
	}
	c.recipientOrder = append([]uint(nil), s.recipientOrder...)

	return c
}

func clonePost(p *models.Post) *models.Post {
	cp := *p
	cp.Likes = append([]models.Like{}, p.Likes...)
	cp.Comments = append([]models.Comment{}, p.Comments...)
	cp.LikedBy = nil
	return &cp
}

func cloneNotification(n *models.Notification) *models.Notification {
	cp := *n
	if n.ActorID != nil {
		id := *n.ActorID
		cp.ActorID = &id
	}
	if n.PostID != nil {
		id := *n.PostID
		cp.PostID = &id
	}
	cp.Actor = nil
	return &cp
}

// Users

// UserByID returns the user with id.
func (s *State) UserByID(id uint) (*models.User, bool) {
	u, ok := s.users[id]
	return u, ok
}

// UserByName returns the user whose username matches exactly.
func (s *State) UserByName(username string) (*models.User, bool) {
	id, ok := s.byName[username]
	if !ok {
		return nil, false
	}
	return s.users[id], true
}

// UserByFoldedName returns the user whose username matches ignoring case.
func (s *State) UserByFoldedName(username string) (*models.User, bool) {
	id, ok := s.byKey[models.FoldUsername(username)]
	if !ok {
		return nil, false
	}
	return s.users[id], true
}

// Users returns every user in creation order.
func (s *State) Users() []*models.User {
	out := make([]*models.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		out = append(out, s.users[id])
	}
	return out
}

// AddUser stores u and assigns its ID.
func (s *State) AddUser(u *models.User) error {
	key := models.FoldUsername(u.Username)
	if _, taken := s.byKey[key]; taken {
		return models.NewDuplicateUsernameError(u.Username)
	}
	s.seq.user++
	u.ID = s.seq.user
	u.UsernameKey = key
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.CreatedAt = s.stamp(u.CreatedAt)
	u.UpdatedAt = u.CreatedAt

	s.insertUser(u)
	s.touch(docstore.Users)
	return nil
}

func (s *State) insertUser(u *models.User) {
	cp := *u
	s.users[cp.ID] = &cp
	s.userOrder = append(s.userOrder, cp.ID)
	s.byName[cp.Username] = cp.ID
	s.byKey[cp.UsernameKey] = cp.ID
}

// SaveUser replaces the mutable fields of an existing user.
func (s *State) SaveUser(u *models.User) error {
	cur, ok := s.users[u.ID]
	if !ok {
		return models.NewNotFoundError("User", u.ID)
	}
	cur.Password = u.Password
	cur.Bio = u.Bio
	cur.ProfilePic = u.ProfilePic
	cur.Role = u.Role
	cur.UpdatedAt = s.now().UTC()
	s.touch(docstore.Users)
	return nil
}

// Posts

// Post returns the post with id.
func (s *State) Post(id uint) (*models.Post, bool) {
	p, ok := s.posts[id]
	return p, ok
}

// Posts returns every post in creation order.
func (s *State) Posts() []*models.Post {
	out := make([]*models.Post, 0, len(s.postOrder))
	for _, id := range s.postOrder {
		out = append(out, s.posts[id])
	}
	return out
}

// PostsByUser returns the posts authored by userID in creation order.
func (s *State) PostsByUser(userID uint) []*models.Post {
	var out []*models.Post
	for _, id := range s.postOrder {
		if p := s.posts[id]; p.UserID == userID {
			out = append(out, p)
		}
	}
	return out
}

// AddPost stores p and assigns its ID.
func (s *State) AddPost(p *models.Post) error {
	if _, ok := s.users[p.UserID]; !ok {
		return models.NewNotFoundError("User", p.UserID)
	}
	s.seq.post++
	p.ID = s.seq.post
	p.CreatedAt = s.stamp(p.CreatedAt)

	cp := clonePost(p)
	s.posts[cp.ID] = cp
	s.postOrder = append(s.postOrder, cp.ID)
	s.touch(docstore.Posts)
	return nil
}

// DeletePost removes the post with id together with its likes and comments.
func (s *State) DeletePost(id uint) bool {
	if _, ok := s.posts[id]; !ok {
		return false
	}
	delete(s.posts, id)
	for i, pid := range s.postOrder {
		if pid == id {
			s.postOrder = append(s.postOrder[:i], s.postOrder[i+1:]...)
			break
		}
	}
	s.touch(docstore.Posts)
	return true
}

// AddLike adds userID to the post's like set. It reports false when already present.
func (s *State) AddLike(postID, userID uint) (bool, error) {
	p, ok := s.posts[postID]
	if !ok {
		return false, models.NewNotFoundError("Post", postID)
	}
	if p.LikedByUser(userID) {
		return false, nil
	}
	s.seq.like++
	p.Likes = append(p.Likes, models.Like{ID: s.seq.like, UserID: userID, PostID: postID, CreatedAt: s.now().UTC()})
	s.touch(docstore.Posts)
	return true, nil
}

// RemoveLike removes userID from the post's like set. It reports false when absent.
func (s *State) RemoveLike(postID, userID uint) (bool, error) {
	p, ok := s.posts[postID]
	if !ok {
		return false, models.NewNotFoundError("Post", postID)
	}
	for i, l := range p.Likes {
		if l.UserID == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			s.touch(docstore.Posts)
			return true, nil
		}
	}
	return false, nil
}

// AddComment appends c to its post and assigns its ID.
func (s *State) AddComment(c *models.Comment) error {
	p, ok := s.posts[c.PostID]
	if !ok {
		return models.NewNotFoundError("Post", c.PostID)
	}
	s.seq.comment++
	c.ID = s.seq.comment
	c.CreatedAt = s.stamp(c.CreatedAt)
	stored := *c
	stored.User = models.User{}
	p.Comments = append(p.Comments, stored)
	s.touch(docstore.Posts)
	return nil
}

// Follows

// IsFollowing reports whether follower follows followed.
func (s *State) IsFollowing(follower, followed uint) bool {
	_, ok := s.follows[followKey{follower, followed}]
	return ok
}

// AddFollow creates the edge follower -> followed. It reports false when the edge exists.
func (s *State) AddFollow(follower, followed uint) (bool, error) {
	if follower == followed {
		return false, models.NewValidationError("You cannot follow yourself")
	}
	if _, ok := s.users[followed]; !ok {
		return false, models.NewNotFoundError("User", followed)
	}
	if s.IsFollowing(follower, followed) {
		return false, nil
	}
	s.insertFollow(follower, followed, s.now().UTC())
	s.touch(docstore.Followers)
	return true, nil
}

func (s *State) insertFollow(follower, followed uint, at time.Time) {
	s.seq.follow++
	k := followKey{follower, followed}
	s.follows[k] = &models.Follow{ID: s.seq.follow, FollowerID: follower, FollowedID: followed, CreatedAt: at}
	s.followOrder = append(s.followOrder, k)
	s.followers[followed] = append(s.followers[followed], follower)
	s.following[follower] = append(s.following[follower], followed)
}

// Followers returns the users following userID, oldest edge first.
func (s *State) Followers(userID uint) []*models.User {
	return s.resolve(s.followers[userID])
}

// Following returns the users userID follows. Edges read from followers.json
// come grouped by followed user in file order; later edges follow in creation order.
func (s *State) Following(userID uint) []*models.User {
	return s.resolve(s.following[userID])
}

func (s *State) resolve(ids []uint) []*models.User {
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

// Messages

// AddMessage stores m and assigns its ID.
func (s *State) AddMessage(m *models.Message) error {
	if _, ok := s.users[m.SenderID]; !ok {
		return models.NewNotFoundError("User", m.SenderID)
	}
	if _, ok := s.users[m.ReceiverID]; !ok {
		return models.NewNotFoundError("User", m.ReceiverID)
	}
	s.seq.message++
	m.ID = s.seq.message
	m.CreatedAt = s.stamp(m.CreatedAt)
	stored := *m
	stored.Sender, stored.Receiver = models.User{}, models.User{}
	s.messages = append(s.messages, &stored)
	s.touch(docstore.Messages)
	return nil
}

// Conversation returns the messages exchanged between a and b in creation order.
func (s *State) Conversation(a, b uint) []*models.Message {
	var out []*models.Message
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out
}

// Notifications

// AddNotification appends n to its recipient's list and assigns its ID.
func (s *State) AddNotification(n *models.Notification) error {
	if _, ok := s.users[n.UserID]; !ok {
		return models.NewNotFoundError("User", n.UserID)
	}
	s.seq.notification++
	n.ID = s.seq.notification
	n.CreatedAt = s.stamp(n.CreatedAt)
	s.appendNotification(cloneNotification(n))
	s.touch(docstore.Notifications)
	return nil
}

func (s *State) appendNotification(n *models.Notification) {
	if _, seen := s.notifications[n.UserID]; !seen {
		s.recipientOrder = append(s.recipientOrder, n.UserID)
	}
	s.notifications[n.UserID] = append(s.notifications[n.UserID], n)
}

// NotificationsFor returns userID's notifications in creation order.
func (s *State) NotificationsFor(userID uint) []*models.Notification {
	return s.notifications[userID]
}

// MarkAllRead flags every unread notification of userID as read and returns how many changed.
func (s *State) MarkAllRead(userID uint) int64 {
	var changed int64
	for _, n := range s.notifications[userID] {
		if !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	if changed > 0 {
		s.touch(docstore.Notifications)
	}
	return changed
}

// UnreadCount returns how many of userID's notifications are unread.
func (s *State) UnreadCount(userID uint) int64 {
	var n int64
	for _, note := range s.notifications[userID] {
		if !note.IsRead {
			n++
		}
	}
	return n
}

func sortMessages(msgs []*models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
}
