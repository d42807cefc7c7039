package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"unionvote/internal/models"
	"unionvote/internal/storage"
	"unionvote/internal/utils"
)

// Store implements storage.Storage in memory. Everything runs under one
// mutex, which stands in for the transactions the Postgres store uses:
// compound mutations (row + counter) are atomic the same way.
type Store struct {
	mu  sync.RWMutex
	seq uint

	users        map[uint]*models.User
	unions       map[uint]*models.Union
	memberships  map[uint]*models.Membership
	channels     map[uint]*models.Channel
	posts        map[uint]*models.Post
	postTags     map[uint]map[uint]uint // postID -> channelID -> tag row id
	comments     map[uint]*models.Comment
	votes        map[uint]*models.Vote
	sessions     map[uint]*models.ChannelSession
	participants map[uint]*models.SessionParticipant
	candidates   map[uint]*models.Candidate
	pledges      map[uint]*models.Pledge
}

func New() *Store {
	return &Store{
		users:        make(map[uint]*models.User),
		unions:       make(map[uint]*models.Union),
		memberships:  make(map[uint]*models.Membership),
		channels:     make(map[uint]*models.Channel),
		posts:        make(map[uint]*models.Post),
		postTags:     make(map[uint]map[uint]uint),
		comments:     make(map[uint]*models.Comment),
		votes:        make(map[uint]*models.Vote),
		sessions:     make(map[uint]*models.ChannelSession),
		participants: make(map[uint]*models.SessionParticipant),
		candidates:   make(map[uint]*models.Candidate),
		pledges:      make(map[uint]*models.Pledge),
	}
}

func (s *Store) nextID() uint {
	s.seq++
	return s.seq
}

// === Users ===

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("email already registered: %w", storage.ErrConflict)
		}
	}

	user.ID = s.nextID()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getUser(id)
}

func (s *Store) getUser(id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
}

// === Unions ===

func (s *Store) CreateUnion(ctx context.Context, union *models.Union) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(union.Name) == "" {
		return fmt.Errorf("union name cannot be empty: %w", storage.ErrValidation)
	}
	for _, u := range s.unions {
		if u.Name == union.Name {
			return fmt.Errorf("union name already taken: %w", storage.ErrConflict)
		}
	}

	union.ID = s.nextID()
	union.CreatedAt = time.Now().UTC()
	union.UpdatedAt = union.CreatedAt
	cp := *union
	s.unions[union.ID] = &cp

	// The creator is a member from the start.
	m := &models.Membership{
		ID:        s.nextID(),
		UnionID:   union.ID,
		UserID:    union.CreatedBy,
		CreatedAt: union.CreatedAt,
	}
	s.memberships[m.ID] = m
	return nil
}

func (s *Store) GetUnion(ctx context.Context, id uint) (*models.Union, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.unions[id]
	if !ok {
		return nil, fmt.Errorf("union %d: %w", id, storage.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *Store) ListUnions(ctx context.Context) ([]models.Union, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Union, 0, len(s.unions))
	for _, u := range s.unions {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) JoinUnion(ctx context.Context, unionID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.unions[unionID]; !ok {
		return fmt.Errorf("union %d: %w", unionID, storage.ErrNotFound)
	}
	for _, m := range s.memberships {
		if m.UnionID == unionID && m.UserID == userID {
			return fmt.Errorf("already a member of this union: %w", storage.ErrConflict)
		}
	}

	m := &models.Membership{
		ID:        s.nextID(),
		UnionID:   unionID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	s.memberships[m.ID] = m
	return nil
}

func (s *Store) LeaveUnion(ctx context.Context, unionID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, m := range s.memberships {
		if m.UnionID == unionID && m.UserID == userID {
			delete(s.memberships, id)
			return nil
		}
	}
	return fmt.Errorf("membership: %w", storage.ErrNotFound)
}

func (s *Store) IsMember(ctx context.Context, unionID, userID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.memberships {
		if m.UnionID == unionID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListMembers(ctx context.Context, unionID uint) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.unions[unionID]; !ok {
		return nil, fmt.Errorf("union %d: %w", unionID, storage.ErrNotFound)
	}

	var out []models.User
	for _, m := range s.memberships {
		if m.UnionID != unionID {
			continue
		}
		if u, ok := s.users[m.UserID]; ok {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// === Channels ===

func (s *Store) CreateChannel(ctx context.Context, channel *models.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.unions[channel.UnionID]; !ok {
		return fmt.Errorf("union %d: %w", channel.UnionID, storage.ErrNotFound)
	}
	if strings.TrimSpace(channel.Name) == "" {
		return fmt.Errorf("channel name cannot be empty: %w", storage.ErrValidation)
	}
	if !channel.Type.Valid() {
		return fmt.Errorf("channel type must be text, voice or video: %w", storage.ErrValidation)
	}

	channel.ID = s.nextID()
	channel.CreatedAt = time.Now().UTC()
	channel.UpdatedAt = channel.CreatedAt
	cp := *channel
	s.channels[channel.ID] = &cp
	return nil
}

func (s *Store) GetChannel(ctx context.Context, id uint) (*models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[id]
	if !ok {
		return nil, fmt.Errorf("channel %d: %w", id, storage.ErrNotFound)
	}
	cp := *ch
	return &cp, nil
}

func (s *Store) ListChannels(ctx context.Context, unionID uint) ([]models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Channel
	for _, ch := range s.channels {
		if ch.UnionID == unionID {
			out = append(out, *ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteChannel(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.channels[id]; !ok {
		return fmt.Errorf("channel %d: %w", id, storage.ErrNotFound)
	}
	// Deleting a channel that still homes posts would orphan them.
	for _, p := range s.posts {
		if p.ChannelID == id {
			return fmt.Errorf("channel still has posts: %w", storage.ErrConflict)
		}
	}

	delete(s.channels, id)
	for postID, tags := range s.postTags {
		if _, ok := tags[id]; ok {
			delete(tags, id)
			if len(tags) == 0 {
				delete(s.postTags, postID)
			}
		}
	}
	for sid, sess := range s.sessions {
		if sess.ChannelID == id {
			delete(s.sessions, sid)
			for pid, p := range s.participants {
				if p.SessionID == sid {
					delete(s.participants, pid)
				}
			}
		}
	}
	return nil
}

// === Posts ===

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.channels[post.ChannelID]
	if !ok {
		return fmt.Errorf("channel %d: %w", post.ChannelID, storage.ErrNotFound)
	}
	if strings.TrimSpace(post.Title) == "" {
		return fmt.Errorf("post title cannot be empty: %w", storage.ErrValidation)
	}

	post.ID = s.nextID()
	post.UnionID = ch.UnionID // home channel decides the union
	post.Upvotes = 0
	post.Downvotes = 0
	post.CommentCount = 0
	post.CreatedAt = time.Now().UTC()
	post.UpdatedAt = post.CreatedAt
	cp := *post
	s.posts[post.ID] = &cp

	s.fillPostUser(post)
	return nil
}

func (s *Store) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPost(id)
}

func (s *Store) getPost(id uint) (*models.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, storage.ErrNotFound)
	}
	cp := *p
	s.fillPostUser(&cp)
	return &cp, nil
}

func (s *Store) fillPostUser(p *models.Post) {
	if u, ok := s.users[p.UserID]; ok {
		p.User = *u
	}
}

func (s *Store) UpdatePost(ctx context.Context, id uint, title, content string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, storage.ErrNotFound)
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("post title cannot be empty: %w", storage.ErrValidation)
	}

	p.Title = title
	p.Content = content
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	s.fillPostUser(&cp)
	return &cp, nil
}

func (s *Store) DeletePost(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return fmt.Errorf("post %d: %w", id, storage.ErrNotFound)
	}

	delete(s.posts, id)
	delete(s.postTags, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	for vid, v := range s.votes {
		if v.PostID != nil && *v.PostID == id {
			delete(s.votes, vid)
			continue
		}
		// votes on the comments deleted above are orphans now
		if v.CommentID != nil {
			if _, ok := s.comments[*v.CommentID]; !ok {
				delete(s.votes, vid)
			}
		}
	}
	return nil
}

func (s *Store) ListPosts(ctx context.Context, q storage.PostQuery) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Post
	for _, p := range s.posts {
		if q.UnionID != 0 && p.UnionID != q.UnionID {
			continue
		}
		if q.ChannelID != 0 && p.ChannelID != q.ChannelID && !s.hasTag(p.ID, q.ChannelID) {
			continue
		}
		if !q.Since.IsZero() && p.CreatedAt.Before(q.Since) {
			continue
		}
		cp := *p
		s.fillPostUser(&cp)
		out = append(out, cp)
	}

	sortPosts(out, q.Sort)

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []models.Post{}, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func sortPosts(posts []models.Post, by string) {
	switch by {
	case storage.SortTop:
		sort.Slice(posts, func(i, j int) bool {
			si := posts[i].Upvotes - posts[i].Downvotes
			sj := posts[j].Upvotes - posts[j].Downvotes
			if si != sj {
				return si > sj
			}
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	case storage.SortTrending:
		sort.Slice(posts, func(i, j int) bool {
			ri := utils.TrendingScore(posts[i].CreatedAt, posts[i].Upvotes, posts[i].Downvotes, posts[i].CommentCount)
			rj := utils.TrendingScore(posts[j].CreatedAt, posts[j].Upvotes, posts[j].Downvotes, posts[j].CommentCount)
			if ri != rj {
				return ri > rj
			}
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	default: // storage.SortNew
		sort.Slice(posts, func(i, j int) bool {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	}
}

func (s *Store) hasTag(postID, channelID uint) bool {
	tags, ok := s.postTags[postID]
	if !ok {
		return false
	}
	_, ok = tags[channelID]
	return ok
}

func (s *Store) TagChannel(ctx context.Context, postID, channelID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return fmt.Errorf("post %d: %w", postID, storage.ErrNotFound)
	}
	ch, ok := s.channels[channelID]
	if !ok {
		return fmt.Errorf("channel %d: %w", channelID, storage.ErrNotFound)
	}
	if ch.UnionID != p.UnionID {
		return fmt.Errorf("channel belongs to a different union: %w", storage.ErrValidation)
	}
	if p.ChannelID == channelID {
		return fmt.Errorf("post already lives in its home channel: %w", storage.ErrValidation)
	}
	if s.hasTag(postID, channelID) {
		return fmt.Errorf("post already tagged into channel: %w", storage.ErrConflict)
	}

	if s.postTags[postID] == nil {
		s.postTags[postID] = make(map[uint]uint)
	}
	s.postTags[postID][channelID] = s.nextID()
	return nil
}

func (s *Store) UntagChannel(ctx context.Context, postID, channelID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return fmt.Errorf("post %d: %w", postID, storage.ErrNotFound)
	}
	if p.ChannelID == channelID {
		return fmt.Errorf("cannot untag a post from its home channel: %w", storage.ErrValidation)
	}
	if !s.hasTag(postID, channelID) {
		return fmt.Errorf("tag: %w", storage.ErrNotFound)
	}

	delete(s.postTags[postID], channelID)
	if len(s.postTags[postID]) == 0 {
		delete(s.postTags, postID)
	}
	return nil
}

func (s *Store) ListPostChannels(ctx context.Context, postID uint) ([]models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", postID, storage.ErrNotFound)
	}

	var out []models.Channel
	if home, ok := s.channels[p.ChannelID]; ok {
		out = append(out, *home)
	}
	var tagged []models.Channel
	for chID := range s.postTags[postID] {
		if ch, ok := s.channels[chID]; ok {
			tagged = append(tagged, *ch)
		}
	}
	sort.Slice(tagged, func(i, j int) bool { return tagged[i].ID < tagged[j].ID })
	return append(out, tagged...), nil
}

// === Comments ===

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[comment.PostID]
	if !ok {
		return fmt.Errorf("post %d: %w", comment.PostID, storage.ErrNotFound)
	}
	if strings.TrimSpace(comment.Content) == "" {
		return fmt.Errorf("comment content cannot be empty: %w", storage.ErrValidation)
	}

	comment.Depth = 0
	if comment.ParentID != nil {
		parent, ok := s.comments[*comment.ParentID]
		if !ok {
			return fmt.Errorf("parent comment %d: %w", *comment.ParentID, storage.ErrNotFound)
		}
		if parent.PostID != comment.PostID {
			return fmt.Errorf("parent comment belongs to a different post: %w", storage.ErrValidation)
		}
		comment.Depth = parent.Depth + 1
	}

	comment.ID = s.nextID()
	comment.IsDeleted = false
	comment.Upvotes = 0
	comment.Downvotes = 0
	comment.CreatedAt = time.Now().UTC()
	cp := *comment
	s.comments[comment.ID] = &cp

	post.CommentCount++

	s.fillCommentUser(comment)
	return nil
}

func (s *Store) fillCommentUser(c *models.Comment) {
	if u, ok := s.users[c.UserID]; ok {
		c.User = *u
	}
}

func (s *Store) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %d: %w", id, storage.ErrNotFound)
	}
	cp := *c
	if cp.IsDeleted {
		cp.Content = ""
	}
	s.fillCommentUser(&cp)
	return &cp, nil
}

func (s *Store) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.posts[postID]; !ok {
		return nil, fmt.Errorf("post %d: %w", postID, storage.ErrNotFound)
	}

	var out []models.Comment
	for _, c := range s.comments {
		if c.PostID != postID {
			continue
		}
		cp := *c
		if cp.IsDeleted {
			cp.Content = ""
		}
		s.fillCommentUser(&cp)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok || c.IsDeleted {
		return fmt.Errorf("comment %d: %w", id, storage.ErrNotFound)
	}

	// Tombstone rather than delete: replies keep a resolvable parent.
	c.IsDeleted = true

	if post, ok := s.posts[c.PostID]; ok && post.CommentCount > 0 {
		post.CommentCount--
	}
	return nil
}

// === Votes ===

func (s *Store) CastVote(ctx context.Context, vote *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if (vote.PostID == nil) == (vote.CommentID == nil) {
		return fmt.Errorf("vote must target exactly one of post or comment: %w", storage.ErrValidation)
	}
	if !vote.Type.Valid() {
		return fmt.Errorf("vote type must be upvote or downvote: %w", storage.ErrValidation)
	}

	up, down, err := s.voteCounters(vote)
	if err != nil {
		return err
	}

	// One live vote per (user, target): a same-type re-vote is a no-op,
	// an opposite-type re-vote replaces the old one.
	for _, existing := range s.votes {
		if existing.UserID != vote.UserID || !sameTarget(existing, vote) {
			continue
		}
		if existing.Type == vote.Type {
			*vote = *existing
			return nil
		}
		decCounter(up, down, existing.Type)
		incCounter(up, down, vote.Type)
		existing.Type = vote.Type
		*vote = *existing
		return nil
	}

	vote.ID = s.nextID()
	vote.CreatedAt = time.Now().UTC()
	cp := *vote
	s.votes[vote.ID] = &cp
	incCounter(up, down, vote.Type)
	return nil
}

// voteCounters resolves the target entity's counter fields, failing
// with NotFound when the target row is gone.
func (s *Store) voteCounters(v *models.Vote) (up, down *int, err error) {
	if v.PostID != nil {
		p, ok := s.posts[*v.PostID]
		if !ok {
			return nil, nil, fmt.Errorf("post %d: %w", *v.PostID, storage.ErrNotFound)
		}
		return &p.Upvotes, &p.Downvotes, nil
	}
	c, ok := s.comments[*v.CommentID]
	if !ok {
		return nil, nil, fmt.Errorf("comment %d: %w", *v.CommentID, storage.ErrNotFound)
	}
	return &c.Upvotes, &c.Downvotes, nil
}

func sameTarget(a, b *models.Vote) bool {
	if a.PostID != nil && b.PostID != nil {
		return *a.PostID == *b.PostID
	}
	if a.CommentID != nil && b.CommentID != nil {
		return *a.CommentID == *b.CommentID
	}
	return false
}

func incCounter(up, down *int, t models.VoteType) {
	if t == models.VoteUp {
		*up++
	} else {
		*down++
	}
}

// decCounter clamps at zero so a double-delete race can never drive a
// counter negative.
func decCounter(up, down *int, t models.VoteType) {
	if t == models.VoteUp {
		if *up > 0 {
			*up--
		}
	} else {
		if *down > 0 {
			*down--
		}
	}
}

func (s *Store) GetVote(ctx context.Context, id uint) (*models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.votes[id]
	if !ok {
		return nil, fmt.Errorf("vote %d: %w", id, storage.ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

func (s *Store) DeleteVote(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.votes[id]
	if !ok {
		return fmt.Errorf("vote %d: %w", id, storage.ErrNotFound)
	}
	delete(s.votes, id)

	if up, down, err := s.voteCounters(v); err == nil {
		decCounter(up, down, v.Type)
	}
	return nil
}

// === Live sessions ===

func (s *Store) CreateSession(ctx context.Context, session *models.ChannelSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.channels[session.ChannelID]; !ok {
		return fmt.Errorf("channel %d: %w", session.ChannelID, storage.ErrNotFound)
	}
	for _, existing := range s.sessions {
		if existing.ChannelID == session.ChannelID && existing.IsActive {
			return fmt.Errorf("channel already has an active session: %w", storage.ErrConflict)
		}
	}

	session.ID = s.nextID()
	session.IsActive = true
	session.StartedAt = time.Now().UTC()
	session.EndedAt = nil
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *Store) GetSession(ctx context.Context, id uint) (*models.ChannelSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %d: %w", id, storage.ErrNotFound)
	}
	cp := *sess
	return &cp, nil
}

func (s *Store) GetActiveSession(ctx context.Context, channelID uint) (*models.ChannelSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sess := range s.sessions {
		if sess.ChannelID == channelID && sess.IsActive {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("active session for channel %d: %w", channelID, storage.ErrNotFound)
}

func (s *Store) EndSession(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %d: %w", id, storage.ErrNotFound)
	}
	if !sess.IsActive {
		return nil // already ended
	}

	now := time.Now().UTC()
	sess.IsActive = false
	sess.EndedAt = &now

	for _, p := range s.participants {
		if p.SessionID == id && p.IsActive {
			p.IsActive = false
			leftAt := now
			p.LeftAt = &leftAt
		}
	}
	return nil
}

func (s *Store) JoinSession(ctx context.Context, sessionID, userID uint) (*models.SessionParticipant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %d: %w", sessionID, storage.ErrNotFound)
	}
	if !sess.IsActive {
		return nil, fmt.Errorf("session has ended: %w", storage.ErrConflict)
	}

	now := time.Now().UTC()
	for _, p := range s.participants {
		if p.SessionID != sessionID || p.UserID != userID {
			continue
		}
		if !p.IsActive {
			// Reactivate rather than duplicate: the participant keeps a
			// stable identity across disconnect/reconnect.
			p.IsActive = true
			p.JoinedAt = now
			p.LeftAt = nil
		}
		cp := *p
		s.fillParticipantUser(&cp)
		return &cp, nil
	}

	p := &models.SessionParticipant{
		ID:           s.nextID(),
		SessionID:    sessionID,
		UserID:       userID,
		IsActive:     true,
		JoinedAt:     now,
		IsMuted:      true,
		VideoEnabled: false,
	}
	s.participants[p.ID] = p
	cp := *p
	s.fillParticipantUser(&cp)
	return &cp, nil
}

func (s *Store) fillParticipantUser(p *models.SessionParticipant) {
	if u, ok := s.users[p.UserID]; ok {
		p.User = *u
	}
}

func (s *Store) LeaveSession(ctx context.Context, participantID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok {
		return fmt.Errorf("participant %d: %w", participantID, storage.ErrNotFound)
	}
	if !p.IsActive {
		return nil // leaving twice is a no-op
	}

	now := time.Now().UTC()
	p.IsActive = false
	p.LeftAt = &now
	return nil
}

func (s *Store) GetParticipant(ctx context.Context, id uint) (*models.SessionParticipant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[id]
	if !ok {
		return nil, fmt.Errorf("participant %d: %w", id, storage.ErrNotFound)
	}
	cp := *p
	s.fillParticipantUser(&cp)
	return &cp, nil
}

func (s *Store) GetParticipantByUser(ctx context.Context, sessionID, userID uint) (*models.SessionParticipant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.participants {
		if p.SessionID == sessionID && p.UserID == userID {
			cp := *p
			s.fillParticipantUser(&cp)
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("participant: %w", storage.ErrNotFound)
}

func (s *Store) ListParticipants(ctx context.Context, sessionID uint) ([]models.SessionParticipant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("session %d: %w", sessionID, storage.ErrNotFound)
	}

	var out []models.SessionParticipant
	for _, p := range s.participants {
		if p.SessionID == sessionID && p.IsActive {
			cp := *p
			s.fillParticipantUser(&cp)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

func (s *Store) UpdateParticipantFlags(ctx context.Context, id uint, muted, videoEnabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[id]
	if !ok {
		return fmt.Errorf("participant %d: %w", id, storage.ErrNotFound)
	}
	p.IsMuted = muted
	p.VideoEnabled = videoEnabled
	return nil
}

// === Candidates and pledges ===

func (s *Store) CreateCandidate(ctx context.Context, candidate *models.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.unions[candidate.UnionID]; !ok {
		return fmt.Errorf("union %d: %w", candidate.UnionID, storage.ErrNotFound)
	}
	if strings.TrimSpace(candidate.Name) == "" {
		return fmt.Errorf("candidate name cannot be empty: %w", storage.ErrValidation)
	}

	candidate.ID = s.nextID()
	candidate.CreatedAt = time.Now().UTC()
	cp := *candidate
	s.candidates[candidate.ID] = &cp
	return nil
}

func (s *Store) GetCandidate(ctx context.Context, id uint) (*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.candidates[id]
	if !ok {
		return nil, fmt.Errorf("candidate %d: %w", id, storage.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListCandidates(ctx context.Context, unionID uint) ([]models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Candidate
	for _, c := range s.candidates {
		if c.UnionID == unionID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreatePledge(ctx context.Context, pledge *models.Pledge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.candidates[pledge.CandidateID]; !ok {
		return fmt.Errorf("candidate %d: %w", pledge.CandidateID, storage.ErrNotFound)
	}
	for _, p := range s.pledges {
		if p.CandidateID == pledge.CandidateID && p.UserID == pledge.UserID {
			return fmt.Errorf("already pledged to this candidate: %w", storage.ErrConflict)
		}
	}

	pledge.ID = s.nextID()
	pledge.CreatedAt = time.Now().UTC()
	cp := *pledge
	s.pledges[pledge.ID] = &cp
	return nil
}

func (s *Store) GetPledge(ctx context.Context, id uint) (*models.Pledge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pledges[id]
	if !ok {
		return nil, fmt.Errorf("pledge %d: %w", id, storage.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListPledges(ctx context.Context, candidateID uint) ([]models.Pledge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Pledge
	for _, p := range s.pledges {
		if p.CandidateID == candidateID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeletePledge(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pledges[id]; !ok {
		return fmt.Errorf("pledge %d: %w", id, storage.ErrNotFound)
	}
	delete(s.pledges, id)
	return nil
}

var _ storage.Storage = (*Store)(nil)
