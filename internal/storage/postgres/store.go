package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"unionvote/internal/models"
	"unionvote/internal/storage"
	"unionvote/internal/utils"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Store implements storage.Storage on PostgreSQL through GORM. Every
// compound mutation (row insert plus counter adjustment) runs inside a
// single transaction.
type Store struct {
	db *gorm.DB
}

func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Union{},
		&models.Membership{},
		&models.Channel{},
		&models.Post{},
		&models.PostChannel{},
		&models.Comment{},
		&models.Vote{},
		&models.ChannelSession{},
		&models.SessionParticipant{},
		&models.Candidate{},
		&models.Pledge{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Println("Database migration completed")

	return &Store{db: db}, nil
}

// translate maps GORM errors onto the shared sentinel errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%v: %w", err, storage.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%v: %w", err, storage.ErrConflict)
	default:
		return err
	}
}

// === Users ===

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// === Unions ===

func (s *Store) CreateUnion(ctx context.Context, union *models.Union) error {
	if strings.TrimSpace(union.Name) == "" {
		return fmt.Errorf("union name cannot be empty: %w", storage.ErrValidation)
	}
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(union).Error; err != nil {
			return err
		}
		// The creator is a member from the start.
		return tx.Create(&models.Membership{
			UnionID: union.ID,
			UserID:  union.CreatedBy,
		}).Error
	}))
}

func (s *Store) GetUnion(ctx context.Context, id uint) (*models.Union, error) {
	var union models.Union
	if err := s.db.WithContext(ctx).First(&union, id).Error; err != nil {
		return nil, translate(err)
	}
	return &union, nil
}

func (s *Store) ListUnions(ctx context.Context) ([]models.Union, error) {
	var unions []models.Union
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&unions).Error; err != nil {
		return nil, translate(err)
	}
	return unions, nil
}

func (s *Store) JoinUnion(ctx context.Context, unionID, userID uint) error {
	if _, err := s.GetUnion(ctx, unionID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Create(&models.Membership{
		UnionID: unionID,
		UserID:  userID,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("already a member of this union: %w", storage.ErrConflict)
	}
	return translate(err)
}

func (s *Store) LeaveUnion(ctx context.Context, unionID, userID uint) error {
	res := s.db.WithContext(ctx).
		Where("union_id = ? AND user_id = ?", unionID, userID).
		Delete(&models.Membership{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("membership: %w", storage.ErrNotFound)
	}
	return nil
}

func (s *Store) IsMember(ctx context.Context, unionID, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("union_id = ? AND user_id = ?", unionID, userID).
		Count(&count).Error
	return count > 0, translate(err)
}

func (s *Store) ListMembers(ctx context.Context, unionID uint) ([]models.User, error) {
	if _, err := s.GetUnion(ctx, unionID); err != nil {
		return nil, err
	}
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.user_id = users.id").
		Where("memberships.union_id = ?", unionID).
		Order("users.id ASC").
		Find(&users).Error
	return users, translate(err)
}

// === Channels ===

func (s *Store) CreateChannel(ctx context.Context, channel *models.Channel) error {
	if _, err := s.GetUnion(ctx, channel.UnionID); err != nil {
		return err
	}
	if strings.TrimSpace(channel.Name) == "" {
		return fmt.Errorf("channel name cannot be empty: %w", storage.ErrValidation)
	}
	if !channel.Type.Valid() {
		return fmt.Errorf("channel type must be text, voice or video: %w", storage.ErrValidation)
	}
	return translate(s.db.WithContext(ctx).Create(channel).Error)
}

func (s *Store) GetChannel(ctx context.Context, id uint) (*models.Channel, error) {
	var channel models.Channel
	if err := s.db.WithContext(ctx).First(&channel, id).Error; err != nil {
		return nil, translate(err)
	}
	return &channel, nil
}

func (s *Store) ListChannels(ctx context.Context, unionID uint) ([]models.Channel, error) {
	var channels []models.Channel
	err := s.db.WithContext(ctx).
		Where("union_id = ?", unionID).
		Order("id ASC").
		Find(&channels).Error
	return channels, translate(err)
}

func (s *Store) DeleteChannel(ctx context.Context, id uint) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var channel models.Channel
		if err := tx.First(&channel, id).Error; err != nil {
			return err
		}
		// Deleting a channel that still homes posts would orphan them.
		var count int64
		if err := tx.Model(&models.Post{}).Where("channel_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("channel still has posts: %w", storage.ErrConflict)
		}
		// Tag rows and sessions cascade via their FK constraints.
		return tx.Delete(&channel).Error
	}))
}

// === Posts ===

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	if strings.TrimSpace(post.Title) == "" {
		return fmt.Errorf("post title cannot be empty: %w", storage.ErrValidation)
	}
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var channel models.Channel
		if err := tx.First(&channel, post.ChannelID).Error; err != nil {
			return err
		}
		post.UnionID = channel.UnionID // home channel decides the union
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		return tx.Preload("User").First(post, post.ID).Error
	}))
}

func (s *Store) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (s *Store) UpdatePost(ctx context.Context, id uint, title, content string) (*models.Post, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("post title cannot be empty: %w", storage.ErrValidation)
	}
	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&post).Updates(map[string]interface{}{
			"title":   title,
			"content": content,
		}).Error; err != nil {
			return err
		}
		return tx.Preload("User").First(&post, id).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (s *Store) DeletePost(ctx context.Context, id uint) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}
		// Votes carry no FK constraint, clean them up by hand.
		if err := tx.Where("post_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id IN (?)",
			tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", id),
		).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostChannel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	}))
}

func (s *Store) ListPosts(ctx context.Context, q storage.PostQuery) ([]models.Post, error) {
	query := s.db.WithContext(ctx).Model(&models.Post{}).Preload("User")

	if q.UnionID != 0 {
		query = query.Where("union_id = ?", q.UnionID)
	}
	if q.ChannelID != 0 {
		// Home posts plus cross-tagged posts.
		query = query.Where("channel_id = ? OR id IN (?)",
			q.ChannelID,
			s.db.Model(&models.PostChannel{}).Select("post_id").Where("channel_id = ?", q.ChannelID),
		)
	}
	if !q.Since.IsZero() {
		query = query.Where("created_at >= ?", q.Since)
	}

	switch q.Sort {
	case storage.SortTop:
		query = query.Order("(upvotes - downvotes) DESC, created_at DESC")
	case storage.SortTrending:
		// Trending is computed in-process over the filtered window; the
		// formula's age decay does not sit well in an indexed ORDER BY.
		query = query.Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	if q.Sort != storage.SortTrending {
		if q.Limit > 0 {
			query = query.Limit(q.Limit)
		}
		if q.Offset > 0 {
			query = query.Offset(q.Offset)
		}
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, translate(err)
	}

	if q.Sort == storage.SortTrending {
		sortTrending(posts)
		if q.Offset > 0 {
			if q.Offset >= len(posts) {
				return []models.Post{}, nil
			}
			posts = posts[q.Offset:]
		}
		if q.Limit > 0 && len(posts) > q.Limit {
			posts = posts[:q.Limit]
		}
	}
	return posts, nil
}

func sortTrending(posts []models.Post) {
	scores := make(map[uint]float64, len(posts))
	for _, p := range posts {
		scores[p.ID] = utils.TrendingScore(p.CreatedAt, p.Upvotes, p.Downvotes, p.CommentCount)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return scores[posts[i].ID] > scores[posts[j].ID]
	})
}

func (s *Store) TagChannel(ctx context.Context, postID, channelID uint) error {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	channel, err := s.GetChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if channel.UnionID != post.UnionID {
		return fmt.Errorf("channel belongs to a different union: %w", storage.ErrValidation)
	}
	if post.ChannelID == channelID {
		return fmt.Errorf("post already lives in its home channel: %w", storage.ErrValidation)
	}

	err = s.db.WithContext(ctx).Create(&models.PostChannel{
		PostID:    postID,
		ChannelID: channelID,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("post already tagged into channel: %w", storage.ErrConflict)
	}
	return translate(err)
}

func (s *Store) UntagChannel(ctx context.Context, postID, channelID uint) error {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.ChannelID == channelID {
		return fmt.Errorf("cannot untag a post from its home channel: %w", storage.ErrValidation)
	}

	res := s.db.WithContext(ctx).
		Where("post_id = ? AND channel_id = ?", postID, channelID).
		Delete(&models.PostChannel{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("tag: %w", storage.ErrNotFound)
	}
	return nil
}

func (s *Store) ListPostChannels(ctx context.Context, postID uint) ([]models.Channel, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	var channels []models.Channel
	err = s.db.WithContext(ctx).
		Where("id = ? OR id IN (?)",
			post.ChannelID,
			s.db.Model(&models.PostChannel{}).Select("channel_id").Where("post_id = ?", postID),
		).
		Order("id ASC").
		Find(&channels).Error
	if err != nil {
		return nil, translate(err)
	}

	// Home channel first, matching the memory store's ordering.
	for i, ch := range channels {
		if ch.ID == post.ChannelID && i != 0 {
			channels[0], channels[i] = channels[i], channels[0]
			break
		}
	}
	return channels, nil
}

// === Comments ===

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	if strings.TrimSpace(comment.Content) == "" {
		return fmt.Errorf("comment content cannot be empty: %w", storage.ErrValidation)
	}
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, comment.PostID).Error; err != nil {
			return err
		}

		comment.Depth = 0
		if comment.ParentID != nil {
			var parent models.Comment
			if err := tx.First(&parent, *comment.ParentID).Error; err != nil {
				return err
			}
			if parent.PostID != comment.PostID {
				return fmt.Errorf("parent comment belongs to a different post: %w", storage.ErrValidation)
			}
			comment.Depth = parent.Depth + 1
		}

		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		if err := tx.Model(&post).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
			return err
		}
		return tx.Preload("User").First(comment, comment.ID).Error
	}))
}

func (s *Store) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, translate(err)
	}
	redactComment(&comment)
	return &comment, nil
}

func (s *Store) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	var comments []models.Comment
	err := s.db.WithContext(ctx).Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, translate(err)
	}
	for i := range comments {
		redactComment(&comments[i])
	}
	return comments, nil
}

// redactComment withholds the content of tombstoned comments.
func redactComment(c *models.Comment) {
	if c.IsDeleted {
		c.Content = ""
	}
}

func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, id).Error; err != nil {
			return err
		}
		if comment.IsDeleted {
			return fmt.Errorf("comment %d: %w", id, storage.ErrNotFound)
		}

		// Tombstone rather than delete: replies keep a resolvable parent.
		if err := tx.Model(&comment).UpdateColumn("is_deleted", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("GREATEST(comment_count - 1, 0)")).Error
	}))
}

// === Votes ===

func counterColumn(t models.VoteType) string {
	if t == models.VoteUp {
		return "upvotes"
	}
	return "downvotes"
}

func (s *Store) CastVote(ctx context.Context, vote *models.Vote) error {
	if (vote.PostID == nil) == (vote.CommentID == nil) {
		return fmt.Errorf("vote must target exactly one of post or comment: %w", storage.ErrValidation)
	}
	if !vote.Type.Valid() {
		return fmt.Errorf("vote type must be upvote or downvote: %w", storage.ErrValidation)
	}

	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, targetID, err := voteTarget(vote)
		if err != nil {
			return err
		}
		if err := tx.First(target, targetID).Error; err != nil {
			return err
		}

		query := tx.Where("user_id = ?", vote.UserID)
		if vote.PostID != nil {
			query = query.Where("post_id = ?", *vote.PostID)
		} else {
			query = query.Where("comment_id = ?", *vote.CommentID)
		}

		// One live vote per (user, target): a same-type re-vote is a
		// no-op, an opposite-type re-vote replaces the old one.
		var existing models.Vote
		if err := query.First(&existing).Error; err == nil {
			if existing.Type == vote.Type {
				*vote = existing
				return nil
			}
			if err := tx.Model(&existing).UpdateColumn("type", vote.Type).Error; err != nil {
				return err
			}
			oldCol := counterColumn(existing.Type)
			newCol := counterColumn(vote.Type)
			if err := tx.Model(target).Where("id = ?", targetID).
				UpdateColumn(oldCol, gorm.Expr("GREATEST("+oldCol+" - 1, 0)")).Error; err != nil {
				return err
			}
			if err := tx.Model(target).Where("id = ?", targetID).
				UpdateColumn(newCol, gorm.Expr(newCol+" + 1")).Error; err != nil {
				return err
			}
			existing.Type = vote.Type
			*vote = existing
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(vote).Error; err != nil {
			return err
		}
		col := counterColumn(vote.Type)
		return tx.Model(target).Where("id = ?", targetID).
			UpdateColumn(col, gorm.Expr(col+" + 1")).Error
	}))
}

func voteTarget(v *models.Vote) (interface{}, uint, error) {
	if v.PostID != nil {
		return &models.Post{}, *v.PostID, nil
	}
	if v.CommentID != nil {
		return &models.Comment{}, *v.CommentID, nil
	}
	return nil, 0, fmt.Errorf("vote has no target: %w", storage.ErrValidation)
}

func (s *Store) GetVote(ctx context.Context, id uint) (*models.Vote, error) {
	var vote models.Vote
	if err := s.db.WithContext(ctx).First(&vote, id).Error; err != nil {
		return nil, translate(err)
	}
	return &vote, nil
}

func (s *Store) DeleteVote(ctx context.Context, id uint) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vote models.Vote
		if err := tx.First(&vote, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&vote).Error; err != nil {
			return err
		}

		target, targetID, err := voteTarget(&vote)
		if err != nil {
			return err
		}
		col := counterColumn(vote.Type)
		// GREATEST clamps the counter at zero against double-delete races.
		res := tx.Model(target).Where("id = ?", targetID).
			UpdateColumn(col, gorm.Expr("GREATEST("+col+" - 1, 0)"))
		return res.Error
	}))
}

// === Live sessions ===

func (s *Store) CreateSession(ctx context.Context, session *models.ChannelSession) error {
	if _, err := s.GetChannel(ctx, session.ChannelID); err != nil {
		return err
	}
	session.IsActive = true
	// StartedAt is not a gorm-managed column, fill it explicitly.
	session.StartedAt = time.Now().UTC()
	session.EndedAt = nil
	err := s.db.WithContext(ctx).Create(session).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// The partial unique index on (channel_id) WHERE is_active makes
		// the loser of a concurrent first-join land here.
		return fmt.Errorf("channel already has an active session: %w", storage.ErrConflict)
	}
	return translate(err)
}

func (s *Store) GetSession(ctx context.Context, id uint) (*models.ChannelSession, error) {
	var session models.ChannelSession
	if err := s.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (s *Store) GetActiveSession(ctx context.Context, channelID uint) (*models.ChannelSession, error) {
	var session models.ChannelSession
	err := s.db.WithContext(ctx).
		Where("channel_id = ? AND is_active = ?", channelID, true).
		First(&session).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (s *Store) EndSession(ctx context.Context, id uint) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.ChannelSession
		if err := tx.First(&session, id).Error; err != nil {
			return err
		}
		if !session.IsActive {
			return nil // already ended
		}

		if err := tx.Model(&session).Updates(map[string]interface{}{
			"is_active": false,
			"ended_at":  gorm.Expr("NOW()"),
		}).Error; err != nil {
			return err
		}
		return tx.Model(&models.SessionParticipant{}).
			Where("session_id = ? AND is_active = ?", id, true).
			Updates(map[string]interface{}{
				"is_active": false,
				"left_at":   gorm.Expr("NOW()"),
			}).Error
	}))
}

func (s *Store) JoinSession(ctx context.Context, sessionID, userID uint) (*models.SessionParticipant, error) {
	var participant models.SessionParticipant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.ChannelSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		if !session.IsActive {
			return fmt.Errorf("session has ended: %w", storage.ErrConflict)
		}

		err := tx.Where("session_id = ? AND user_id = ?", sessionID, userID).
			First(&participant).Error
		if err == nil {
			if !participant.IsActive {
				// Reactivate rather than duplicate: the participant keeps
				// a stable identity across disconnect/reconnect.
				if err := tx.Model(&participant).Updates(map[string]interface{}{
					"is_active": true,
					"joined_at": gorm.Expr("NOW()"),
					"left_at":   nil,
				}).Error; err != nil {
					return err
				}
			}
			return tx.Preload("User").First(&participant, participant.ID).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		participant = models.SessionParticipant{
			SessionID:    sessionID,
			UserID:       userID,
			IsActive:     true,
			JoinedAt:     time.Now().UTC(),
			IsMuted:      true,
			VideoEnabled: false,
		}
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}
		return tx.Preload("User").First(&participant, participant.ID).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &participant, nil
}

func (s *Store) LeaveSession(ctx context.Context, participantID uint) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var participant models.SessionParticipant
		if err := tx.First(&participant, participantID).Error; err != nil {
			return err
		}
		if !participant.IsActive {
			return nil // leaving twice is a no-op
		}
		return tx.Model(&participant).Updates(map[string]interface{}{
			"is_active": false,
			"left_at":   gorm.Expr("NOW()"),
		}).Error
	}))
}

func (s *Store) GetParticipant(ctx context.Context, id uint) (*models.SessionParticipant, error) {
	var participant models.SessionParticipant
	if err := s.db.WithContext(ctx).Preload("User").First(&participant, id).Error; err != nil {
		return nil, translate(err)
	}
	return &participant, nil
}

func (s *Store) GetParticipantByUser(ctx context.Context, sessionID, userID uint) (*models.SessionParticipant, error) {
	var participant models.SessionParticipant
	err := s.db.WithContext(ctx).Preload("User").
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&participant).Error
	if err != nil {
		return nil, translate(err)
	}
	return &participant, nil
}

func (s *Store) ListParticipants(ctx context.Context, sessionID uint) ([]models.SessionParticipant, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	var participants []models.SessionParticipant
	err := s.db.WithContext(ctx).Preload("User").
		Where("session_id = ? AND is_active = ?", sessionID, true).
		Order("joined_at ASC, id ASC").
		Find(&participants).Error
	return participants, translate(err)
}

func (s *Store) UpdateParticipantFlags(ctx context.Context, id uint, muted, videoEnabled bool) error {
	res := s.db.WithContext(ctx).Model(&models.SessionParticipant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_muted":      muted,
			"video_enabled": videoEnabled,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("participant %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

// === Candidates and pledges ===

func (s *Store) CreateCandidate(ctx context.Context, candidate *models.Candidate) error {
	if _, err := s.GetUnion(ctx, candidate.UnionID); err != nil {
		return err
	}
	if strings.TrimSpace(candidate.Name) == "" {
		return fmt.Errorf("candidate name cannot be empty: %w", storage.ErrValidation)
	}
	return translate(s.db.WithContext(ctx).Create(candidate).Error)
}

func (s *Store) GetCandidate(ctx context.Context, id uint) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := s.db.WithContext(ctx).First(&candidate, id).Error; err != nil {
		return nil, translate(err)
	}
	return &candidate, nil
}

func (s *Store) ListCandidates(ctx context.Context, unionID uint) ([]models.Candidate, error) {
	var candidates []models.Candidate
	err := s.db.WithContext(ctx).
		Where("union_id = ?", unionID).
		Order("id ASC").
		Find(&candidates).Error
	return candidates, translate(err)
}

func (s *Store) CreatePledge(ctx context.Context, pledge *models.Pledge) error {
	if _, err := s.GetCandidate(ctx, pledge.CandidateID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Create(pledge).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("already pledged to this candidate: %w", storage.ErrConflict)
	}
	return translate(err)
}

func (s *Store) GetPledge(ctx context.Context, id uint) (*models.Pledge, error) {
	var pledge models.Pledge
	if err := s.db.WithContext(ctx).First(&pledge, id).Error; err != nil {
		return nil, translate(err)
	}
	return &pledge, nil
}

func (s *Store) ListPledges(ctx context.Context, candidateID uint) ([]models.Pledge, error) {
	var pledges []models.Pledge
	err := s.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("id ASC").
		Find(&pledges).Error
	return pledges, translate(err)
}

func (s *Store) DeletePledge(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Pledge{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("pledge %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

var _ storage.Storage = (*Store)(nil)
