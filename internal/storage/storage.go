package storage

import (
	"context"
	"time"

	"unionvote/internal/models"
)

// Post listing sort orders.
const (
	SortNew      = "new"
	SortTop      = "top"
	SortTrending = "trending"
)

// PostQuery filters a post listing. ChannelID zero means the "all"
// pseudo-channel: every post in the union regardless of home channel.
// A non-zero ChannelID matches home posts plus cross-tagged posts.
// A zero Since means no time-window filter.
type PostQuery struct {
	UnionID   uint
	ChannelID uint
	Sort      string
	Since     time.Time
	Limit     int
	Offset    int
}

// Storage is the single contract both the in-memory and the Postgres
// stores satisfy; the implementation is chosen at process startup and
// injected into request handlers. Compound mutations (row insert plus
// counter adjustment) are atomic within a single call.
type Storage interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// Unions and membership
	CreateUnion(ctx context.Context, union *models.Union) error
	GetUnion(ctx context.Context, id uint) (*models.Union, error)
	ListUnions(ctx context.Context) ([]models.Union, error)
	JoinUnion(ctx context.Context, unionID, userID uint) error
	LeaveUnion(ctx context.Context, unionID, userID uint) error
	IsMember(ctx context.Context, unionID, userID uint) (bool, error)
	ListMembers(ctx context.Context, unionID uint) ([]models.User, error)

	// Channels
	CreateChannel(ctx context.Context, channel *models.Channel) error
	GetChannel(ctx context.Context, id uint) (*models.Channel, error)
	ListChannels(ctx context.Context, unionID uint) ([]models.Channel, error)
	DeleteChannel(ctx context.Context, id uint) error

	// Posts and cross-tags
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	UpdatePost(ctx context.Context, id uint, title, content string) (*models.Post, error)
	DeletePost(ctx context.Context, id uint) error
	ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error)
	TagChannel(ctx context.Context, postID, channelID uint) error
	UntagChannel(ctx context.Context, postID, channelID uint) error
	ListPostChannels(ctx context.Context, postID uint) ([]models.Channel, error)

	// Comments
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	ListComments(ctx context.Context, postID uint) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id uint) error

	// Votes
	CastVote(ctx context.Context, vote *models.Vote) error
	GetVote(ctx context.Context, id uint) (*models.Vote, error)
	DeleteVote(ctx context.Context, id uint) error

	// Live sessions and participants
	CreateSession(ctx context.Context, session *models.ChannelSession) error
	GetSession(ctx context.Context, id uint) (*models.ChannelSession, error)
	GetActiveSession(ctx context.Context, channelID uint) (*models.ChannelSession, error)
	EndSession(ctx context.Context, id uint) error
	JoinSession(ctx context.Context, sessionID, userID uint) (*models.SessionParticipant, error)
	LeaveSession(ctx context.Context, participantID uint) error
	GetParticipant(ctx context.Context, id uint) (*models.SessionParticipant, error)
	GetParticipantByUser(ctx context.Context, sessionID, userID uint) (*models.SessionParticipant, error)
	ListParticipants(ctx context.Context, sessionID uint) ([]models.SessionParticipant, error)
	UpdateParticipantFlags(ctx context.Context, id uint, muted, videoEnabled bool) error

	// Candidates and pledges
	CreateCandidate(ctx context.Context, candidate *models.Candidate) error
	GetCandidate(ctx context.Context, id uint) (*models.Candidate, error)
	ListCandidates(ctx context.Context, unionID uint) ([]models.Candidate, error)
	CreatePledge(ctx context.Context, pledge *models.Pledge) error
	GetPledge(ctx context.Context, id uint) (*models.Pledge, error)
	DeletePledge(ctx context.Context, id uint) error
	ListPledges(ctx context.Context, candidateID uint) ([]models.Pledge, error)
}
