package memory

import (
	"context"
	"testing"
	"time"

	"unionvote/internal/models"
	"unionvote/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *Store
	alice   *models.User
	bob     *models.User
	union   *models.Union
	general *models.Channel
	standup *models.Channel // voice
	post    *models.Post
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := New()

	alice := &models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	require.NoError(t, s.CreateUser(ctx, alice))
	bob := &models.User{Username: "bob", Email: "bob@example.com", Password: "x"}
	require.NoError(t, s.CreateUser(ctx, bob))

	union := &models.Union{Name: "Local 42", CreatedBy: alice.ID}
	require.NoError(t, s.CreateUnion(ctx, union))
	require.NoError(t, s.JoinUnion(ctx, union.ID, bob.ID))

	general := &models.Channel{UnionID: union.ID, Name: "general", Type: models.ChannelTypeText, CreatedBy: alice.ID}
	require.NoError(t, s.CreateChannel(ctx, general))
	standup := &models.Channel{UnionID: union.ID, Name: "standup", Type: models.ChannelTypeVoice, CreatedBy: alice.ID}
	require.NoError(t, s.CreateChannel(ctx, standup))

	post := &models.Post{ChannelID: general.ID, UserID: alice.ID, Title: "Contract vote schedule", Content: "Draft attached"}
	require.NoError(t, s.CreatePost(ctx, post))

	return &fixture{store: s, alice: alice, bob: bob, union: union, general: general, standup: standup, post: post}
}

func TestCreatePostInheritsUnionFromChannel(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, f.union.ID, f.post.UnionID)
	assert.Zero(t, f.post.Upvotes)
	assert.Zero(t, f.post.Downvotes)
	assert.Zero(t, f.post.CommentCount)
}

func TestCreateUnionMakesCreatorMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	member, err := f.store.IsMember(ctx, f.union.ID, f.alice.ID)
	require.NoError(t, err)
	assert.True(t, member)

	err = f.store.JoinUnion(ctx, f.union.ID, f.bob.ID)
	assert.ErrorIs(t, err, storage.ErrConflict)

	require.NoError(t, f.store.LeaveUnion(ctx, f.union.ID, f.bob.ID))
	require.NoError(t, f.store.JoinUnion(ctx, f.union.ID, f.bob.ID))
}

func TestCommentDepthFollowsParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := &models.Comment{PostID: f.post.ID, UserID: f.bob.ID, Content: "We should push for Thursday"}
	require.NoError(t, f.store.CreateComment(ctx, root))
	assert.Equal(t, 0, root.Depth)

	reply := &models.Comment{PostID: f.post.ID, UserID: f.alice.ID, ParentID: &root.ID, Content: "Thursday works"}
	require.NoError(t, f.store.CreateComment(ctx, reply))
	assert.Equal(t, 1, reply.Depth)

	deeper := &models.Comment{PostID: f.post.ID, UserID: f.bob.ID, ParentID: &reply.ID, Content: "Agreed"}
	require.NoError(t, f.store.CreateComment(ctx, deeper))
	assert.Equal(t, 2, deeper.Depth)

	post, err := f.store.GetPost(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, post.CommentCount)
}

func TestCommentParentMustSharePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := &models.Post{ChannelID: f.general.ID, UserID: f.alice.ID, Title: "Other thread"}
	require.NoError(t, f.store.CreatePost(ctx, other))

	root := &models.Comment{PostID: f.post.ID, UserID: f.bob.ID, Content: "root"}
	require.NoError(t, f.store.CreateComment(ctx, root))

	crossed := &models.Comment{PostID: other.ID, UserID: f.bob.ID, ParentID: &root.ID, Content: "wrong thread"}
	err := f.store.CreateComment(ctx, crossed)
	assert.ErrorIs(t, err, storage.ErrValidation)
}

func TestDeleteCommentLeavesTombstone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := &models.Comment{PostID: f.post.ID, UserID: f.bob.ID, Content: "retracted later"}
	require.NoError(t, f.store.CreateComment(ctx, root))
	reply := &models.Comment{PostID: f.post.ID, UserID: f.alice.ID, ParentID: &root.ID, Content: "still here"}
	require.NoError(t, f.store.CreateComment(ctx, reply))

	require.NoError(t, f.store.DeleteComment(ctx, root.ID))

	got, err := f.store.GetComment(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.Empty(t, got.Content)

	// The reply subtree keeps its parent pointer.
	comments, err := f.store.ListComments(ctx, f.post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.NotNil(t, comments[1].ParentID)
	assert.Equal(t, root.ID, *comments[1].ParentID)

	post, err := f.store.GetPost(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, post.CommentCount)

	err = f.store.DeleteComment(ctx, root.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCastVoteReplaceAndNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	up := &models.Vote{UserID: f.bob.ID, PostID: &f.post.ID, Type: models.VoteUp}
	require.NoError(t, f.store.CastVote(ctx, up))

	post, err := f.store.GetPost(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, post.Upvotes)

	// Same type again is a no-op, not a second vote.
	again := &models.Vote{UserID: f.bob.ID, PostID: &f.post.ID, Type: models.VoteUp}
	require.NoError(t, f.store.CastVote(ctx, again))
	assert.Equal(t, up.ID, again.ID)

	post, err = f.store.GetPost(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, post.Upvotes)

	// Opposite type replaces the standing vote atomically.
	flip := &models.Vote{UserID: f.bob.ID, PostID: &f.post.ID, Type: models.VoteDown}
	require.NoError(t, f.store.CastVote(ctx, flip))
	assert.Equal(t, up.ID, flip.ID)

	post, err = f.store.GetPost(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, post.Upvotes)
	assert.Equal(t, 1, post.Downvotes)

	require.NoError(t, f.store.DeleteVote(ctx, flip.ID))
	post, err = f.store.GetPost(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, post.Downvotes)
}

func TestCastVoteTargetValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	comment := &models.Comment{PostID: f.post.ID, UserID: f.alice.ID, Content: "c"}
	require.NoError(t, f.store.CreateComment(ctx, comment))

	err := f.store.CastVote(ctx, &models.Vote{UserID: f.bob.ID, Type: models.VoteUp})
	assert.ErrorIs(t, err, storage.ErrValidation)

	err = f.store.CastVote(ctx, &models.Vote{UserID: f.bob.ID, PostID: &f.post.ID, CommentID: &comment.ID, Type: models.VoteUp})
	assert.ErrorIs(t, err, storage.ErrValidation)

	missing := uint(9999)
	err = f.store.CastVote(ctx, &models.Vote{UserID: f.bob.ID, PostID: &missing, Type: models.VoteUp})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = f.store.CastVote(ctx, &models.Vote{UserID: f.bob.ID, CommentID: &comment.ID, Type: "sideways"})
	assert.ErrorIs(t, err, storage.ErrValidation)
}

func TestVotesOnPostAndCommentAreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	comment := &models.Comment{PostID: f.post.ID, UserID: f.alice.ID, Content: "c"}
	require.NoError(t, f.store.CreateComment(ctx, comment))

	require.NoError(t, f.store.CastVote(ctx, &models.Vote{UserID: f.bob.ID, PostID: &f.post.ID, Type: models.VoteUp}))
	require.NoError(t, f.store.CastVote(ctx, &models.Vote{UserID: f.bob.ID, CommentID: &comment.ID, Type: models.VoteDown}))

	post, err := f.store.GetPost(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, post.Upvotes)

	got, err := f.store.GetComment(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Downvotes)
}

func TestSingleActiveSessionPerChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := &models.ChannelSession{ChannelID: f.standup.ID, Token: "tok-1", RoomName: "standup-1", RoomURL: "https://rooms.example/standup-1", CreatedBy: f.alice.ID}
	require.NoError(t, f.store.CreateSession(ctx, first))
	assert.True(t, first.IsActive)

	second := &models.ChannelSession{ChannelID: f.standup.ID, Token: "tok-2", RoomName: "standup-2", RoomURL: "https://rooms.example/standup-2", CreatedBy: f.bob.ID}
	err := f.store.CreateSession(ctx, second)
	assert.ErrorIs(t, err, storage.ErrConflict)

	require.NoError(t, f.store.EndSession(ctx, first.ID))
	require.NoError(t, f.store.CreateSession(ctx, second))

	active, err := f.store.GetActiveSession(ctx, f.standup.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
}

func TestJoinSessionReactivatesParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess := &models.ChannelSession{ChannelID: f.standup.ID, Token: "tok", RoomName: "standup", RoomURL: "https://rooms.example/standup", CreatedBy: f.alice.ID}
	require.NoError(t, f.store.CreateSession(ctx, sess))

	p, err := f.store.JoinSession(ctx, sess.ID, f.bob.ID)
	require.NoError(t, err)
	assert.True(t, p.IsMuted)
	assert.False(t, p.VideoEnabled)

	require.NoError(t, f.store.LeaveSession(ctx, p.ID))
	left, err := f.store.GetParticipant(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, left.IsActive)
	assert.NotNil(t, left.LeftAt)

	// Leaving twice is a no-op.
	require.NoError(t, f.store.LeaveSession(ctx, p.ID))

	back, err := f.store.JoinSession(ctx, sess.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, back.ID)
	assert.True(t, back.IsActive)
	assert.Nil(t, back.LeftAt)
}

func TestJoinEndedSessionRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess := &models.ChannelSession{ChannelID: f.standup.ID, Token: "tok", RoomName: "standup", RoomURL: "https://rooms.example/standup", CreatedBy: f.alice.ID}
	require.NoError(t, f.store.CreateSession(ctx, sess))
	require.NoError(t, f.store.EndSession(ctx, sess.ID))

	_, err := f.store.JoinSession(ctx, sess.ID, f.bob.ID)
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestEndSessionCascadesToParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess := &models.ChannelSession{ChannelID: f.standup.ID, Token: "tok", RoomName: "standup", RoomURL: "https://rooms.example/standup", CreatedBy: f.alice.ID}
	require.NoError(t, f.store.CreateSession(ctx, sess))

	pa, err := f.store.JoinSession(ctx, sess.ID, f.alice.ID)
	require.NoError(t, err)
	pb, err := f.store.JoinSession(ctx, sess.ID, f.bob.ID)
	require.NoError(t, err)

	require.NoError(t, f.store.EndSession(ctx, sess.ID))
	// Ending twice is a no-op.
	require.NoError(t, f.store.EndSession(ctx, sess.ID))

	ended, err := f.store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, ended.IsActive)
	assert.NotNil(t, ended.EndedAt)

	for _, id := range []uint{pa.ID, pb.ID} {
		p, err := f.store.GetParticipant(ctx, id)
		require.NoError(t, err)
		assert.False(t, p.IsActive)
		assert.NotNil(t, p.LeftAt)
	}

	participants, err := f.store.ListParticipants(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, participants)
}

func TestListPostsChannelAndUnionScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := &models.Channel{UnionID: f.union.ID, Name: "organizing", Type: models.ChannelTypeText, CreatedBy: f.alice.ID}
	require.NoError(t, f.store.CreateChannel(ctx, other))

	homed := &models.Post{ChannelID: other.ID, UserID: f.bob.ID, Title: "Door knocking rota"}
	require.NoError(t, f.store.CreatePost(ctx, homed))

	// Cross-tag the first post into the second channel.
	require.NoError(t, f.store.TagChannel(ctx, f.post.ID, other.ID))

	inOther, err := f.store.ListPosts(ctx, storage.PostQuery{UnionID: f.union.ID, ChannelID: other.ID, Sort: storage.SortNew})
	require.NoError(t, err)
	assert.Len(t, inOther, 2)

	inGeneral, err := f.store.ListPosts(ctx, storage.PostQuery{UnionID: f.union.ID, ChannelID: f.general.ID, Sort: storage.SortNew})
	require.NoError(t, err)
	assert.Len(t, inGeneral, 1)

	// ChannelID zero is the "all" pseudo-channel; the tagged post must
	// not show up twice.
	all, err := f.store.ListPosts(ctx, storage.PostQuery{UnionID: f.union.ID, Sort: storage.SortNew})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListPostsSinceWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale := &models.Post{ChannelID: f.general.ID, UserID: f.bob.ID, Title: "Last month's minutes"}
	require.NoError(t, f.store.CreatePost(ctx, stale))
	f.store.posts[stale.ID].CreatedAt = time.Now().Add(-40 * 24 * time.Hour)

	recent, err := f.store.ListPosts(ctx, storage.PostQuery{
		UnionID: f.union.ID,
		Sort:    storage.SortNew,
		Since:   time.Now().Add(-7 * 24 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, f.post.ID, recent[0].ID)

	// A zero Since means no window at all.
	all, err := f.store.ListPosts(ctx, storage.PostQuery{UnionID: f.union.ID, Sort: storage.SortNew})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListPostsTrendingOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Same engagement, two days apart: the fresh post must outrank the
	// stale one under the gravity decay.
	stale := &models.Post{ChannelID: f.general.ID, UserID: f.bob.ID, Title: "Old rally recap"}
	require.NoError(t, f.store.CreatePost(ctx, stale))
	f.store.posts[stale.ID].CreatedAt = time.Now().Add(-48 * time.Hour)

	for _, id := range []uint{f.post.ID, stale.ID} {
		target := id
		require.NoError(t, f.store.CastVote(ctx, &models.Vote{UserID: f.alice.ID, PostID: &target, Type: models.VoteUp}))
		require.NoError(t, f.store.CastVote(ctx, &models.Vote{UserID: f.bob.ID, PostID: &target, Type: models.VoteUp}))
	}

	posts, err := f.store.ListPosts(ctx, storage.PostQuery{UnionID: f.union.ID, Sort: storage.SortTrending})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, f.post.ID, posts[0].ID)
	assert.Equal(t, stale.ID, posts[1].ID)
}

func TestListPostsTopOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	popular := &models.Post{ChannelID: f.general.ID, UserID: f.bob.ID, Title: "Strike fund update"}
	require.NoError(t, f.store.CreatePost(ctx, popular))
	require.NoError(t, f.store.CastVote(ctx, &models.Vote{UserID: f.alice.ID, PostID: &popular.ID, Type: models.VoteUp}))
	require.NoError(t, f.store.CastVote(ctx, &models.Vote{UserID: f.bob.ID, PostID: &popular.ID, Type: models.VoteUp}))

	posts, err := f.store.ListPosts(ctx, storage.PostQuery{UnionID: f.union.ID, Sort: storage.SortTop})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, popular.ID, posts[0].ID)
}

func TestTagChannelRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.TagChannel(ctx, f.post.ID, f.general.ID)
	assert.ErrorIs(t, err, storage.ErrValidation, "tagging the home channel is redundant")

	foreign := &models.Union{Name: "Local 77", CreatedBy: f.bob.ID}
	require.NoError(t, f.store.CreateUnion(ctx, foreign))
	foreignCh := &models.Channel{UnionID: foreign.ID, Name: "general", Type: models.ChannelTypeText, CreatedBy: f.bob.ID}
	require.NoError(t, f.store.CreateChannel(ctx, foreignCh))

	err = f.store.TagChannel(ctx, f.post.ID, foreignCh.ID)
	assert.ErrorIs(t, err, storage.ErrValidation, "tags must stay within the union")

	require.NoError(t, f.store.TagChannel(ctx, f.post.ID, f.standup.ID))
	err = f.store.TagChannel(ctx, f.post.ID, f.standup.ID)
	assert.ErrorIs(t, err, storage.ErrConflict)

	channels, err := f.store.ListPostChannels(ctx, f.post.ID)
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, f.general.ID, channels[0].ID, "home channel comes first")

	require.NoError(t, f.store.UntagChannel(ctx, f.post.ID, f.standup.ID))
	err = f.store.UntagChannel(ctx, f.post.ID, f.general.ID)
	assert.ErrorIs(t, err, storage.ErrValidation)
}

func TestDeleteChannelWithHomePostsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.DeleteChannel(ctx, f.general.ID)
	assert.ErrorIs(t, err, storage.ErrConflict)

	require.NoError(t, f.store.DeletePost(ctx, f.post.ID))
	require.NoError(t, f.store.DeleteChannel(ctx, f.general.ID))
}

func TestDeletePostRemovesCommentsAndVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	comment := &models.Comment{PostID: f.post.ID, UserID: f.bob.ID, Content: "c"}
	require.NoError(t, f.store.CreateComment(ctx, comment))
	vote := &models.Vote{UserID: f.alice.ID, CommentID: &comment.ID, Type: models.VoteUp}
	require.NoError(t, f.store.CastVote(ctx, vote))

	require.NoError(t, f.store.DeletePost(ctx, f.post.ID))

	_, err := f.store.GetComment(ctx, comment.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.store.GetVote(ctx, vote.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPledgeOncePerCandidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cand := &models.Candidate{UnionID: f.union.ID, Name: "R. Diaz", Office: "Shop Steward", CreatedBy: f.alice.ID}
	require.NoError(t, f.store.CreateCandidate(ctx, cand))

	pledge := &models.Pledge{CandidateID: cand.ID, UserID: f.bob.ID, Note: "count me in"}
	require.NoError(t, f.store.CreatePledge(ctx, pledge))

	dup := &models.Pledge{CandidateID: cand.ID, UserID: f.bob.ID}
	err := f.store.CreatePledge(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrConflict)

	require.NoError(t, f.store.DeletePledge(ctx, pledge.ID))
	require.NoError(t, f.store.CreatePledge(ctx, dup))
}
