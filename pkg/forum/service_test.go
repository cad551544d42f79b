package forum

import (
	"context"
	"reflect"
	"testing"

	"anonforum/pkg/comments"
	"anonforum/pkg/common"
	"anonforum/pkg/identity"
	"anonforum/pkg/posts"
	"anonforum/pkg/votes"

	"github.com/golang/mock/gomock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestService(ctrl *gomock.Controller) (*Service, *MockPostsRepo, *MockCommentsRepo) {
	postsRepo := NewMockPostsRepo(ctrl)
	commentsRepo := NewMockCommentsRepo(ctrl)
	svc := NewService(postsRepo, commentsRepo)

	ids := []string{"minted-anon-id", "minted-token"}
	svc.NewID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	return svc, postsRepo, commentsRepo
}

func TestCreatePostAnonymousWithoutClientID(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, postsRepo, _ := newTestService(ctrl)
	ctx := context.Background()

	newID := primitive.NewObjectID()
	postsRepo.EXPECT().Add(ctx, gomock.AssignableToTypeOf(&posts.Post{})).Return(newID, nil)

	post, token, err := svc.CreatePost(ctx, "title", "content", posts.Music, identity.Anonymous(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if post.AnonymousID != "minted-anon-id" {
		t.Errorf("expected minted anonymous id, but was %v", post.AnonymousID)
	}
	if token != "minted-token" || post.DeleteToken != token {
		t.Errorf("expected minted deletion token, but was %v / %v", token, post.DeleteToken)
	}
	if post.AuthorID != 0 {
		t.Errorf("anonymous post must not carry an author id, but was %v", post.AuthorID)
	}
	if post.ID != newID {
		t.Errorf("expected id %v, but was %v", newID, post.ID)
	}
}

func TestCreatePostAnonymousKeepsClientID(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, postsRepo, _ := newTestService(ctrl)
	ctx := context.Background()

	svc.NewID = func() string { return "minted-token" }
	postsRepo.EXPECT().Add(ctx, gomock.AssignableToTypeOf(&posts.Post{})).Return(primitive.NewObjectID(), nil)

	post, token, err := svc.CreatePost(ctx, "title", "content", posts.News, identity.Anonymous("client-anon"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if post.AnonymousID != "client-anon" {
		t.Errorf("expected client anonymous id kept, but was %v", post.AnonymousID)
	}
	if token != "minted-token" {
		t.Errorf("expected minted token, but was %v", token)
	}
}

func TestCreatePostRegistered(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, postsRepo, _ := newTestService(ctrl)
	ctx := context.Background()

	postsRepo.EXPECT().Add(ctx, gomock.AssignableToTypeOf(&posts.Post{})).Return(primitive.NewObjectID(), nil)

	post, token, err := svc.CreatePost(ctx, "title", "content", posts.Funny, identity.Registered(42, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if post.AuthorID != 42 {
		t.Errorf("expected author id 42, but was %v", post.AuthorID)
	}
	if post.AnonymousID != "" || post.DeleteToken != "" || token != "" {
		t.Errorf("registered post must not carry anonymous fields: %+v token %v", post, token)
	}
}

func TestCreateCommentChecksPostExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, postsRepo, _ := newTestService(ctrl)
	ctx := context.Background()

	postID := primitive.NewObjectID()
	postsRepo.EXPECT().GetByID(ctx, postID).Return(nil, common.ErrNotFound)

	_, _, err := svc.CreateComment(ctx, "hello", postID, nil, identity.Registered(1, false))
	if err != common.ErrNotFound {
		t.Errorf("expected not found error, but was %v", err)
	}
}

func TestCreateCommentRecordsParentVerbatim(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, postsRepo, commentsRepo := newTestService(ctrl)
	ctx := context.Background()

	postID := primitive.NewObjectID()
	parentID := primitive.NewObjectID()
	commentID := primitive.NewObjectID()

	postsRepo.EXPECT().GetByID(ctx, postID).Return(&posts.Post{ID: postID}, nil)

	var added *comments.Comment
	commentsRepo.EXPECT().Add(ctx, gomock.AssignableToTypeOf(&comments.Comment{})).
		DoAndReturn(func(_ context.Context, c *comments.Comment) (interface{}, error) {
			added = c
			return commentID, nil
		})

	comment, token, err := svc.CreateComment(ctx, "hello", postID, parentID, identity.Anonymous("anon-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if added.ParentID != parentID {
		t.Errorf("expected parent id recorded verbatim, but was %v", added.ParentID)
	}
	if comment.AnonymousID != "anon-1" || token == "" {
		t.Errorf("expected anonymous comment with token, but was %+v token %v", comment, token)
	}
	if comment.ID != commentID {
		t.Errorf("expected id %v, but was %v", commentID, comment.ID)
	}
}

func TestDeletePost(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, postsRepo, _ := newTestService(ctrl)
	ctx := context.Background()

	postID := primitive.NewObjectID()
	anonPost := func() *posts.Post {
		return &posts.Post{ID: postID, AnonymousID: "anon-1", DeleteToken: "secret"}
	}

	// wrong token
	postsRepo.EXPECT().GetByID(ctx, postID).Return(anonPost(), nil)
	err := svc.DeletePost(ctx, postID, identity.Anonymous("anon-1"), "guess")
	if err != common.ErrForbidden {
		t.Errorf("expected forbidden error, but was %v", err)
	}

	// correct token
	postsRepo.EXPECT().GetByID(ctx, postID).Return(anonPost(), nil)
	postsRepo.EXPECT().Delete(ctx, postID).Return(true, nil)
	err = svc.DeletePost(ctx, postID, identity.Anonymous("anon-1"), "secret")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// gone afterwards
	postsRepo.EXPECT().GetByID(ctx, postID).Return(nil, common.ErrNotFound)
	err = svc.DeletePost(ctx, postID, identity.Anonymous("anon-1"), "secret")
	if err != common.ErrNotFound {
		t.Errorf("expected not found error, but was %v", err)
	}
}

func TestDeletePostAdminOverride(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, postsRepo, _ := newTestService(ctrl)
	ctx := context.Background()

	postID := primitive.NewObjectID()
	postsRepo.EXPECT().GetByID(ctx, postID).Return(&posts.Post{ID: postID, AuthorID: 7}, nil)
	postsRepo.EXPECT().Delete(ctx, postID).Return(true, nil)

	if err := svc.DeletePost(ctx, postID, identity.Registered(99, true), ""); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDeleteCommentTombstones(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _, commentsRepo := newTestService(ctrl)
	ctx := context.Background()

	commentID := primitive.NewObjectID()
	comment := &comments.Comment{ID: commentID, AuthorID: 7, Content: "hello"}

	commentsRepo.EXPECT().GetByID(ctx, commentID).Return(comment, nil)
	commentsRepo.EXPECT().MarkDeleted(ctx, commentID).Return(nil)

	if err := svc.DeleteComment(ctx, commentID, identity.Registered(7, false), ""); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// non-author, non-admin: no tombstone write
	commentsRepo.EXPECT().GetByID(ctx, commentID).Return(comment, nil)
	err := svc.DeleteComment(ctx, commentID, identity.Registered(8, false), "")
	if err != common.ErrForbidden {
		t.Errorf("expected forbidden error, but was %v", err)
	}
}

func TestVotePostSequence(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, postsRepo, _ := newTestService(ctrl)
	ctx := context.Background()

	postID := primitive.NewObjectID()
	stored := &posts.Post{
		ID:     postID,
		Ballot: votes.Ballot{Upvotes: []string{}, Downvotes: []string{}},
	}

	postsRepo.EXPECT().GetByID(ctx, postID).Return(stored, nil).Times(2)
	postsRepo.EXPECT().UpdateVotes(ctx, postID, &stored.Ballot).Return(nil).Times(2)

	post, err := svc.VotePost(ctx, postID, "7", votes.Upvote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.Score != 1 {
		t.Errorf("expected score 1 after upvote, but was %v", post.Score)
	}

	post, err = svc.VotePost(ctx, postID, "7", votes.Downvote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := votes.Ballot{Upvotes: []string{}, Downvotes: []string{"7"}, Score: -1}
	if !reflect.DeepEqual(post.Ballot, expected) {
		t.Errorf("expected ballot %v, but was %v", expected, post.Ballot)
	}
}

func TestVoteCommentValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _, commentsRepo := newTestService(ctrl)
	ctx := context.Background()

	commentID := primitive.NewObjectID()
	commentsRepo.EXPECT().GetByID(ctx, commentID).Return(&comments.Comment{ID: commentID}, nil).Times(2)

	_, err := svc.VoteComment(ctx, commentID, "", votes.Upvote)
	if _, ok := err.(*common.ValidationError); !ok {
		t.Errorf("expected validation error for missing voter, but was %v", err)
	}

	_, err = svc.VoteComment(ctx, commentID, "7", votes.Kind("boost"))
	if _, ok := err.(*common.ValidationError); !ok {
		t.Errorf("expected validation error for bad kind, but was %v", err)
	}
}
