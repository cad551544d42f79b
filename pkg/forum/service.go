package forum

import (
	"context"
	"time"

	"anonforum/pkg/comments"
	"anonforum/pkg/common"
	"anonforum/pkg/identity"
	"anonforum/pkg/posts"
	"anonforum/pkg/votes"

	"github.com/google/uuid"
)

type PostsRepo interface {
	GetPage(ctx context.Context, category string, page, limit int64) ([]*posts.Post, int64, error)
	GetByID(ctx context.Context, id interface{}) (*posts.Post, error)
	GetByAuthorID(ctx context.Context, authorID int64) ([]*posts.Post, error)
	Add(ctx context.Context, p *posts.Post) (interface{}, error)
	Delete(ctx context.Context, id interface{}) (bool, error)
	UpdateVotes(ctx context.Context, id interface{}, b *votes.Ballot) error

	ParseID(in string) (interface{}, error)
}

type CommentsRepo interface {
	TopLevel(ctx context.Context, postID interface{}, sort comments.SortMode) ([]*comments.Comment, error)
	Replies(ctx context.Context, commentID interface{}) ([]*comments.Comment, error)
	GetByID(ctx context.Context, id interface{}) (*comments.Comment, error)
	Add(ctx context.Context, c *comments.Comment) (interface{}, error)
	MarkDeleted(ctx context.Context, id interface{}) error
	UpdateVotes(ctx context.Context, id interface{}, b *votes.Ballot) error

	ParseID(in string) (interface{}, error)
}

// Service owns the content lifecycle: creation stamps exactly one
// author identity (minting anonymous ids and deletion tokens as
// needed), deletion consults the gate, votes go through the ballot.
type Service struct {
	Posts    PostsRepo
	Comments CommentsRepo

	// NewID produces unguessable identifiers for anonymous ids and
	// deletion tokens.
	NewID func() string
}

func NewService(postsRepo PostsRepo, commentsRepo CommentsRepo) *Service {
	return &Service{
		Posts:    postsRepo,
		Comments: commentsRepo,
		NewID:    func() string { return uuid.New().String() },
	}
}

// CreatePost persists a new post for actor. The returned token is the
// deletion token for anonymous posts, disclosed this one time only;
// registered posts get none.
func (s *Service) CreatePost(ctx context.Context, title, content string, category posts.PostCategory, actor identity.Actor) (*posts.Post, string, error) {
	post := &posts.Post{
		Title:    title,
		Content:  content,
		Category: category,
		Ballot:   votes.Ballot{Upvotes: []string{}, Downvotes: []string{}},
		Created:  time.Now(),
	}

	token := s.stampAuthor(&post.AuthorID, &post.AnonymousID, &post.DeleteToken, actor)
	if err := checkAuthorship(post.AuthorID, post.AnonymousID, post.DeleteToken); err != nil {
		return nil, "", err
	}

	id, err := s.Posts.Add(ctx, post)
	if err != nil {
		return nil, "", err
	}

	post.ID = id
	return post, token, nil
}

// CreateComment persists a new comment. The referenced post must
// exist; parentID is recorded verbatim, top-level when nil.
func (s *Service) CreateComment(ctx context.Context, content string, postID, parentID interface{}, actor identity.Actor) (*comments.Comment, string, error) {
	if _, err := s.Posts.GetByID(ctx, postID); err != nil {
		return nil, "", err
	}

	comment := &comments.Comment{
		PostID:   postID,
		ParentID: parentID,
		Content:  content,
		Ballot:   votes.Ballot{Upvotes: []string{}, Downvotes: []string{}},
		Created:  time.Now(),
	}

	token := s.stampAuthor(&comment.AuthorID, &comment.AnonymousID, &comment.DeleteToken, actor)
	if err := checkAuthorship(comment.AuthorID, comment.AnonymousID, comment.DeleteToken); err != nil {
		return nil, "", err
	}

	id, err := s.Comments.Add(ctx, comment)
	if err != nil {
		return nil, "", err
	}

	comment.ID = id
	return comment, token, nil
}

// DeletePost removes the post permanently. Its comments are left in
// place, still reachable by post id.
func (s *Service) DeletePost(ctx context.Context, id interface{}, actor identity.Actor, suppliedToken string) error {
	post, err := s.Posts.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !identity.CanDelete(post, actor, suppliedToken) {
		return common.ErrForbidden
	}

	ok, err := s.Posts.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrNotFound
	}

	return nil
}

// DeleteComment tombstones the comment, keeping its id and parent
// linkage so existing replies stay attached.
func (s *Service) DeleteComment(ctx context.Context, id interface{}, actor identity.Actor, suppliedToken string) error {
	comment, err := s.Comments.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !identity.CanDelete(comment, actor, suppliedToken) {
		return common.ErrForbidden
	}

	return s.Comments.MarkDeleted(ctx, id)
}

// VotePost sets the resulting vote state of voterID on the post and
// returns the updated post. Re-applying the same kind is a no-op;
// clearing requires votes.Remove.
func (s *Service) VotePost(ctx context.Context, id interface{}, voterID string, kind votes.Kind) (*posts.Post, error) {
	post, err := s.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := post.Apply(voterID, kind); err != nil {
		return nil, err
	}

	if err := s.Posts.UpdateVotes(ctx, id, &post.Ballot); err != nil {
		return nil, err
	}

	return post, nil
}

func (s *Service) VoteComment(ctx context.Context, id interface{}, voterID string, kind votes.Kind) (*comments.Comment, error) {
	comment, err := s.Comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := comment.Apply(voterID, kind); err != nil {
		return nil, err
	}

	if err := s.Comments.UpdateVotes(ctx, id, &comment.Ballot); err != nil {
		return nil, err
	}

	return comment, nil
}

// stampAuthor fills the author fields from the actor and returns the
// freshly minted deletion token, empty for registered actors. An
// anonymous actor without a client-supplied id gets a fresh one.
func (s *Service) stampAuthor(authorID *int64, anonID, token *string, actor identity.Actor) string {
	if actor.IsRegistered() {
		*authorID = actor.UserID
		return ""
	}

	*anonID = actor.AnonID
	if *anonID == "" {
		*anonID = s.NewID()
	}

	*token = s.NewID()
	return *token
}

// checkAuthorship enforces the creation invariant: exactly one of
// registered author / anonymous id is set, and a deletion token exists
// iff the item is anonymous.
func checkAuthorship(authorID int64, anonID, token string) error {
	if (authorID != 0) == (anonID != "") {
		return common.NewValidationError("author", "exactly one of author and anonymousId must be set")
	}

	if (anonID != "") != (token != "") {
		return common.NewValidationError("deletionToken", "must be set exactly for anonymous items")
	}

	return nil
}
