package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"anonforum/pkg/comments"
	"anonforum/pkg/common"
	"anonforum/pkg/posts"

	"go.uber.org/zap"
)

type Response struct {
	Message string `json:"message"`
}

type CustomError struct {
	Location string `json:"location"`
	Param    string `json:"param"`
	Value    string `json:"value"`
	Msg      string `json:"msg"`
}

type ErrorsResponse struct {
	Errors []*CustomError `json:"errors"`
}

type Author struct {
	Username string `json:"username"`
	ID       int64  `json:"id"`
}

// PostResponse carries the author as either a registered Author or an
// opaque anonymousId, never both. DeletionToken is filled only in the
// creation response of an anonymous post.
type PostResponse struct {
	ID            interface{}        `json:"id"`
	Title         string             `json:"title"`
	Content       string             `json:"content"`
	Category      posts.PostCategory `json:"category"`
	Author        *Author            `json:"author,omitempty"`
	AnonymousID   string             `json:"anonymousId,omitempty"`
	Upvotes       []string           `json:"upvotes"`
	Downvotes     []string           `json:"downvotes"`
	Score         int                `json:"voteScore"`
	Created       time.Time          `json:"created"`
	DeletionToken string             `json:"deletionToken,omitempty"`
}

type CommentResponse struct {
	ID            interface{} `json:"id"`
	PostID        interface{} `json:"postId"`
	ParentID      interface{} `json:"parentId"`
	Content       string      `json:"content"`
	Author        *Author     `json:"author,omitempty"`
	AnonymousID   string      `json:"anonymousId,omitempty"`
	Upvotes       []string    `json:"upvotes"`
	Downvotes     []string    `json:"downvotes"`
	Score         int         `json:"voteScore"`
	IsDeleted     bool        `json:"isDeleted"`
	Created       time.Time   `json:"created"`
	DeletionToken string      `json:"deletionToken,omitempty"`
}

func WriteResponse(w http.ResponseWriter, msg string, status int) {
	resp := &Response{Message: msg}
	res, err := json.Marshal(resp)
	if err != nil {
		w.WriteHeader(status)
		return
	}

	w.WriteHeader(status)
	w.Write(res)
}

func writeErrorsResponse(w http.ResponseWriter, errors []*CustomError, status int) {
	errorsJSON, err := json.Marshal(&ErrorsResponse{Errors: errors})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}

	w.WriteHeader(status)
	w.Write(errorsJSON)
}

// writeDomainError maps the error kinds coming out of the service
// layer onto response statuses. Anything unrecognized is a 500.
func writeDomainError(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	var validationErr *common.ValidationError

	switch {
	case errors.Is(err, common.ErrNotFound):
		WriteResponse(w, "not found", http.StatusNotFound)
	case errors.Is(err, common.ErrForbidden):
		WriteResponse(w, "forbidden", http.StatusForbidden)
	case errors.As(err, &validationErr):
		writeErrorsResponse(w, []*CustomError{
			{Location: "body", Param: validationErr.Field, Msg: validationErr.Msg},
		}, http.StatusUnprocessableEntity)
	default:
		logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func MapToPostResponse(post *posts.Post, usersRepo UsersRepo) (*PostResponse, error) {
	resp := &PostResponse{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		Category:  post.Category,
		Upvotes:   post.Upvotes,
		Downvotes: post.Downvotes,
		Score:     post.Score,
		Created:   post.Created,
	}

	if post.Anonymous() {
		resp.AnonymousID = post.AnonymousID
		return resp, nil
	}

	author, err := usersRepo.GetByID(post.AuthorID)
	if err != nil {
		return nil, err
	}
	if author != nil {
		resp.Author = &Author{Username: author.Username, ID: author.ID}
	}

	return resp, nil
}

func MapToCommentResponse(c *comments.Comment, usersRepo UsersRepo) (*CommentResponse, error) {
	resp := &CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		ParentID:  c.ParentID,
		Content:   c.Content,
		Upvotes:   c.Upvotes,
		Downvotes: c.Downvotes,
		Score:     c.Score,
		IsDeleted: c.IsDeleted,
		Created:   c.Created,
	}

	if c.Anonymous() {
		resp.AnonymousID = c.AnonymousID
		return resp, nil
	}

	author, err := usersRepo.GetByID(c.AuthorID)
	if err != nil {
		return nil, err
	}
	if author != nil {
		resp.Author = &Author{Username: author.Username, ID: author.ID}
	}

	return resp, nil
}

func mapToCommentsResponse(list []*comments.Comment, usersRepo UsersRepo) ([]*CommentResponse, error) {
	result := make([]*CommentResponse, 0, len(list))
	for _, c := range list {
		mapped, err := MapToCommentResponse(c, usersRepo)
		if err != nil {
			return nil, err
		}
		result = append(result, mapped)
	}

	return result, nil
}

func mapToPostsResponse(list []*posts.Post, usersRepo UsersRepo) ([]*PostResponse, error) {
	result := make([]*PostResponse, 0, len(list))
	for _, p := range list {
		mapped, err := MapToPostResponse(p, usersRepo)
		if err != nil {
			return nil, err
		}
		result = append(result, mapped)
	}

	return result, nil
}
