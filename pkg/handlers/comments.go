package handlers

import (
	"context"
	"net/http"
	"time"

	"anonforum/pkg/comments"
	"anonforum/pkg/forum"
	"anonforum/pkg/identity"
	"anonforum/pkg/session"
	"anonforum/pkg/votes"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type CommentHandler struct {
	Service      *forum.Service
	CommentsRepo forum.CommentsRepo
	PostsRepo    forum.PostsRepo
	UsersRepo    UsersRepo
	Logger       *zap.SugaredLogger
}

type AddCommentReq struct {
	Comment     *string `json:"comment"`
	ParentID    string  `json:"parentId"`
	AnonymousID string  `json:"anonymousId"`
}

func (c *AddCommentReq) validate() []*CustomError {
	comment := &Validator{value: c.Comment, location: "body", field: "comment"}
	commentErr := func() *CustomError {
		err := comment.Required()
		if err != nil {
			return err
		}
		return comment.Empty()
	}()

	return mergeErrors(commentErr)
}

// List returns the comments attached directly to a post in the order
// the sort query asks for, top scored by default.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	postID, err := h.PostsRepo.ParseID(mux.Vars(r)["post_id"])
	if err != nil {
		WriteResponse(w, "invalid post id", http.StatusBadRequest)
		return
	}

	sort := comments.SortMode(r.URL.Query().Get("sort"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	list, err := h.CommentsRepo.TopLevel(ctx, postID, sort)
	if err != nil {
		writeDomainError(w, h.Logger, err)
		return
	}

	resp, err := mapToCommentsResponse(list, h.UsersRepo)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.Logger, resp, http.StatusOK)
}

func (h *CommentHandler) Replies(w http.ResponseWriter, r *http.Request) {
	commentID, err := h.CommentsRepo.ParseID(mux.Vars(r)["id"])
	if err != nil {
		WriteResponse(w, "invalid comment id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	list, err := h.CommentsRepo.Replies(ctx, commentID)
	if err != nil {
		writeDomainError(w, h.Logger, err)
		return
	}

	resp, err := mapToCommentsResponse(list, h.UsersRepo)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.Logger, resp, http.StatusOK)
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	postID, err := h.PostsRepo.ParseID(mux.Vars(r)["post_id"])
	if err != nil {
		WriteResponse(w, "invalid post id", http.StatusBadRequest)
		return
	}

	var req AddCommentReq
	if err := readBody(r, &req); err != nil {
		WriteResponse(w, "bad request", http.StatusBadRequest)
		return
	}

	validationErrors := req.validate()
	if len(validationErrors) > 0 {
		writeErrorsResponse(w, validationErrors, http.StatusUnprocessableEntity)
		return
	}

	var parentID interface{}
	if req.ParentID != "" {
		parentID, err = h.CommentsRepo.ParseID(req.ParentID)
		if err != nil {
			WriteResponse(w, "invalid parent comment id", http.StatusBadRequest)
			return
		}
	}

	actor := identity.Resolve(session.SessionFromContext(r.Context()), req.AnonymousID)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	comment, token, err := h.Service.CreateComment(ctx, *req.Comment, postID, parentID, actor)
	if err != nil {
		writeDomainError(w, h.Logger, err)
		return
	}

	resp, err := MapToCommentResponse(comment, h.UsersRepo)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	resp.DeletionToken = token

	writeJSON(w, h.Logger, resp, http.StatusCreated)
}

func (h *CommentHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id, err := h.CommentsRepo.ParseID(mux.Vars(r)["id"])
	if err != nil {
		WriteResponse(w, "invalid comment id", http.StatusBadRequest)
		return
	}

	var req VoteReq
	if err := readBody(r, &req); err != nil {
		WriteResponse(w, "bad request", http.StatusBadRequest)
		return
	}

	validationErrors := req.validate()
	if len(validationErrors) > 0 {
		writeErrorsResponse(w, validationErrors, http.StatusUnprocessableEntity)
		return
	}

	actor := identity.Resolve(session.SessionFromContext(r.Context()), req.VoterID)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	comment, err := h.Service.VoteComment(ctx, id, actor.VoterID(), votes.Kind(*req.VoteType))
	if err != nil {
		writeDomainError(w, h.Logger, err)
		return
	}

	resp, err := MapToCommentResponse(comment, h.UsersRepo)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.Logger, resp, http.StatusOK)
}

// Delete tombstones a comment. The record survives so replies keep
// their parent.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.CommentsRepo.ParseID(mux.Vars(r)["id"])
	if err != nil {
		WriteResponse(w, "invalid comment id", http.StatusBadRequest)
		return
	}

	var req DeleteReq
	if err := readBody(r, &req); err != nil {
		WriteResponse(w, "bad request", http.StatusBadRequest)
		return
	}

	actor := identity.Resolve(session.SessionFromContext(r.Context()), "")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err = h.Service.DeleteComment(ctx, id, actor, req.DeletionToken)
	if err != nil {
		writeDomainError(w, h.Logger, err)
		return
	}

	WriteResponse(w, "success", http.StatusOK)
}

