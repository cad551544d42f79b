package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"time"

	"anonforum/pkg/forum"
	"anonforum/pkg/identity"
	"anonforum/pkg/posts"
	"anonforum/pkg/session"
	"anonforum/pkg/votes"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	defaultPage  = int64(1)
	defaultLimit = int64(25)
)

type PostHandler struct {
	Service   *forum.Service
	PostsRepo forum.PostsRepo
	UsersRepo UsersRepo
	Logger    *zap.SugaredLogger
}

type PostsListResponse struct {
	Posts      []*PostResponse `json:"posts"`
	Page       int64           `json:"page"`
	TotalPages int64           `json:"totalPages"`
}

type CreatePostReq struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	Category    *string `json:"category"`
	AnonymousID string  `json:"anonymousId"`
}

type VoteReq struct {
	VoterID  string  `json:"voterId"`
	VoteType *string `json:"voteType"`
}

type DeleteReq struct {
	DeletionToken string `json:"deletionToken"`
}

func (p *CreatePostReq) validate() []*CustomError {
	title := &Validator{value: p.Title, location: "body", field: "title"}
	titleErr := func() *CustomError {
		err := title.Required()
		if err != nil {
			return err
		}
		err = title.Empty()
		if err != nil {
			return err
		}
		err = title.MaxLength(300)
		if err != nil {
			return err
		}
		return title.Custom(func(value string) bool {
			return strings.TrimSpace(value) == value
		}, "cannot start or end with whitespace")
	}()

	content := &Validator{value: p.Content, location: "body", field: "content"}
	contentErr := func() *CustomError {
		err := content.Required()
		if err != nil {
			return err
		}
		return content.Empty()
	}()

	category := &Validator{value: p.Category, location: "body", field: "category"}
	categoryErr := func() *CustomError {
		err := category.Required()
		if err != nil {
			return err
		}
		return category.Empty()
	}()

	return mergeErrors(titleErr, contentErr, categoryErr)
}

func (v *VoteReq) validate() []*CustomError {
	voteType := &Validator{value: v.VoteType, location: "body", field: "voteType"}
	voteTypeErr := func() *CustomError {
		err := voteType.Required()
		if err != nil {
			return err
		}
		return voteType.Matches("^(upvote|downvote|remove)$")
	}()

	return mergeErrors(voteTypeErr)
}

// List returns one page of posts, filtered down to a category when one
// is given. "all" and an absent category mean the same thing.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == string(posts.All) {
		category = ""
	}

	page, err := queryInt(r, "page", defaultPage)
	if err != nil {
		WriteResponse(w, "invalid page value", http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil {
		WriteResponse(w, "invalid limit value", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	postsDb, totalPages, err := h.PostsRepo.GetPage(ctx, category, page, limit)
	if err != nil {
		writeDomainError(w, h.Logger, err)
		return
	}

	postsResp, err := mapToPostsResponse(postsDb, h.UsersRepo)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.Logger, &PostsListResponse{Posts: postsResp, Page: page, TotalPages: totalPages}, http.StatusOK)
}

func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := h.PostsRepo.ParseID(mux.Vars(r)["id"])
	if err != nil {
		WriteResponse(w, "invalid post id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	post, err := h.PostsRepo.GetByID(ctx, id)
	if err != nil {
		writeDomainError(w, h.Logger, err)
		return
	}

	resp, err := MapToPostResponse(post, h.UsersRepo)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.Logger, resp, http.StatusOK)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		WriteResponse(w, "bad request", http.StatusBadRequest)
		return
	}

	var req CreatePostReq
	err = json.Unmarshal(body, &req)
	if err != nil {
		WriteResponse(w, "bad request", http.StatusBadRequest)
		return
	}

	validationErrors := req.validate()
	if len(validationErrors) > 0 {
		writeErrorsResponse(w, validationErrors, http.StatusUnprocessableEntity)
		return
	}

	actor := identity.Resolve(session.SessionFromContext(r.Context()), req.AnonymousID)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	post, token, err := h.Service.CreatePost(ctx, *req.Title, *req.Content, posts.PostCategory(*req.Category), actor)
	if err != nil {
		writeDomainError(w, h.Logger, err)
		return
	}

	resp, err := MapToPostResponse(post, h.UsersRepo)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	resp.DeletionToken = token

	writeJSON(w, h.Logger, resp, http.StatusCreated)
}

func (h *PostHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id, err := h.PostsRepo.ParseID(mux.Vars(r)["id"])
	if err != nil {
		WriteResponse(w, "invalid post id", http.StatusBadRequest)
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
	post, err := h.Service.VotePost(ctx, id, actor.VoterID(), votes.Kind(*req.VoteType))
	if err != nil {
		writeDomainError(w, h.Logger, err)
		return
	}

	resp, err := MapToPostResponse(post, h.UsersRepo)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.Logger, resp, http.StatusOK)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.PostsRepo.ParseID(mux.Vars(r)["id"])
	if err != nil {
		WriteResponse(w, "invalid post id", http.StatusBadRequest)
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
	err = h.Service.DeletePost(ctx, id, actor, req.DeletionToken)
	if err != nil {
		writeDomainError(w, h.Logger, err)
		return
	}

	WriteResponse(w, "success", http.StatusOK)
}

func (h *PostHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	u, err := h.UsersRepo.GetByUsername(username)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if u == nil {
		WriteResponse(w, "user not found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	postsDb, err := h.PostsRepo.GetByAuthorID(ctx, u.ID)
	if err != nil {
		writeDomainError(w, h.Logger, err)
		return
	}

	postsResp, err := mapToPostsResponse(postsDb, h.UsersRepo)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.Logger, postsResp, http.StatusOK)
}

func writeJSON(w http.ResponseWriter, logger *zap.SugaredLogger, payload interface{}, status int) {
	respBytes, err := json.Marshal(payload)
	if err != nil {
		logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	w.Write(respBytes)
}

// readBody decodes a JSON request body, treating an empty body as an
// empty request.
func readBody(r *http.Request, dst interface{}) error {
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return err
	}

	if len(body) == 0 {
		return nil
	}

	return json.Unmarshal(body, dst)
}

func queryInt(r *http.Request, name string, def int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || val < 1 {
		return 0, fmt.Errorf("wrong %s value: %v", name, raw)
	}

	return val, nil
}
