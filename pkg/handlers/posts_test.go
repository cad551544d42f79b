package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anonforum/pkg/common"
	"anonforum/pkg/forum"
	"anonforum/pkg/posts"
	"anonforum/pkg/session"
	"anonforum/pkg/user"
	"anonforum/pkg/votes"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type postHandlerEnv struct {
	posts    *forum.MockPostsRepo
	comments *forum.MockCommentsRepo
	users    *MockUsersRepo
	service  *forum.Service
	handler  *PostHandler
}

func newPostHandlerEnv(t *testing.T, ids ...string) *postHandlerEnv {
	t.Helper()
	ctrl := gomock.NewController(t)

	env := &postHandlerEnv{
		posts:    forum.NewMockPostsRepo(ctrl),
		comments: forum.NewMockCommentsRepo(ctrl),
		users:    NewMockUsersRepo(ctrl),
	}
	env.service = forum.NewService(env.posts, env.comments)
	env.service.NewID = func() string {
		next := ids[0]
		ids = ids[1:]
		return next
	}
	env.handler = &PostHandler{
		Service:   env.service,
		PostsRepo: env.posts,
		UsersRepo: env.users,
		Logger:    zap.NewNop().Sugar(),
	}

	return env
}

func withSession(r *http.Request, userID int64, isAdmin bool) *http.Request {
	sess := &session.Session{User: &session.User{ID: userID, Username: username, IsAdmin: isAdmin}}
	return r.WithContext(contextWithValue(r, sess))
}

func contextWithValue(r *http.Request, sess *session.Session) context.Context {
	return context.WithValue(r.Context(), session.SessionKey, sess)
}

func TestListPosts(t *testing.T) {
	env := newPostHandlerEnv(t)

	listed := []*posts.Post{
		{ID: primitive.NewObjectID(), Title: "first", Content: "body", Category: posts.Music, AuthorID: int64(1), Ballot: votes.Ballot{Upvotes: []string{"1"}, Downvotes: []string{}, Score: 1}, Created: time.Now()},
		{ID: primitive.NewObjectID(), Title: "second", Content: "body", Category: posts.Music, AnonymousID: "a9b3", DeleteToken: "tok", Ballot: votes.Ballot{Upvotes: []string{}, Downvotes: []string{}, Score: 0}, Created: time.Now()},
	}

	// category=all is the same as no category filter
	env.posts.EXPECT().GetPage(gomock.Any(), "", int64(1), int64(25)).Return(listed, int64(3), nil)
	env.users.EXPECT().GetByID(int64(1)).Return(&user.User{ID: 1, Username: username}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/posts?category=all", nil)
	w := httptest.NewRecorder()
	env.handler.List(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("wrong status code: %d, but expected %d", w.Code, http.StatusOK)
	}

	var resp PostsListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err.Error())
	}

	if resp.TotalPages != 3 || resp.Page != 1 {
		t.Errorf("expected page 1 of 3 but was page %v of %v", resp.Page, resp.TotalPages)
	}
	if len(resp.Posts) != 2 {
		t.Fatalf("expected 2 posts but was %v", len(resp.Posts))
	}
	if resp.Posts[0].Author == nil || resp.Posts[0].Author.Username != username {
		t.Errorf("expected author %v but was %v", username, resp.Posts[0].Author)
	}
	if resp.Posts[1].AnonymousID != "a9b3" || resp.Posts[1].Author != nil {
		t.Errorf("expected anonymous author but was %v", resp.Posts[1])
	}
	if resp.Posts[1].DeletionToken != "" {
		t.Error("deletion token must not leak into listings")
	}
}

func TestListPostsBadPage(t *testing.T) {
	env := newPostHandlerEnv(t)

	r := httptest.NewRequest(http.MethodGet, "/api/posts?page=zero", nil)
	w := httptest.NewRecorder()
	env.handler.List(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("wrong status code: %d, but expected %d", w.Code, http.StatusBadRequest)
	}
}

func TestGetPostByIDNotFound(t *testing.T) {
	env := newPostHandlerEnv(t)

	id := primitive.NewObjectID()
	env.posts.EXPECT().ParseID(id.Hex()).Return(id, nil)
	env.posts.EXPECT().GetByID(gomock.Any(), id).Return(nil, common.ErrNotFound)

	r := httptest.NewRequest(http.MethodGet, "/api/post/"+id.Hex(), nil)
	r = mux.SetURLVars(r, map[string]string{"id": id.Hex()})
	w := httptest.NewRecorder()
	env.handler.GetByID(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("wrong status code: %d, but expected %d", w.Code, http.StatusNotFound)
	}
}

func TestCreatePostAnonymous(t *testing.T) {
	env := newPostHandlerEnv(t, "minted-anon-id", "minted-token")

	id := primitive.NewObjectID()
	env.posts.EXPECT().Add(gomock.Any(), gomock.Any()).Return(id, nil)

	body, _ := json.Marshal(map[string]string{"title": "hello", "content": "world", "category": "music"})
	r := httptest.NewRequest(http.MethodPost, "/api/post", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	env.handler.Create(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("wrong status code: %d, but expected %d", w.Code, http.StatusCreated)
	}

	var resp PostResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err.Error())
	}

	if resp.AnonymousID != "minted-anon-id" {
		t.Errorf("expected minted-anon-id but was %v", resp.AnonymousID)
	}
	if resp.DeletionToken != "minted-token" {
		t.Errorf("expected minted-token but was %v", resp.DeletionToken)
	}
	if resp.Author != nil {
		t.Errorf("expected no author but was %v", resp.Author)
	}
}

func TestCreatePostRegistered(t *testing.T) {
	env := newPostHandlerEnv(t)

	id := primitive.NewObjectID()
	env.posts.EXPECT().Add(gomock.Any(), gomock.Any()).Return(id, nil)
	env.users.EXPECT().GetByID(int64(1)).Return(&user.User{ID: 1, Username: username}, nil)

	body, _ := json.Marshal(map[string]string{"title": "hello", "content": "world", "category": "music"})
	r := httptest.NewRequest(http.MethodPost, "/api/post", bytes.NewBuffer(body))
	r = withSession(r, int64(1), false)
	w := httptest.NewRecorder()
	env.handler.Create(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("wrong status code: %d, but expected %d", w.Code, http.StatusCreated)
	}

	var resp PostResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err.Error())
	}

	if resp.Author == nil || resp.Author.Username != username {
		t.Errorf("expected author %v but was %v", username, resp.Author)
	}
	if resp.DeletionToken != "" {
		t.Errorf("expected no deletion token but was %v", resp.DeletionToken)
	}
}

func TestCreatePostValidation(t *testing.T) {
	env := newPostHandlerEnv(t)

	body, _ := json.Marshal(map[string]string{"content": "world", "category": "music"})
	r := httptest.NewRequest(http.MethodPost, "/api/post", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	env.handler.Create(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("wrong status code: %d, but expected %d", w.Code, http.StatusUnprocessableEntity)
	}
}

func TestVotePost(t *testing.T) {
	env := newPostHandlerEnv(t)

	id := primitive.NewObjectID()
	stored := &posts.Post{ID: id, Title: "hello", Category: posts.Music, AuthorID: int64(1), Ballot: votes.Ballot{Upvotes: []string{}, Downvotes: []string{}}}

	env.posts.EXPECT().ParseID(id.Hex()).Return(id, nil)
	env.posts.EXPECT().GetByID(gomock.Any(), id).Return(stored, nil)
	env.posts.EXPECT().UpdateVotes(gomock.Any(), id, &votes.Ballot{Upvotes: []string{"7"}, Downvotes: []string{}, Score: 1}).Return(nil)
	env.users.EXPECT().GetByID(int64(1)).Return(&user.User{ID: 1, Username: username}, nil)

	body, _ := json.Marshal(map[string]string{"voteType": "upvote"})
	r := httptest.NewRequest(http.MethodPatch, "/api/post/"+id.Hex()+"/vote", bytes.NewBuffer(body))
	r = mux.SetURLVars(r, map[string]string{"id": id.Hex()})
	r = withSession(r, int64(7), false)
	w := httptest.NewRecorder()
	env.handler.Vote(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("wrong status code: %d, but expected %d", w.Code, http.StatusOK)
	}

	var resp PostResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err.Error())
	}

	if resp.Score != 1 {
		t.Errorf("expected score 1 but was %v", resp.Score)
	}
}

func TestVotePostBadType(t *testing.T) {
	env := newPostHandlerEnv(t)

	id := primitive.NewObjectID()
	env.posts.EXPECT().ParseID(id.Hex()).Return(id, nil)

	body, _ := json.Marshal(map[string]string{"voteType": "sideways", "voterId": "a9b3"})
	r := httptest.NewRequest(http.MethodPatch, "/api/post/"+id.Hex()+"/vote", bytes.NewBuffer(body))
	r = mux.SetURLVars(r, map[string]string{"id": id.Hex()})
	w := httptest.NewRecorder()
	env.handler.Vote(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("wrong status code: %d, but expected %d", w.Code, http.StatusUnprocessableEntity)
	}
}

func TestDeletePostWrongToken(t *testing.T) {
	env := newPostHandlerEnv(t)

	id := primitive.NewObjectID()
	stored := &posts.Post{ID: id, Title: "hello", AnonymousID: "a9b3", DeleteToken: "secret"}

	env.posts.EXPECT().ParseID(id.Hex()).Return(id, nil)
	env.posts.EXPECT().GetByID(gomock.Any(), id).Return(stored, nil)

	body, _ := json.Marshal(map[string]string{"deletionToken": "wrong"})
	r := httptest.NewRequest(http.MethodDelete, "/api/post/"+id.Hex(), bytes.NewBuffer(body))
	r = mux.SetURLVars(r, map[string]string{"id": id.Hex()})
	w := httptest.NewRecorder()
	env.handler.Delete(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("wrong status code: %d, but expected %d", w.Code, http.StatusForbidden)
	}
}

func TestDeletePostWithToken(t *testing.T) {
	env := newPostHandlerEnv(t)

	id := primitive.NewObjectID()
	stored := &posts.Post{ID: id, Title: "hello", AnonymousID: "a9b3", DeleteToken: "secret"}

	env.posts.EXPECT().ParseID(id.Hex()).Return(id, nil)
	env.posts.EXPECT().GetByID(gomock.Any(), id).Return(stored, nil)
	env.posts.EXPECT().Delete(gomock.Any(), id).Return(true, nil)

	body, _ := json.Marshal(map[string]string{"deletionToken": "secret"})
	r := httptest.NewRequest(http.MethodDelete, "/api/post/"+id.Hex(), bytes.NewBuffer(body))
	r = mux.SetURLVars(r, map[string]string{"id": id.Hex()})
	w := httptest.NewRecorder()
	env.handler.Delete(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("wrong status code: %d, but expected %d", w.Code, http.StatusOK)
	}
}

func TestGetPostsByUser(t *testing.T) {
	env := newPostHandlerEnv(t)

	authored := []*posts.Post{
		{ID: primitive.NewObjectID(), Title: "first", AuthorID: int64(1), Ballot: votes.Ballot{Upvotes: []string{}, Downvotes: []string{}}},
	}

	env.users.EXPECT().GetByUsername(username).Return(&user.User{ID: 1, Username: username}, nil)
	env.posts.EXPECT().GetByAuthorID(gomock.Any(), int64(1)).Return(authored, nil)
	env.users.EXPECT().GetByID(int64(1)).Return(&user.User{ID: 1, Username: username}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/user/"+username+"/posts", nil)
	r = mux.SetURLVars(r, map[string]string{"username": username})
	w := httptest.NewRecorder()
	env.handler.GetByUser(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("wrong status code: %d, but expected %d", w.Code, http.StatusOK)
	}
}

func TestGetPostsByUserNotFound(t *testing.T) {
	env := newPostHandlerEnv(t)

	env.users.EXPECT().GetByUsername("ghost").Return(nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/user/ghost/posts", nil)
	r = mux.SetURLVars(r, map[string]string{"username": "ghost"})
	w := httptest.NewRecorder()
	env.handler.GetByUser(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("wrong status code: %d, but expected %d", w.Code, http.StatusNotFound)
	}
}
