package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/akinalp/socialspace/models"
)

// APIError is a response with success:false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// LoginResult is the payload of a successful login.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Online is the payload of GET /api/v1/online.
type Online struct {
	OnlineUsers []string `json:"online_users"`
	Connections int      `json:"connections"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// API is the REST client. The session cookie set at login is kept in a
// cookie jar and sent on every later request.
type API struct {
	base *url.URL
	hc   *http.Client

	mu    sync.RWMutex
	token string
}

// NewAPI returns a client for the server at baseURL, e.g.
// "http://localhost:8000".
func NewAPI(baseURL string) (*API, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &API{
		base: base,
		hc:   &http.Client{Jar: jar, Timeout: 30 * time.Second},
	}, nil
}

// Token returns the access token of the last login, "" when signed out.
func (a *API) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// SocketURL returns the websocket endpoint of the server.
func (a *API) SocketURL() string {
	u := *a.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String()
}

func (a *API) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var user models.User
	if err := a.do(ctx, http.MethodPost, "/api/v1/user/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *API) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := a.do(ctx, http.MethodPost, "/api/v1/user/login", models.LoginRequest{
		Email:    email,
		Password: password,
	}, &result)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.token = result.Token
	a.mu.Unlock()
	return &result, nil
}

func (a *API) Logout(ctx context.Context) error {
	err := a.do(ctx, http.MethodPost, "/api/v1/user/logout", nil, nil)

	a.mu.Lock()
	a.token = ""
	a.mu.Unlock()
	return err
}

func (a *API) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := a.do(ctx, http.MethodGet, "/api/v1/user/"+url.PathEscape(userID)+"/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (a *API) Suggested(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := a.do(ctx, http.MethodGet, "/api/v1/user/suggested", nil, &users)
	return users, err
}

func (a *API) Search(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User
	err := a.do(ctx, http.MethodGet, "/api/v1/user/search?q="+url.QueryEscape(query), nil, &users)
	return users, err
}

// FollowOrUnfollow toggles the follow and reports whether the caller now
// follows userID.
func (a *API) FollowOrUnfollow(ctx context.Context, userID string) (bool, error) {
	var result models.FollowResult
	if err := a.do(ctx, http.MethodPost, "/api/v1/user/followorunfollow/"+url.PathEscape(userID), nil, &result); err != nil {
		return false, err
	}
	return result.Following, nil
}

func (a *API) Posts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := a.do(ctx, http.MethodGet, "/api/v1/post/all", nil, &posts)
	return posts, err
}

func (a *API) Like(ctx context.Context, postID string) error {
	return a.do(ctx, http.MethodPost, "/api/v1/post/"+url.PathEscape(postID)+"/like", nil, nil)
}

func (a *API) Dislike(ctx context.Context, postID string) error {
	return a.do(ctx, http.MethodPost, "/api/v1/post/"+url.PathEscape(postID)+"/dislike", nil, nil)
}

// Bookmark toggles the bookmark and returns "saved" or "unsaved".
func (a *API) Bookmark(ctx context.Context, postID string) (string, error) {
	var result models.BookmarkResult
	if err := a.do(ctx, http.MethodPost, "/api/v1/post/"+url.PathEscape(postID)+"/bookmark", nil, &result); err != nil {
		return "", err
	}
	return result.Type, nil
}

func (a *API) DeletePost(ctx context.Context, postID string) error {
	return a.do(ctx, http.MethodDelete, "/api/v1/post/delete/"+url.PathEscape(postID), nil, nil)
}

func (a *API) AddComment(ctx context.Context, postID, text string) (*models.Comment, error) {
	var comment models.Comment
	err := a.do(ctx, http.MethodPost, "/api/v1/post/"+url.PathEscape(postID)+"/comment",
		models.CreateCommentRequest{Text: text}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (a *API) DeleteComment(ctx context.Context, postID, commentID string) error {
	return a.do(ctx, http.MethodDelete,
		"/api/v1/post/"+url.PathEscape(postID)+"/comment/"+url.PathEscape(commentID), nil, nil)
}

func (a *API) SendMessage(ctx context.Context, receiverID, text string) (*models.Message, error) {
	var msg models.Message
	err := a.do(ctx, http.MethodPost, "/api/v1/message/send/"+url.PathEscape(receiverID),
		models.SendMessageRequest{TextMessage: text}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (a *API) Conversation(ctx context.Context, otherID string) ([]models.Message, error) {
	var messages []models.Message
	err := a.do(ctx, http.MethodGet, "/api/v1/message/all/"+url.PathEscape(otherID), nil, &messages)
	return messages, err
}

func (a *API) Online(ctx context.Context) (*Online, error) {
	var online Online
	if err := a.do(ctx, http.MethodGet, "/api/v1/online", nil, &online); err != nil {
		return nil, err
	}
	return &online, nil
}

// do sends a JSON request and decodes the envelope's data into out.
func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base.String()+path, &body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: failed to decode response (HTTP %d): %w", method, path, resp.StatusCode, err)
	}
	if !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: failed to decode data: %w", method, path, err)
		}
	}
	return nil
}
