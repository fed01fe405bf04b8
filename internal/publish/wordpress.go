package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"contentflow/internal/domain"
	"contentflow/internal/infra"
)

// ErrMissingCredentials indicates the client was configured without
// application-password credentials.
var ErrMissingCredentials = errors.New("wordpress: credentials are required")

// WPOptions configures the WordPress REST client.
type WPOptions struct {
	BaseURL     string
	Username    string
	AppPassword string
	HTTPClient  *http.Client
	Logger      *infra.Logger
}

// WPClient performs HTTP calls against the WordPress REST API and implements
// the Platform interface.
type WPClient struct {
	baseURL    string
	username   string
	appPass    string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewWPClient constructs a client with sane defaults and injected dependencies.
func NewWPClient(opts WPOptions) (*WPClient, error) {
	if opts.Username == "" || opts.AppPassword == "" {
		return nil, ErrMissingCredentials
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &WPClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		username:   opts.Username,
		appPass:    opts.AppPassword,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

type wpUser struct {
	ID int `json:"id"`
}

type wpTerm struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type wpMedia struct {
	ID int `json:"id"`
}

type wpPost struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
}

// FindUserByEmail resolves an author by email search. WordPress matches the
// search term against several fields, so the email is checked client-side by
// taking the first result only when exactly one user matches.
func (c *WPClient) FindUserByEmail(ctx context.Context, email string) (int, error) {
	var users []wpUser
	q := url.Values{"search": {email}, "context": {"edit"}}
	if err := c.get(ctx, "/wp-json/wp/v2/users?"+q.Encode(), &users); err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, domain.ErrNotFound
	}
	return users[0].ID, nil
}

// CurrentUser resolves the authenticated user.
func (c *WPClient) CurrentUser(ctx context.Context) (int, error) {
	var user wpUser
	if err := c.get(ctx, "/wp-json/wp/v2/users/me", &user); err != nil {
		return 0, err
	}
	return user.ID, nil
}

// FindOrCreateCategory resolves a category id by exact name, creating the
// category on first use.
func (c *WPClient) FindOrCreateCategory(ctx context.Context, name string) (int, error) {
	var terms []wpTerm
	q := url.Values{"search": {name}}
	if err := c.get(ctx, "/wp-json/wp/v2/categories?"+q.Encode(), &terms); err != nil {
		return 0, err
	}
	for _, t := range terms {
		if strings.EqualFold(t.Name, name) {
			return t.ID, nil
		}
	}

	var created wpTerm
	if err := c.post(ctx, "/wp-json/wp/v2/categories", map[string]any{"name": name}, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// FindOrCreateTag resolves a tag id by slug, creating the tag on first use.
func (c *WPClient) FindOrCreateTag(ctx context.Context, name, slug string) (int, error) {
	var terms []wpTerm
	q := url.Values{"slug": {slug}}
	if err := c.get(ctx, "/wp-json/wp/v2/tags?"+q.Encode(), &terms); err != nil {
		return 0, err
	}
	if len(terms) > 0 {
		return terms[0].ID, nil
	}

	var created wpTerm
	if err := c.post(ctx, "/wp-json/wp/v2/tags", map[string]any{"name": name, "slug": slug}, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// UploadMedia stores an image in the media library.
func (c *WPClient) UploadMedia(ctx context.Context, filename, contentType string, data []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/wp-json/wp/v2/media", bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("build media request: %w", err)
	}
	req.SetBasicAuth(c.username, c.appPass)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	var media wpMedia
	if err := c.do(req, &media); err != nil {
		return 0, err
	}
	return media.ID, nil
}

// CreatePost creates a draft post.
func (c *WPClient) CreatePost(ctx context.Context, input PostInput) (*PostResult, error) {
	body := map[string]any{
		"title":      input.Title,
		"content":    input.Content,
		"excerpt":    input.Excerpt,
		"status":     "draft",
		"author":     input.AuthorID,
		"categories": input.CategoryIDs,
		"tags":       input.TagIDs,
	}
	if input.FeaturedMedia != 0 {
		body["featured_media"] = input.FeaturedMedia
	}
	if len(input.Meta) > 0 {
		body["meta"] = input.Meta
	}

	var post wpPost
	if err := c.post(ctx, "/wp-json/wp/v2/posts", body, &post); err != nil {
		return nil, err
	}
	return &PostResult{ID: post.ID, URL: post.Link}, nil
}

// UpdatePostMeta re-applies meta fields on an existing post.
func (c *WPClient) UpdatePostMeta(ctx context.Context, postID int, meta map[string]string) error {
	var post wpPost
	return c.post(ctx, fmt.Sprintf("/wp-json/wp/v2/posts/%d", postID), map[string]any{"meta": meta}, &post)
}

func (c *WPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.appPass)
	return c.do(req, out)
}

func (c *WPClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.appPass)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *WPClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if c.logger != nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("path", req.URL.Path).
				Msg("wordpress: request failed")
		}
		return fmt.Errorf("%s returned %d: %s", req.URL.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

var _ Platform = (*WPClient)(nil)
