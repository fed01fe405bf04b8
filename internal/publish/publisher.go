// Package publish assembles a finished content item and pushes it to the
// external content platform as a draft post.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"contentflow/internal/domain"
	"contentflow/internal/infra"
)

// seoDescriptionMetaKey is the platform's SEO plugin meta field the excerpt
// is mirrored into.
const seoDescriptionMetaKey = "_yoast_wpseo_metadesc"

const maxImageBytes = 16 << 20

// PublishResult is returned on a successful publish.
type PublishResult struct {
	PostID  int    `json:"post_id"`
	PostURL string `json:"post_url"`
}

// Publisher runs the publish pipeline for content items.
type Publisher struct {
	items       domain.WorkItemRepository
	derivatives domain.DerivativeRepository
	platform    Platform
	httpClient  *http.Client
	authorEmail string
	category    string
	logger      infra.Logger
}

// NewPublisher constructs a Publisher. httpClient fetches derivative images
// from their file URLs; nil gets a default with a 30 second timeout.
func NewPublisher(items domain.WorkItemRepository, derivatives domain.DerivativeRepository, platform Platform, httpClient *http.Client, authorEmail, category string, logger infra.Logger) *Publisher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Publisher{
		items:       items,
		derivatives: derivatives,
		platform:    platform,
		httpClient:  httpClient,
		authorEmail: authorEmail,
		category:    category,
		logger:      logger,
	}
}

// Publish pushes a content item to the platform as a draft post.
//
// The precondition gate is hard: without both a blog image and a qualifying
// excerpt derivative, no platform call is made at all. Past the gate, any
// failure surfaces as *PlatformError and leaves the content item's status
// untouched; only a fully successful run flips it to published.
func (p *Publisher) Publish(ctx context.Context, contentItemID string) (*PublishResult, error) {
	if p.platform == nil {
		return nil, ErrPlatformUnconfigured
	}

	item, err := p.items.GetByID(ctx, contentItemID)
	if err != nil {
		return nil, err
	}
	if item.Kind != domain.KindContentItem {
		return nil, fmt.Errorf("work item %s is %q, not a content item: %w", item.ID, item.Kind, domain.ErrInvalidKind)
	}

	image, excerpt, err := p.requiredAssets(ctx, item.ID)
	if err != nil {
		return nil, err
	}

	authorID, err := p.resolveAuthor(ctx)
	if err != nil {
		return nil, &PlatformError{Step: "author resolution", Err: err}
	}

	categoryID, err := p.platform.FindOrCreateCategory(ctx, p.category)
	if err != nil {
		return nil, &PlatformError{Step: "category resolution", Err: err}
	}

	tagIDs := p.resolveTags(ctx, item.Tags)

	mediaID, err := p.uploadImage(ctx, item, image)
	if err != nil {
		return nil, &PlatformError{Step: "image upload", Err: err}
	}

	post, err := p.platform.CreatePost(ctx, PostInput{
		Title:         item.Title,
		Content:       ConvertMarkdown(item.Body),
		Excerpt:       excerpt.Content,
		AuthorID:      authorID,
		CategoryIDs:   []int{categoryID},
		TagIDs:        tagIDs,
		FeaturedMedia: mediaID,
		Meta:          map[string]string{seoDescriptionMetaKey: excerpt.Content},
	})
	if err != nil {
		return nil, &PlatformError{Step: "post creation", Err: err}
	}

	// The creation endpoint has been observed to silently drop the SEO
	// meta field; re-apply it as a second write.
	if err := p.platform.UpdatePostMeta(ctx, post.ID, map[string]string{seoDescriptionMetaKey: excerpt.Content}); err != nil {
		return nil, &PlatformError{Step: "meta rewrite", Err: err}
	}

	if err := p.items.MarkTerminal(ctx, item.ID, domain.StatusPublished, "", post.URL); err != nil {
		return nil, fmt.Errorf("record published status: %w", err)
	}

	p.logger.Info().
		Str("content_item_id", item.ID).
		Int("post_id", post.ID).
		Str("post_url", post.URL).
		Msg("publish: draft created")
	return &PublishResult{PostID: post.ID, PostURL: post.URL}, nil
}

// requiredAssets enforces the precondition gate: exactly one qualifying blog
// image and one qualifying excerpt must exist before any platform call.
func (p *Publisher) requiredAssets(ctx context.Context, contentItemID string) (image, excerpt *domain.Derivative, err error) {
	derivatives, err := p.derivatives.ListByContentItem(ctx, contentItemID)
	if err != nil {
		return nil, nil, fmt.Errorf("load derivatives: %w", err)
	}

	for i := range derivatives {
		d := &derivatives[i]
		switch {
		case image == nil && d.IsBlogImage():
			image = d
		case excerpt == nil && d.IsExcerpt():
			excerpt = d
		}
	}

	if image == nil {
		return nil, nil, &MissingAssetError{
			Asset: domain.DerivativeTypeBlogImage,
			Hint:  "Generate a featured blog image for this content item before publishing.",
		}
	}
	if excerpt == nil {
		return nil, nil, &MissingAssetError{
			Asset: domain.DerivativeTypeExcerpt,
			Hint:  "Generate an excerpt of 200 words or fewer for this content item before publishing.",
		}
	}
	return image, excerpt, nil
}

// resolveAuthor maps the configured author email to a platform user, falling
// back to the authenticated user. A publish never fails solely because the
// configured email does not resolve.
func (p *Publisher) resolveAuthor(ctx context.Context) (int, error) {
	if p.authorEmail != "" {
		id, err := p.platform.FindUserByEmail(ctx, p.authorEmail)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return 0, err
		}
		p.logger.Warn().
			Str("email", p.authorEmail).
			Msg("publish: configured author not found, using authenticated user")
	}
	return p.platform.CurrentUser(ctx)
}

// resolveTags resolves or creates a platform tag per free-text tag. A single
// tag failure is logged and skipped; it never aborts the publish.
func (p *Publisher) resolveTags(ctx context.Context, tags []string) []int {
	var ids []int
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		id, err := p.platform.FindOrCreateTag(ctx, tag, Slugify(tag))
		if err != nil {
			p.logger.Warn().Err(err).Str("tag", tag).Msg("publish: skipping tag")
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// uploadImage fetches the derivative image from its file URL and stores it
// in the platform media library.
func (p *Publisher) uploadImage(ctx context.Context, item *domain.WorkItem, image *domain.Derivative) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, image.FileURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build image fetch: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("fetch image: status %d from %s", resp.StatusCode, image.FileURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return 0, fmt.Errorf("read image: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return p.platform.UploadMedia(ctx, uploadFilename(image.FileURL, item.ID), contentType, data)
}

// uploadFilename derives a media filename from the image URL's path, so a
// signed URL's query string never leaks into the library.
func uploadFilename(fileURL, itemID string) string {
	fallback := fmt.Sprintf("featured-%s.jpg", itemID)
	u, err := url.Parse(fileURL)
	if err != nil {
		return fallback
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return fallback
	}
	return name
}
