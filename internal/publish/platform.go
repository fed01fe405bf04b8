package publish

import (
	"context"
	"errors"
	"fmt"
)

// ErrPlatformUnconfigured is returned by Publish when the service runs
// without platform credentials (PLATFORM_BASE_URL unset).
var ErrPlatformUnconfigured = errors.New("content platform is not configured")

// PostInput carries everything needed to create a draft post.
type PostInput struct {
	Title         string
	Content       string
	Excerpt       string
	AuthorID      int
	CategoryIDs   []int
	TagIDs        []int
	FeaturedMedia int
	// Meta carries platform-specific fields, notably the SEO description.
	Meta map[string]string
}

// PostResult identifies the created post.
type PostResult struct {
	ID  int
	URL string
}

// Platform is the external content platform the publisher targets. The
// shipped implementation speaks the WordPress REST API; tests substitute a
// fake.
type Platform interface {
	// FindUserByEmail resolves an author id, domain.ErrNotFound when no
	// user matches.
	FindUserByEmail(ctx context.Context, email string) (int, error)
	// CurrentUser resolves the authenticated user's id.
	CurrentUser(ctx context.Context) (int, error)
	// FindOrCreateCategory resolves a category id by name, creating it on
	// first use.
	FindOrCreateCategory(ctx context.Context, name string) (int, error)
	// FindOrCreateTag resolves a tag id by name and slug, creating it on
	// first use.
	FindOrCreateTag(ctx context.Context, name, slug string) (int, error)
	// UploadMedia stores an image in the platform media library.
	UploadMedia(ctx context.Context, filename, contentType string, data []byte) (int, error)
	// CreatePost creates a draft post.
	CreatePost(ctx context.Context, input PostInput) (*PostResult, error)
	// UpdatePostMeta re-applies meta fields on an existing post.
	UpdatePostMeta(ctx context.Context, postID int, meta map[string]string) error
}

// MissingAssetError reports a failed publish precondition with a remediation
// hint the UI can show verbatim.
type MissingAssetError struct {
	Asset string
	Hint  string
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("missing required asset %q: %s", e.Asset, e.Hint)
}

// PlatformError wraps any failure between author resolution and post
// creation. The content item's status is left untouched when it occurs.
type PlatformError struct {
	Step string
	Err  error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform failure during %s: %v", e.Step, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }
