package publish

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"contentflow/internal/domain"
)

type fakeItems struct {
	items map[string]*domain.WorkItem
}

func (f *fakeItems) GetByID(_ context.Context, id string) (*domain.WorkItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeItems) MarkProcessing(context.Context, string, time.Time, time.Time) error { return nil }
func (f *fakeItems) MarkFailed(context.Context, string, string) error                   { return nil }

func (f *fakeItems) MarkTerminal(_ context.Context, id string, status domain.Status, resultRef, externalURL string) error {
	item, ok := f.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	item.Status = status
	if externalURL != "" {
		item.ExternalURL = externalURL
	}
	return nil
}

func (f *fakeItems) UpdateStatus(context.Context, string, domain.Status) error { return nil }
func (f *fakeItems) ListExpiredProcessing(context.Context, time.Time) ([]domain.WorkItem, error) {
	return nil, nil
}
func (f *fakeItems) FailExpired(context.Context, []string, string, time.Time) ([]string, error) {
	return nil, nil
}

type fakeDerivatives struct {
	byItem map[string][]domain.Derivative
}

func (f *fakeDerivatives) ListByContentItem(_ context.Context, id string) ([]domain.Derivative, error) {
	return f.byItem[id], nil
}

type fakePlatform struct {
	calls       int
	userByEmail map[string]int
	currentUser int
	tagErrFor   map[string]error
	createErr   error
	metaErr     error

	createdPost *PostInput
	metaWrites  []map[string]string
	uploaded    []string
}

func (f *fakePlatform) FindUserByEmail(_ context.Context, email string) (int, error) {
	f.calls++
	if id, ok := f.userByEmail[email]; ok {
		return id, nil
	}
	return 0, domain.ErrNotFound
}

func (f *fakePlatform) CurrentUser(context.Context) (int, error) {
	f.calls++
	return f.currentUser, nil
}

func (f *fakePlatform) FindOrCreateCategory(_ context.Context, name string) (int, error) {
	f.calls++
	return 11, nil
}

func (f *fakePlatform) FindOrCreateTag(_ context.Context, name, slug string) (int, error) {
	f.calls++
	if err := f.tagErrFor[name]; err != nil {
		return 0, err
	}
	return 100 + len(slug), nil
}

func (f *fakePlatform) UploadMedia(_ context.Context, filename, contentType string, data []byte) (int, error) {
	f.calls++
	f.uploaded = append(f.uploaded, filename)
	return 77, nil
}

func (f *fakePlatform) CreatePost(_ context.Context, input PostInput) (*PostResult, error) {
	f.calls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdPost = &input
	return &PostResult{ID: 321, URL: "https://blog.example.com/?p=321"}, nil
}

func (f *fakePlatform) UpdatePostMeta(_ context.Context, postID int, meta map[string]string) error {
	f.calls++
	if f.metaErr != nil {
		return f.metaErr
	}
	f.metaWrites = append(f.metaWrites, meta)
	return nil
}

func contentItem(id string) *domain.WorkItem {
	return &domain.WorkItem{
		ID:      id,
		Kind:    domain.KindContentItem,
		Status:  domain.StatusCompleted,
		OwnerID: "user-1",
		Title:   "How to brew",
		Body:    "# Brewing\n\nStart **bold**.",
		Tags:    []string{"coffee", "guides"},
	}
}

func assets(imageURL string) []domain.Derivative {
	return []domain.Derivative{
		{ID: "d-1", DerivativeType: domain.DerivativeTypeBlogImage, ContentType: domain.ContentTypeImage, FileURL: imageURL},
		{ID: "d-2", DerivativeType: domain.DerivativeTypeExcerpt, ContentType: domain.ContentTypeText, Content: "A short summary.", WordCount: 3},
	}
}

func newPublisher(items *fakeItems, derivatives *fakeDerivatives, platform Platform) *Publisher {
	return NewPublisher(items, derivatives, platform, nil, "editor@example.com", "Blog", zerolog.Nop())
}

func TestPublishHappyPath(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer imageServer.Close()

	items := &fakeItems{items: map[string]*domain.WorkItem{"ci-1": contentItem("ci-1")}}
	derivatives := &fakeDerivatives{byItem: map[string][]domain.Derivative{"ci-1": assets(imageServer.URL + "/featured.png")}}
	platform := &fakePlatform{userByEmail: map[string]int{"editor@example.com": 5}}

	result, err := newPublisher(items, derivatives, platform).Publish(context.Background(), "ci-1")
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if result.PostID != 321 || result.PostURL != "https://blog.example.com/?p=321" {
		t.Fatalf("unexpected result: %#v", result)
	}

	post := platform.createdPost
	if post == nil {
		t.Fatal("post was not created")
	}
	if post.AuthorID != 5 {
		t.Fatalf("author = %d, want 5", post.AuthorID)
	}
	if post.FeaturedMedia != 77 {
		t.Fatalf("featured media = %d, want 77", post.FeaturedMedia)
	}
	if post.Excerpt != "A short summary." {
		t.Fatalf("excerpt = %q", post.Excerpt)
	}
	if post.Meta[seoDescriptionMetaKey] != "A short summary." {
		t.Fatalf("SEO meta missing from creation: %#v", post.Meta)
	}
	if !strings.Contains(post.Content, "<h1>Brewing</h1>") || !strings.Contains(post.Content, "<strong>bold</strong>") {
		t.Fatalf("body not converted: %q", post.Content)
	}
	if len(post.TagIDs) != 2 {
		t.Fatalf("tags = %#v, want 2 resolved", post.TagIDs)
	}

	// The SEO field is re-applied after creation because the platform has
	// been observed to drop it.
	if len(platform.metaWrites) != 1 || platform.metaWrites[0][seoDescriptionMetaKey] != "A short summary." {
		t.Fatalf("meta rewrite missing: %#v", platform.metaWrites)
	}

	item := items.items["ci-1"]
	if item.Status != domain.StatusPublished {
		t.Fatalf("status = %q, want published", item.Status)
	}
	if item.ExternalURL != "https://blog.example.com/?p=321" {
		t.Fatalf("external url = %q", item.ExternalURL)
	}
}

func TestPublishMissingExcerptMakesZeroPlatformCalls(t *testing.T) {
	items := &fakeItems{items: map[string]*domain.WorkItem{"ci-1": contentItem("ci-1")}}
	derivatives := &fakeDerivatives{byItem: map[string][]domain.Derivative{"ci-1": {
		{ID: "d-1", DerivativeType: domain.DerivativeTypeBlogImage, ContentType: domain.ContentTypeImage, FileURL: "http://img.example.com/a.png"},
	}}}
	platform := &fakePlatform{}

	_, err := newPublisher(items, derivatives, platform).Publish(context.Background(), "ci-1")
	var missing *MissingAssetError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingAssetError, got %v", err)
	}
	if missing.Asset != domain.DerivativeTypeExcerpt {
		t.Fatalf("missing asset = %q, want excerpt", missing.Asset)
	}
	if missing.Hint == "" {
		t.Fatal("remediation hint must be present")
	}
	if platform.calls != 0 {
		t.Fatalf("platform must not be called before the gate passes, got %d calls", platform.calls)
	}
}

func TestPublishRejectsOverlongExcerpt(t *testing.T) {
	items := &fakeItems{items: map[string]*domain.WorkItem{"ci-1": contentItem("ci-1")}}
	derivatives := &fakeDerivatives{byItem: map[string][]domain.Derivative{"ci-1": {
		{ID: "d-1", DerivativeType: domain.DerivativeTypeBlogImage, ContentType: domain.ContentTypeImage, FileURL: "http://img.example.com/a.png"},
		{ID: "d-2", DerivativeType: domain.DerivativeTypeExcerpt, Content: "way too long", WordCount: 250},
	}}}

	_, err := newPublisher(items, derivatives, &fakePlatform{}).Publish(context.Background(), "ci-1")
	var missing *MissingAssetError
	if !errors.As(err, &missing) || missing.Asset != domain.DerivativeTypeExcerpt {
		t.Fatalf("excerpt over 200 words must not qualify, got %v", err)
	}
}

func TestPublishFallsBackToCurrentUser(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("img"))
	}))
	defer imageServer.Close()

	items := &fakeItems{items: map[string]*domain.WorkItem{"ci-1": contentItem("ci-1")}}
	derivatives := &fakeDerivatives{byItem: map[string][]domain.Derivative{"ci-1": assets(imageServer.URL + "/a.png")}}
	platform := &fakePlatform{currentUser: 42}

	if _, err := newPublisher(items, derivatives, platform).Publish(context.Background(), "ci-1"); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if platform.createdPost.AuthorID != 42 {
		t.Fatalf("author = %d, want current user 42", platform.createdPost.AuthorID)
	}
}

func TestPublishSkipsFailingTag(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("img"))
	}))
	defer imageServer.Close()

	items := &fakeItems{items: map[string]*domain.WorkItem{"ci-1": contentItem("ci-1")}}
	derivatives := &fakeDerivatives{byItem: map[string][]domain.Derivative{"ci-1": assets(imageServer.URL + "/a.png")}}
	platform := &fakePlatform{
		userByEmail: map[string]int{"editor@example.com": 5},
		tagErrFor:   map[string]error{"coffee": errors.New("term locked")},
	}

	if _, err := newPublisher(items, derivatives, platform).Publish(context.Background(), "ci-1"); err != nil {
		t.Fatalf("single tag failure must not abort publish: %v", err)
	}
	if len(platform.createdPost.TagIDs) != 1 {
		t.Fatalf("tags = %#v, want the surviving tag only", platform.createdPost.TagIDs)
	}
}

func TestPublishPlatformErrorLeavesStatusUntouched(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("img"))
	}))
	defer imageServer.Close()

	items := &fakeItems{items: map[string]*domain.WorkItem{"ci-1": contentItem("ci-1")}}
	derivatives := &fakeDerivatives{byItem: map[string][]domain.Derivative{"ci-1": assets(imageServer.URL + "/a.png")}}
	platform := &fakePlatform{
		userByEmail: map[string]int{"editor@example.com": 5},
		createErr:   errors.New("posts endpoint 500"),
	}

	_, err := newPublisher(items, derivatives, platform).Publish(context.Background(), "ci-1")
	var platformErr *PlatformError
	if !errors.As(err, &platformErr) {
		t.Fatalf("expected PlatformError, got %v", err)
	}
	if items.items["ci-1"].Status != domain.StatusCompleted {
		t.Fatalf("status must stay untouched, got %q", items.items["ci-1"].Status)
	}
}

func TestPublishWithoutPlatformConfigured(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("img"))
	}))
	defer imageServer.Close()

	items := &fakeItems{items: map[string]*domain.WorkItem{"ci-1": contentItem("ci-1")}}
	derivatives := &fakeDerivatives{byItem: map[string][]domain.Derivative{"ci-1": assets(imageServer.URL + "/a.png")}}

	// The service boots without platform credentials; publish must fail
	// cleanly, not dereference a nil platform.
	_, err := newPublisher(items, derivatives, nil).Publish(context.Background(), "ci-1")
	if !errors.Is(err, ErrPlatformUnconfigured) {
		t.Fatalf("expected ErrPlatformUnconfigured, got %v", err)
	}
	if items.items["ci-1"].Status != domain.StatusCompleted {
		t.Fatalf("status must stay untouched, got %q", items.items["ci-1"].Status)
	}
}

func TestPublishStripsQueryFromUploadFilename(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("img"))
	}))
	defer imageServer.Close()

	items := &fakeItems{items: map[string]*domain.WorkItem{"ci-1": contentItem("ci-1")}}
	derivatives := &fakeDerivatives{byItem: map[string][]domain.Derivative{
		"ci-1": assets(imageServer.URL + "/featured.png?token=abc123&expires=999"),
	}}
	platform := &fakePlatform{userByEmail: map[string]int{"editor@example.com": 5}}

	if _, err := newPublisher(items, derivatives, platform).Publish(context.Background(), "ci-1"); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if len(platform.uploaded) != 1 || platform.uploaded[0] != "featured.png" {
		t.Fatalf("upload filename = %#v, want [featured.png]", platform.uploaded)
	}
}

func TestPublishUnknownContentItem(t *testing.T) {
	publisher := newPublisher(&fakeItems{items: map[string]*domain.WorkItem{}}, &fakeDerivatives{}, &fakePlatform{})
	if _, err := publisher.Publish(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPublishRejectsNonContentKinds(t *testing.T) {
	items := &fakeItems{items: map[string]*domain.WorkItem{"idea-1": {ID: "idea-1", Kind: domain.KindIdea, OwnerID: "user-1"}}}
	publisher := newPublisher(items, &fakeDerivatives{}, &fakePlatform{})
	if _, err := publisher.Publish(context.Background(), "idea-1"); !errors.Is(err, domain.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}
