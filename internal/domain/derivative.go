package domain

import "time"

// Derivative types the publish pipeline cares about. Other derivative types
// exist (social posts, ads) but are opaque to the core.
const (
	DerivativeTypeBlogImage = "blog_image"
	DerivativeTypeExcerpt   = "excerpt"
)

// Derivative content types.
const (
	ContentTypeImage = "image"
	ContentTypeText  = "text"
)

// Derivative is a generated content asset attached to a content item. The
// core reads derivatives (publish preconditions) but never mutates them.
type Derivative struct {
	ID             string
	ContentItemID  string
	DerivativeType string
	ContentType    string
	Content        string
	FileURL        string
	WordCount      int
	Status         string
	CreatedAt      time.Time
}

// IsBlogImage reports whether d satisfies the featured-image precondition of
// the publish pipeline.
func (d *Derivative) IsBlogImage() bool {
	return d.DerivativeType == DerivativeTypeBlogImage &&
		d.ContentType == ContentTypeImage &&
		d.FileURL != ""
}

// IsExcerpt reports whether d satisfies the excerpt precondition of the
// publish pipeline. Excerpts beyond 200 words are rejected by the platform's
// SEO field and do not qualify.
func (d *Derivative) IsExcerpt() bool {
	return d.DerivativeType == DerivativeTypeExcerpt &&
		d.Content != "" &&
		d.WordCount <= 200
}
