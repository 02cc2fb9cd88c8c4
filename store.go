package gitpress

import (
	"context"

	"github.com/eringen/gitpress/content"
	"github.com/eringen/gitpress/frontmatter"
	"github.com/eringen/gitpress/ghcontents"
)

// Store is the content backend the App reads and writes. *content.Repository
// is the production implementation.
type Store interface {
	ListPosts(ctx context.Context) content.Result[[]content.Post]
	GetPost(ctx context.Context, slug string) content.Result[*content.Post]
	SavePost(ctx context.Context, slug, body string, meta frontmatter.Metadata) (*ghcontents.PutResponse, error)
	SavePostAt(ctx context.Context, slug, body string, meta frontmatter.Metadata, sha string) (*ghcontents.PutResponse, error)
	DeletePost(ctx context.Context, slug string) error
	UploadImage(ctx context.Context, name string, data []byte) (string, error)
}

var _ Store = (*content.Repository)(nil)
