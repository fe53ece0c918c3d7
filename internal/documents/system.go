package documents

import (
	"context"
	"io"

	"github.com/JaimeStill/medsign/pkg/pagination"
)

// System defines the public contract for document operations.
type System interface {
	Handler(maxBodySize int64) *Handler

	// Generate issues a document of kind k. origin is the scheme and host the
	// request arrived on; it builds public links when no base URL is configured.
	Generate(ctx context.Context, k *Kind, req *Request, origin string) (*Result, error)

	List(
		ctx context.Context,
		k *Kind,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, k *Kind, id int64) (*Document, error)

	// Verification gathers what the public verification page shows.
	Verification(ctx context.Context, k *Kind, id int64) (*Verification, error)

	// Artifact opens a stored artifact by file name. The caller must close it.
	Artifact(ctx context.Context, k *Kind, filename string) (io.ReadCloser, error)
}
