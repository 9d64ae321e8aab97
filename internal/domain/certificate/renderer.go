package certificate

import (
	"context"
)

// Renderer is the external certificate renderer: PDF and QR generation
// plus artifact storage. Invoked once per new certificate row; a failure
// here does not roll back the issued status and may be retried
// independently.
type Renderer interface {
	// Issue renders the certificate and returns a reference to the
	// stored artifact.
	Issue(ctx context.Context, c *Certificate) (artifactRef string, err error)
}
