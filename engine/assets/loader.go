package assets

import (
	"context"

	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
)

// Loader turns a file path or URL into a resource. Loaders may be called from
// job system workers and must not touch engine state.
type Loader interface {
	Load(ctx context.Context, path string, params interface{}) (*metadata.Resource, error)
	Unload(*metadata.Resource) error
}
