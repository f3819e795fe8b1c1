package blob

import "context"

// Resolver is the latest-version policy over a Store. It owns no state of its
// own: given a document identity and an optional version number it locates the
// blob, where "latest" always means the highest version number present.
type Resolver struct {
	store Store
}

// NewResolver constructs a Resolver over the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve locates the blob for (documentID, version). A nil version resolves
// the latest one. Returns ErrNotFound when no matching blob exists.
func (r *Resolver) Resolve(ctx context.Context, documentID int64, version *int) (Object, error) {
	v := 0
	if version != nil {
		v = *version
	}
	return r.store.Locate(ctx, documentID, v)
}
