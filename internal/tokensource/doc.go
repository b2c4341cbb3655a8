// Package tokensource resolves the Vagrant Cloud access token from its
// competing sources.
//
// Resolution checks, in order: the VAGRANT_CLOUD_TOKEN environment variable,
// the persisted token store, and the deprecated ATLAS_TOKEN environment
// variable. The first present, non-empty value wins. The token is re-resolved
// on every call; there is no caching, so a token stored or cleared between
// calls is picked up immediately.
//
// # Usage
//
//	store, _ := tokenstore.NewFileStore(path)
//	source, _ := tokensource.New(store)
//	token, err := source.Resolve(ctx)
//
// Store and Clear mutate only the persisted slot, never the environment.
package tokensource
