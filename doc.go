// Package fragments stores small typed data blobs ("fragments") per owner and renders
// them into the formats their type allows.
//
// A fragment is split across two kv.Store instances keyed by (owner, id): one holds the
// JSON metadata, the other the raw payload. The Manager keeps them consistent by always
// writing the payload before the metadata, so a fragment whose metadata is visible always
// has a payload of the recorded size.
//
// # Key Components
//
//   - Manager: create, read, list, update and delete fragments
//   - Registry: the content-type allow-list and conversion matrix
//   - Converter: renders a payload into another format (markdown to html, json to yaml, ...)
//   - OwnerID: the opaque owner identity derived from an authenticated principal
//
// # Example Usage
//
//	registry := fragments.DefaultRegistry()
//	manager := fragments.NewManager(memory.New(), memory.New(), registry)
//
//	owner := fragments.NewOwnerID("user1@email.com")
//	f, err := manager.Create(ctx, owner, "text/markdown", []byte("# Hi"))
//
//	payload, err := manager.Payload(ctx, f)
//	html, err := manager.Convert(f, payload, "html")
//
// See the kv package for storage backends and the http package for the REST API.
package fragments
