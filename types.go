package fragments

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// OwnerID identifies the owner of a fragment. It partitions every storage operation.
type OwnerID string

// NewOwnerID derives the owner id for an authenticated principal (an email, a user
// name or an access key). The same principal always yields the same id.
func NewOwnerID(principal string) OwnerID {
	sum := sha256.Sum256([]byte(principal))
	return OwnerID(hex.EncodeToString(sum[:]))
}

func (o OwnerID) String() string {
	return string(o)
}

// Fragment is the metadata of one stored blob.
type Fragment struct {
	ID      string    `json:"id"`
	OwnerID OwnerID   `json:"ownerId"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	Type    string    `json:"type"`
	Size    int64     `json:"size"`
}

// MimeType returns the base media type, without parameters such as charset.
func (f Fragment) MimeType() string {
	base, err := BaseType(f.Type)
	if err != nil {
		return ""
	}
	return base
}

// IsText reports whether the fragment has a text/* type.
func (f Fragment) IsText() bool {
	return strings.HasPrefix(f.MimeType(), "text/")
}

// Formats lists the formats the fragment can be rendered in.
func (f Fragment) Formats(r *Registry) []string {
	return r.AvailableFormats(f.Type)
}

// State describes which halves of a fragment exist in storage.
type State int

const (
	StateAbsent State = iota
	StateMetadataOnly
	StateComplete
	StatePayloadOnly
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateMetadataOnly:
		return "metadata-only"
	case StateComplete:
		return "complete"
	case StatePayloadOnly:
		return "payload-only"
	default:
		return "unknown"
	}
}

// Listing is the result of Manager.ByUser. It serializes as an array of ids, or of
// fragments when it was built expanded.
type Listing struct {
	IDs       []string
	Fragments []Fragment
	Expanded  bool
}

// Len returns the number of fragments in the listing.
func (l Listing) Len() int {
	return len(l.IDs)
}

func (l Listing) MarshalJSON() ([]byte, error) {
	if l.Expanded {
		if l.Fragments == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(l.Fragments)
	}
	if l.IDs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.IDs)
}
