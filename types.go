package blossom

// Descriptor is a server's authoritative record of a stored blob, returned
// by a successful upload or mirror commit.
//
// The JSON shape follows the Blossom descriptor: url, sha256, size, type,
// uploaded.
type Descriptor struct {
	// URL is where the blob can be retrieved, on the server that stored it.
	URL string `json:"url"`

	// SHA256 is the hex-encoded content hash.
	SHA256 string `json:"sha256"`

	// Size is the blob length in bytes.
	Size int64 `json:"size"`

	// Type is the declared media type, if known.
	Type string `json:"type,omitempty"`

	// Uploaded is the unix timestamp at which the server stored the blob.
	Uploaded int64 `json:"uploaded"`
}

// Request headers of the upload protocol.
const (
	headerSHA256        = "X-SHA-256"
	headerContentLength = "X-Content-Length"
	headerContentType   = "X-Content-Type"
	headerCashu         = "X-Cashu"
	headerAuthorization = "Authorization"
)
