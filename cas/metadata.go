package cas

// Metadata is stored as a JSON sidecar alongside each sealed object,
// allowing a quick lookup of MIME type and size without reading the
// content itself.
type Metadata struct {
	MimeType string `json:"mime_type"`
	Size     uint64 `json:"size"`
}

// Reference combines a ContentHash with enough information for a consumer
// to read the blob out-of-band, returned from Inspect.
type Reference struct {
	Hash      ContentHash `json:"hash"`
	MimeType  string      `json:"mime_type"`
	SizeBytes uint64      `json:"size_bytes"`
	// LocalPath is the filesystem path to the content, if the store is
	// local. Nil for remote CAS or when the path shouldn't be exposed.
	LocalPath *string `json:"local_path,omitempty"`
}

// WithPath returns a copy of the Reference carrying a local filesystem path.
func (r Reference) WithPath(path string) Reference {
	r.LocalPath = &path
	return r
}
