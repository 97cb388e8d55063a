package domain

import "time"

// CacheRecord is a compiled output stored under its input hash.
type CacheRecord struct {
	// Key is the input hash the record is stored under.
	Key string `json:"key"`
	// SourceHash is the content hash of the source the output was produced from.
	SourceHash string `json:"source_hash"`
	// Output is the generated code without the trailing hash comment.
	Output []byte `json:"output"`
	// LazyImports are the packages referenced lazily by the compiled file.
	LazyImports []string `json:"lazy_imports,omitempty"`
	// Timestamp is when the record was produced.
	Timestamp time.Time `json:"timestamp"`
}
