package ports

// Hasher defines the interface for computing content hashes.
//
//go:generate mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type Hasher interface {
	// HashFile returns the content hash of the file at path.
	HashFile(path string) (string, error)
	// HashBytes returns the content hash of data.
	HashBytes(data []byte) string
	// Key combines parts into a single composite hash. Order matters.
	Key(parts ...string) string
}
