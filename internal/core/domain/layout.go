package domain

import (
	"path/filepath"
	"strings"
)

const (
	// TrvDirName is the name of the default cache directory inside the workspace.
	TrvDirName = ".trv"

	// ObjectsDirName is the name of the cache record directory.
	ObjectsDirName = "objects"

	// OutputDirName is the name of the compiled output directory.
	OutputDirName = "out"

	// ManifestFileName is the name of the manifest file.
	ManifestFileName = "manifest.json"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "trv.yaml"

	// ModFileName is the name of the Go module file that anchors a workspace.
	ModFileName = "go.mod"

	// EnvFileName is the name of the optional dotenv file in the workspace root.
	EnvFileName = ".env"

	// SourceExt is the extension of source files handled by the compiler.
	SourceExt = ".go"

	// HashTrailerPrefix starts the trailing hash comment of every output file.
	HashTrailerPrefix = "// trv:hash "

	// ManifestVersion is the current manifest file format version.
	ManifestVersion = 1

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultCachePath returns the default cache directory for a workspace root.
func DefaultCachePath(root string) string {
	return filepath.Join(root, TrvDirName)
}

// ObjectsPath returns the cache record directory below cacheDir.
func ObjectsPath(cacheDir string) string {
	return filepath.Join(cacheDir, ObjectsDirName)
}

// OutputPath returns the compiled output directory below cacheDir.
func OutputPath(cacheDir string) string {
	return filepath.Join(cacheDir, OutputDirName)
}

// ManifestPath returns the manifest file path below cacheDir.
func ManifestPath(cacheDir string) string {
	return filepath.Join(cacheDir, ManifestFileName)
}

var outputNameReplacer = strings.NewReplacer("/", "__", "\\", "__", ":", "_")

// OutputFileName maps a module id to the name of its compiled output file.
// The mapping is deterministic: "example.com/app/pkg/a.go" becomes
// "example.com__app__pkg__a.go".
func OutputFileName(moduleID string) string {
	name := outputNameReplacer.Replace(moduleID)
	if !strings.HasSuffix(name, SourceExt) {
		name += SourceExt
	}
	return name
}

// HashTrailer renders the trailing hash comment appended to compiled output.
func HashTrailer(hash string) string {
	return HashTrailerPrefix + hash + "\n"
}
