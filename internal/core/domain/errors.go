package domain

import "go.trai.ch/zerr"

var (
	// ErrSourceNotFound is returned when a module specifier has no manifest entry or source file.
	ErrSourceNotFound = zerr.New("source not found")

	// ErrTransformFailed is returned when a transformer fails while rewriting a file.
	ErrTransformFailed = zerr.New("transform failed")

	// ErrCacheCorruption is returned when a cache record exists but cannot be read or parsed.
	ErrCacheCorruption = zerr.New("cache record corrupted")

	// ErrManifestStale is returned when a manifest entry points at an output that no longer exists.
	ErrManifestStale = zerr.New("manifest entry is stale")

	// ErrModuleCycle is returned when static imports form a cycle at package granularity.
	ErrModuleCycle = zerr.New("import cycle detected")

	// ErrCompileDisabled is returned when a file needs compiling while the compiler is readonly.
	ErrCompileDisabled = zerr.New("compilation disabled in readonly mode")

	// ErrRegistryFrozen is returned when registering a transformer after the registry was frozen.
	ErrRegistryFrozen = zerr.New("transformer registry is frozen")

	// ErrInvalidTransformer is returned when a transformer descriptor is incomplete.
	ErrInvalidTransformer = zerr.New("invalid transformer descriptor")

	// ErrUnknownTransformer is returned when configuration names a transformer that is not provided.
	ErrUnknownTransformer = zerr.New("unknown transformer")

	// ErrMalformedReplacement is returned when a transformer replaces a node with nil or another node kind.
	ErrMalformedReplacement = zerr.New("transformer returned a malformed replacement")

	// ErrCodegenFailed is returned when a rewritten file cannot be rendered back to source.
	ErrCodegenFailed = zerr.New("failed to generate code")

	// ErrParseFailed is returned when a source file cannot be parsed.
	ErrParseFailed = zerr.New("failed to parse source file")

	// ErrDependencyFailed marks files compiled after one of their dependencies failed.
	ErrDependencyFailed = zerr.New("dependency failed to compile")

	// ErrBuildFailed is returned when at least one file of a batch failed to compile.
	ErrBuildFailed = zerr.New("build failed")

	// ErrModuleFileNotFound is returned when no go.mod can be found for the workspace.
	ErrModuleFileNotFound = zerr.New("could not find go.mod")

	// ErrModuleFileInvalid is returned when go.mod cannot be parsed or has no module directive.
	ErrModuleFileInvalid = zerr.New("invalid go.mod")

	// ErrPathOutsideRoot is returned when a path is outside the workspace root.
	ErrPathOutsideRoot = zerr.New("path is outside workspace root")

	// ErrStoreCreateFailed is returned when a cache directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create cache directory")

	// ErrStoreReadFailed is returned when a cache record cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read cache record")

	// ErrStoreMarshalFailed is returned when a cache record cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal cache record")

	// ErrStoreWriteFailed is returned when a cache record cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write cache record")

	// ErrStoreClearFailed is returned when the cache directory cannot be removed.
	ErrStoreClearFailed = zerr.New("failed to clear cache")

	// ErrManifestReadFailed is returned when the manifest file cannot be read or decoded.
	ErrManifestReadFailed = zerr.New("failed to read manifest")

	// ErrManifestWriteFailed is returned when the manifest file cannot be written.
	ErrManifestWriteFailed = zerr.New("failed to write manifest")

	// ErrOutputWriteFailed is returned when a compiled output file cannot be written.
	ErrOutputWriteFailed = zerr.New("failed to write output file")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when a configuration value is out of range.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrWatcherStartFailed is returned when the file watcher cannot be started.
	ErrWatcherStartFailed = zerr.New("failed to start file watcher")
)
