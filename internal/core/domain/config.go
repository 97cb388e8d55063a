package domain

// DefaultMetaImport is the import path generated registration code refers to.
const DefaultMetaImport = "github.com/travetto/travetto-sub016/pkg/meta"

// TransformerConfig enables and optionally re-prioritises one transformer provider.
type TransformerConfig struct {
	Name     string
	Enabled  bool
	Priority *int
}

// Config is the resolved configuration of one compiler invocation.
type Config struct {
	// Root is the absolute workspace root, the directory holding go.mod.
	Root string
	// ConfigFile is the trv.yaml that was loaded, empty when defaults were used.
	ConfigFile string
	// CacheDir holds cache objects, compiled outputs and the manifest.
	CacheDir string
	// Exclude lists directory names skipped during discovery.
	Exclude []string
	// Parallelism caps concurrent file compiles; zero means one per CPU.
	Parallelism int
	// Readonly disables compilation; only cached outputs are served.
	Readonly bool
	// MetaImport is the runtime registry package generated code imports.
	MetaImport string
	// Transformers lists the providers in configuration order.
	Transformers []TransformerConfig
}

// OutputDir returns the compiled output directory.
func (c *Config) OutputDir() string {
	return OutputPath(c.CacheDir)
}

// ManifestFile returns the manifest file path.
func (c *Config) ManifestFile() string {
	return ManifestPath(c.CacheDir)
}
