package config

import "gopkg.in/yaml.v3"

// Trvfile represents the structure of the trv.yaml configuration file.
type Trvfile struct {
	Version     string   `yaml:"version"`
	Root        string   `yaml:"root"`
	CacheDir    string   `yaml:"cache_dir"`
	Parallelism int      `yaml:"parallelism"`
	MetaImport  string   `yaml:"meta_import"`
	Exclude     []string `yaml:"exclude"`
	// Transformers is kept as a node so the configured order survives decoding.
	Transformers yaml.Node `yaml:"transformers"`
}

// TransformerDTO represents one transformer entry in the configuration.
type TransformerDTO struct {
	Enabled  *bool `yaml:"enabled"`
	Priority *int  `yaml:"priority"`
}
