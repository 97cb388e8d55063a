// Package config provides the configuration loader for trvc.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "TRV"

const (
	keyCacheDir    = "cache_dir"
	keyReadonly    = "readonly"
	keyParallelism = "parallelism"
)

// Loader implements ports.ConfigLoader using trv.yaml, a dotenv file and the environment.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// DiscoverRoot walks up from cwd to the directory holding trv.yaml, falling
// back to the nearest directory holding go.mod.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	path, err := findConfiguration(cwd)
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

// Load resolves the configuration for the workspace containing cwd.
// Precedence, highest first: TRV_* environment variables, the workspace .env
// file, trv.yaml, built-in defaults.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "cwd", cwd)
	}
	configPath, err := findConfiguration(abs)
	if err != nil {
		return nil, err
	}

	var file Trvfile
	cfg := &domain.Config{}
	if filepath.Base(configPath) == domain.ConfigFileName {
		if err := readAndUnmarshalYAML(configPath, &file); err != nil {
			return nil, err
		}
		cfg.ConfigFile = configPath
		if file.Version != "" && file.Version != "1" {
			l.Logger.Warn(fmt.Sprintf("unknown %s version %q, reading it as version 1", domain.ConfigFileName, file.Version))
		}
	}

	cfg.Root, err = canonical(resolveRoot(configPath, file.Root))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidConfig.Error()), "root", file.Root)
	}

	v, err := l.overlay(cfg.Root, &file)
	if err != nil {
		return nil, err
	}

	cfg.CacheDir = v.GetString(keyCacheDir)
	switch {
	case cfg.CacheDir == "":
		cfg.CacheDir = domain.DefaultCachePath(cfg.Root)
	case !filepath.IsAbs(cfg.CacheDir):
		cfg.CacheDir = filepath.Join(cfg.Root, cfg.CacheDir)
	}
	cfg.CacheDir = filepath.Clean(cfg.CacheDir)

	if cfg.Parallelism, err = parseParallelism(v.GetString(keyParallelism)); err != nil {
		return nil, err
	}
	if cfg.Readonly, err = parseBool(keyReadonly, v.GetString(keyReadonly)); err != nil {
		return nil, err
	}

	cfg.MetaImport = file.MetaImport
	if cfg.MetaImport == "" {
		cfg.MetaImport = domain.DefaultMetaImport
	}
	cfg.Exclude = file.Exclude

	cfg.Transformers, err = decodeTransformers(&file.Transformers)
	if err != nil {
		return nil, zerr.With(err, "file", configPath)
	}
	return cfg, nil
}

// overlay layers the dotenv file and the process environment over the values
// read from trv.yaml.
func (l *Loader) overlay(root string, file *Trvfile) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(keyCacheDir, file.CacheDir)
	v.SetDefault(keyReadonly, "")
	v.SetDefault(keyParallelism, "")
	if file.Parallelism != 0 {
		v.SetDefault(keyParallelism, strconv.Itoa(file.Parallelism))
	}

	envPath := filepath.Join(root, domain.EnvFileName)
	dotenv, err := godotenv.Read(envPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "file", envPath)
	default:
		values := make(map[string]any)
		for name, value := range dotenv {
			key, ok := strings.CutPrefix(name, EnvPrefix+"_")
			if !ok {
				continue
			}
			values[strings.ToLower(key)] = value
		}
		if err := v.MergeConfigMap(values); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "file", envPath)
		}
		l.Logger.Debug(fmt.Sprintf("loaded %d variables from %s", len(values), envPath))
	}

	v.SetEnvPrefix(EnvPrefix)
	for _, key := range []string{keyCacheDir, keyReadonly, keyParallelism} {
		if err := v.BindEnv(key); err != nil {
			return nil, zerr.Wrap(err, domain.ErrInvalidConfig.Error())
		}
	}
	return v, nil
}

func findConfiguration(cwd string) (string, error) {
	currentDir := cwd
	var moduleCandidate string

	for {
		configPath := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		if moduleCandidate == "" {
			modPath := filepath.Join(currentDir, domain.ModFileName)
			if _, err := os.Stat(modPath); err == nil {
				moduleCandidate = modPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	if moduleCandidate != "" {
		return moduleCandidate, nil
	}
	return "", zerr.With(domain.ErrModuleFileNotFound, "cwd", cwd)
}

func readAndUnmarshalYAML(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is discovered from the workspace
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "file", path)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "file", path)
	}
	return nil
}

// resolveRoot returns the workspace root: the configured root relative to the
// configuration file, or the directory holding it.
func resolveRoot(configPath, configuredRoot string) string {
	dir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return dir
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Join(dir, configuredRoot)
}

func canonical(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

func parseParallelism(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, zerr.With(zerr.With(domain.ErrInvalidConfig, "key", keyParallelism), "value", raw)
	}
	return n, nil
}

func parseBool(key, raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, zerr.With(zerr.With(domain.ErrInvalidConfig, "key", key), "value", raw)
	}
	return b, nil
}

// decodeTransformers reads the transformers mapping in document order.
func decodeTransformers(node *yaml.Node) ([]domain.TransformerConfig, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, zerr.With(zerr.With(domain.ErrConfigParseFailed, "key", "transformers"), "line", node.Line)
	}

	out := make([]domain.TransformerConfig, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if seen[name] {
			return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "transformer", name), "reason", "duplicate entry")
		}
		seen[name] = true

		var dto TransformerDTO
		if err := node.Content[i+1].Decode(&dto); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "transformer", name)
		}
		tc := domain.TransformerConfig{Name: name, Enabled: true, Priority: dto.Priority}
		if dto.Enabled != nil {
			tc.Enabled = *dto.Enabled
		}
		out = append(out, tc)
	}
	return out, nil
}
