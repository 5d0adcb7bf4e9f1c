package cli

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/uptix/pkg/errors"
	"github.com/matzehuels/uptix/pkg/integrations"
	"github.com/matzehuels/uptix/pkg/lockfile"
	"github.com/matzehuels/uptix/pkg/pipeline"
)

// DefaultConfigFile is read from the working directory when --config is not
// given. It is optional.
const DefaultConfigFile = "uptix.toml"

// Config is the project configuration. Flags override it.
//
//	lock_file = "uptix.lock"
//	root      = "."
//	jobs      = 4
//	timeout   = "10s"
//	exclude   = ["vendor", "hardware-*.nix"]
type Config struct {
	LockFile     string        `toml:"lock_file"`
	Root         string        `toml:"root"`
	Jobs         int           `toml:"jobs"`
	Timeout      time.Duration `toml:"timeout"`
	GitHubAPI    string        `toml:"github_api"`
	Exclude      []string      `toml:"exclude"`
	HashCommand  string        `toml:"hash_command"`
	DockerConfig string        `toml:"docker_config"`
	CacheDir     string        `toml:"cache_dir"`
}

func defaultConfig() Config {
	return Config{
		LockFile: lockfile.DefaultPath,
		Root:     ".",
		Jobs:     pipeline.DefaultJobs,
		Timeout:  integrations.DefaultTimeout,
	}
}

// loadConfig reads path on top of the defaults. A missing file is only an
// error when the user named it explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeUsage, err, "config %s", path)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeUsage, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return cfg, errors.New(errors.ErrCodeUsage, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	if cfg.Jobs < 0 {
		return cfg, errors.New(errors.ErrCodeUsage, "config %s: jobs must not be negative", path)
	}
	if cfg.Timeout < 0 {
		return cfg, errors.New(errors.ErrCodeUsage, "config %s: timeout must not be negative", path)
	}
	if cfg.LockFile == "" {
		cfg.LockFile = lockfile.DefaultPath
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	return cfg, nil
}
