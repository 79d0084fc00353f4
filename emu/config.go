package emu

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"castor/emu/log"
)

type Config struct {
	Log   LogConfig   `toml:"log"`
	Audio AudioConfig `toml:"audio"`

	// Runtime outputs, never serialized.
	TraceOut io.WriteCloser `toml:"-"`
	AudioOut io.Writer      `toml:"-"`
}

type LogConfig struct {
	// Modules lists module names to enable debug logging for; "all"
	// enables every module.
	Modules []string `toml:"modules"`
}

type AudioConfig struct {
	DisableAudio bool `toml:"disable_audio"`
}

// Apply turns on debug logging for the configured modules.
func (lcfg LogConfig) Apply() {
	var mask log.ModuleMask
	for _, name := range lcfg.Modules {
		if name == "all" {
			mask = log.ModuleMaskAll
			break
		}
		mod, ok := log.ModuleByName(name)
		if !ok {
			log.ModEmu.Warnf("unknown log module %q", name)
			continue
		}
		mask |= mod.Mask()
	}
	log.EnableDebugModules(mask)
}

var ConfigDir string = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("castor")
	if err := configdir.MakePath(dir); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})()

const cfgFilename = "config.toml"

// LoadConfigOrDefault loads the configuration from the castor config
// directory, or provides a default one.
func LoadConfigOrDefault() Config {
	var cfg Config
	if _, err := toml.DecodeFile(filepath.Join(ConfigDir, cfgFilename), &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// SaveConfig into the castor config directory.
func SaveConfig(cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(ConfigDir, cfgFilename), buf, 0644)
}
