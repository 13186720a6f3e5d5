package am

import (
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/teranos/cersei/errors"
)

// Render encodes the effective configuration as TOML for display.
func Render(c *Config) (string, error) {
	out, err := gotoml.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode config as TOML")
	}
	return string(out), nil
}

// CheckFile strictly decodes a TOML config file.
// It returns the keys present in the file that do not map to any Config field,
// sorted, so operators can spot typos that viper would silently ignore.
func CheckFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	var unknown []string
	for _, key := range meta.Undecoded() {
		unknown = append(unknown, strings.Join(key, "."))
	}
	sort.Strings(unknown)
	return unknown, nil
}
