package main

import (
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/webchunk"
	"gopkg.in/yaml.v3"
)

// Config is the shape of the --config file. Every field is optional and
// only supplies a default: flags given on the command line win.
type Config struct {
	Tags         []string          `yaml:"tags"`
	Class        []string          `yaml:"class"`
	ChunkSize    *int              `yaml:"chunk_size"`
	ChunkOverlap *int              `yaml:"chunk_overlap"`
	Lookback     *int              `yaml:"lookback"`
	Boundaries   []string          `yaml:"boundaries"`
	Concurrency  *int              `yaml:"concurrency"`
	Timeout      time.Duration     `yaml:"timeout"`
	MainContent  string            `yaml:"main_content"`
	UserAgent    string            `yaml:"user_agent"`
	Sitemap      *bool             `yaml:"sitemap"`
	Verbose      *bool             `yaml:"verbose"`
	Meta         map[string]string `yaml:"meta"`
}

// DecodeConfig reads a YAML config. Unknown keys are rejected so typos
// don't silently fall back to defaults.
func DecodeConfig(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, webchunk.Errorf(webchunk.EINVALID, "invalid config file: %v", err)
	}
	return &cfg, nil
}

// values maps flag names to the string form of every field set in the file.
func (c *Config) values() map[string]string {
	v := map[string]string{}
	setList := func(name string, s []string) {
		if len(s) > 0 {
			v[name] = strings.Join(s, ",")
		}
	}
	setInt := func(name string, n *int) {
		if n != nil {
			v[name] = strconv.Itoa(*n)
		}
	}
	setBool := func(name string, b *bool) {
		if b != nil {
			v[name] = strconv.FormatBool(*b)
		}
	}

	setList("tags", c.Tags)
	setList("class", c.Class)
	setInt("chunk-size", c.ChunkSize)
	setInt("chunk-overlap", c.ChunkOverlap)
	setInt("lookback", c.Lookback)
	setList("boundaries", c.Boundaries)
	setInt("concurrency", c.Concurrency)
	if c.Timeout != 0 {
		v["timeout"] = c.Timeout.String()
	}
	if c.MainContent != "" {
		v["main-content"] = c.MainContent
	}
	if c.UserAgent != "" {
		v["user-agent"] = c.UserAgent
	}
	setBool("sitemap", c.Sitemap)
	setBool("verbose", c.Verbose)
	if len(c.Meta) > 0 {
		pairs := make([]string, 0, len(c.Meta))
		for _, k := range slices.Sorted(maps.Keys(c.Meta)) {
			pairs = append(pairs, k+"="+c.Meta[k])
		}
		v["meta"] = strings.Join(pairs, ";")
	}
	return v
}

// configLoader adapts a Config file to a kong resolver.
func configLoader(r io.Reader) (kong.Resolver, error) {
	cfg, err := DecodeConfig(r)
	if err != nil {
		return nil, err
	}
	values := cfg.values()
	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		if v, ok := values[flag.Name]; ok {
			return v, nil
		}
		return nil, nil
	}), nil
}
