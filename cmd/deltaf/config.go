package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// fileConfig is the --config file. Flags given on the command line win over
// file values.
type fileConfig struct {
	Format          string    `toml:"format" yaml:"format"`
	Theme           string    `toml:"theme" yaml:"theme"`
	Width           int       `toml:"width" yaml:"width"`
	Dialect         string    `toml:"dialect" yaml:"dialect"`
	Plugin          string    `toml:"plugin" yaml:"plugin"`
	ClassPrefix     string    `toml:"class_prefix" yaml:"class_prefix"`
	InlineStyles    bool      `toml:"inline_styles" yaml:"inline_styles"`
	Minify          bool      `toml:"minify" yaml:"minify"`
	Sanitize        bool      `toml:"sanitize" yaml:"sanitize"`
	Priorities      []string  `toml:"priorities" yaml:"priorities"`
	BlockEmbeds     []string  `toml:"block_embeds" yaml:"block_embeds"`
	BlockAttributes []string  `toml:"block_attributes" yaml:"block_attributes"`
	NormalizeText   *bool     `toml:"normalize_text" yaml:"normalize_text"`
	PDF             pdfConfig `toml:"pdf" yaml:"pdf"`
}

type pdfConfig struct {
	PageSize    string  `toml:"page_size" yaml:"page_size"`
	Margin      float64 `toml:"margin" yaml:"margin"`
	FontFamily  string  `toml:"font_family" yaml:"font_family"`
	FontSize    float64 `toml:"font_size" yaml:"font_size"`
	LineHeight  float64 `toml:"line_height" yaml:"line_height"`
	Title       string  `toml:"title" yaml:"title"`
	Author      string  `toml:"author" yaml:"author"`
	CornerImage string  `toml:"corner_image" yaml:"corner_image"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	path = normalizePath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("config file %s: expected .toml, .yaml or .yml", path)
	}
	if err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}
