package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/signadot/ptsync/notify"
	"github.com/signadot/ptsync/schema"

	"github.com/goccy/go-yaml"
	"github.com/scott-cotton/cli"
)

type MainConfig struct {
	ConfigFile string `cli:"name=config desc='configuration file (yaml)'"`
	Color      bool   `cli:"name=color desc='color notifications'"`
	V          bool   `cli:"name=v desc='debug logging'"`
	Y          bool   `cli:"name=y aliases=yaml desc='output yaml instead of json'"`
	SchemaDir  string `cli:"name=schemas desc='directory of schema types (yaml) registered by name'"`

	File *FileConfig
	Log  *slog.Logger

	Main *cli.Command
}

func (cfg *MainConfig) setup(cc *cli.Context) error {
	cfg.File = DefaultConfig()
	if cfg.ConfigFile != "" {
		f, err := LoadConfig(cfg.ConfigFile)
		if err != nil {
			return err
		}
		cfg.File = f
	}
	level := slog.LevelWarn
	if cfg.V || cfg.File.Debug {
		level = slog.LevelDebug
	}
	cfg.Log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(cfg.Log)
	return cfg.registerSchemas()
}

// registerSchemas registers the types of the schema directory given by
// -schemas or the config file, so that -schema can name them.
func (cfg *MainConfig) registerSchemas() error {
	dir := cfg.SchemaDir
	if dir == "" && cfg.File != nil {
		dir = cfg.File.SchemaDir
	}
	if dir == "" {
		return nil
	}
	names, err := schema.LoadDir(dir)
	if err != nil {
		return err
	}
	cfg.Log.Debug("registered schema types", "dir", dir, "types", names)
	return nil
}

func (cfg *MainConfig) console(w io.Writer) *notify.Console {
	switch {
	case cfg.Color:
		on := true
		return notify.NewConsole(w, &on)
	case cfg.File != nil && cfg.File.Color != nil:
		return notify.NewConsole(w, cfg.File.Color)
	default:
		return notify.NewConsole(w, nil)
	}
}

// schemaType resolves ref, a registered type name or a schema file,
// falling back to the config file's schema.
func (cfg *MainConfig) schemaType(ref string) (*schema.Type, error) {
	if ref == "" && cfg.File != nil {
		ref = cfg.File.Schema
	}
	if ref == "" {
		return nil, fmt.Errorf("%w: no schema given", cli.ErrUsage)
	}
	return schema.Resolve(ref)
}

// output writes v as indented json, or yaml with -y.
func (cfg *MainConfig) output(w io.Writer, v any) error {
	if cfg.Y {
		d, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(d)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readValue reads a json or yaml value from a file, "-" meaning stdin.
func readValue(cc *cli.Context, path string, v any) error {
	var (
		d   []byte
		err error
	)
	if path == "-" {
		d, err = io.ReadAll(cc.In)
	} else {
		d, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}
	if json.Valid(d) {
		return json.Unmarshal(d, v)
	}
	j, err := yaml.YAMLToJSON(d)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return json.Unmarshal(j, v)
}
