package studiodef

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "https://studiorouter.local/schemas/studio.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func definitionSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// Format names a definition file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for files whose extension is not a known
// definition format.
var ErrUnsupportedFormat = errors.New("unsupported definition format")

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// ParseFormat accepts a format name as given on the command line.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json", "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%q: %w", name, ErrUnsupportedFormat)
	}
}

// Load reads and validates one definition file.
func Load(path string) (*Definition, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	def, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	def.Source = path
	return def, nil
}

// LoadDir loads every definition file in dir in lexical order. Files with
// other extensions and subdirectories are skipped. A missing directory yields
// no definitions. Definitions that load are returned alongside the joined
// errors of those that did not.
func LoadDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read definitions dir: %w", err)
	}

	var (
		defs []*Definition
		errs []error
	)
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if _, err := FormatFromPath(path); err != nil {
			continue
		}
		def, err := Load(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, dup := seen[def.ID]; dup {
			errs = append(errs, fmt.Errorf("%s: studio %q already defined in %s", path, def.ID, prev))
			continue
		}
		seen[def.ID] = path
		defs = append(defs, def)
	}
	return defs, errors.Join(errs...)
}

// Parse decodes and validates a definition held in memory.
func Parse(data []byte, format Format) (*Definition, error) {
	doc, err := decodeDocument(data, format)
	if err != nil {
		return nil, err
	}

	// Round trip through JSON so every format reaches the schema with the
	// same value types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize %s document: %w", format, err)
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("normalize %s document: %w", format, err)
	}

	schema, err := definitionSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}

	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}
	return &def, nil
}

func decodeDocument(data []byte, format Format) (any, error) {
	var doc any
	switch format {
	case FormatTOML:
		var table map[string]any
		if err := toml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		doc = table
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
	if doc == nil {
		return nil, errors.New("definition is empty")
	}
	return doc, nil
}

// Encode renders def in format. Field order inside objects follows the
// encoder; array order, which carries meaning, is preserved.
func Encode(def *Definition, format Format) ([]byte, error) {
	if format == FormatJSON {
		data, err := json.MarshalIndent(def, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil
	}

	raw, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("encode definition: %w", err)
	}
	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("encode definition: %w", err)
	}
	native := nativeNumbers(doc)

	switch format {
	case FormatTOML:
		data, err := toml.Marshal(native)
		if err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		return data, nil
	case FormatYAML:
		data, err := yaml.Marshal(native)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
}

// nativeNumbers swaps json.Number for int64 or float64 so TOML and YAML
// encoders write numbers rather than strings.
func nativeNumbers(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		for key, value := range typed {
			typed[key] = nativeNumbers(value)
		}
		return typed
	case []any:
		for i, value := range typed {
			typed[i] = nativeNumbers(value)
		}
		return typed
	case json.Number:
		if n, err := typed.Int64(); err == nil {
			return n
		}
		if f, err := typed.Float64(); err == nil {
			return f
		}
		return typed.String()
	default:
		return v
	}
}
