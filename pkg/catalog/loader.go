package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/detention"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/eligibility"
)

// MaxFileSize bounds a single catalog file.
const MaxFileSize = 1 << 20

// versionLength is the number of hex digits kept from the content hash.
const versionLength = 12

// Parse decodes and validates one catalog document. Unknown YAML keys are
// rejected.
func Parse(data []byte, source string) (*Catalog, error) {
	doc, err := decode(data, source)
	if err != nil {
		return nil, err
	}
	return build(doc, source, [][]byte{data})
}

// LoadFile loads a catalog from a file, or from every .yaml/.yml file in a
// directory merged in lexical order.
func LoadFile(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Path: path, Message: "file not found", Cause: err}
		}
		return nil, &LoadError{Path: path, Message: "failed to access file", Cause: err}
	}

	files := []string{path}
	if info.IsDir() {
		files, err = catalogFiles(path)
		if err != nil {
			return nil, &LoadError{Path: path, Message: "failed to list directory", Cause: err}
		}
		if len(files) == 0 {
			return nil, &LoadError{Path: path, Message: "no catalog files found"}
		}
	}

	var merged document
	var contents [][]byte
	for _, file := range files {
		data, err := readFile(file)
		if err != nil {
			return nil, err
		}
		doc, err := decode(data, file)
		if err != nil {
			return nil, err
		}
		merged.Programs = append(merged.Programs, doc.Programs...)
		merged.Alternatives = append(merged.Alternatives, doc.Alternatives...)
		contents = append(contents, data)
	}

	return build(merged, path, contents)
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to access file", Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{Path: path, Message: "not a regular file"}
	}
	if info.Size() > MaxFileSize {
		return nil, &LoadError{
			Path:    path,
			Message: fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read file", Cause: err}
	}
	if !utf8.Valid(data) {
		return nil, &LoadError{Path: path, Message: "file is not valid UTF-8"}
	}
	return data, nil
}

func catalogFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func decode(data []byte, source string) (document, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return doc, &ParseError{Path: source, Cause: errors.New("empty document")}
		}
		return doc, &ParseError{Path: source, Cause: err}
	}
	return doc, nil
}

func build(doc document, source string, contents [][]byte) (*Catalog, error) {
	c := &Catalog{
		Source:       source,
		LoadedAt:     time.Now().UTC(),
		Programs:     doc.Programs,
		Alternatives: doc.Alternatives,
	}
	if err := Validate(c); err != nil {
		return nil, err
	}
	c.Version = version(contents)
	return c, nil
}

func version(contents [][]byte) string {
	h := sha256.New()
	for _, data := range contents {
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))[:versionLength]
}

// Validate checks that program and alternative names are unique, every
// predicate is well formed over known fields, and every standard ladder
// alternative is present. All problems are reported together.
func Validate(c *Catalog) error {
	var errs []error

	if len(c.Programs) == 0 {
		errs = append(errs, errors.New("catalog defines no programs"))
	}

	programs := make(map[string]bool)
	for _, p := range c.Programs {
		if err := p.Validate(KnownField); err != nil {
			errs = append(errs, err)
			continue
		}
		if programs[p.Name] {
			errs = append(errs, &eligibility.ConfigurationError{
				Program: p.Name,
				Cause:   errors.New("duplicate program name"),
			})
		}
		programs[p.Name] = true
	}

	alternatives := make(map[string]bool)
	for _, a := range c.Alternatives {
		if err := a.Validate(KnownField); err != nil {
			errs = append(errs, err)
			continue
		}
		if alternatives[a.Name] {
			errs = append(errs, &detention.ConfigurationError{
				Alternative: a.Name,
				Cause:       errors.New("duplicate alternative name"),
			})
		}
		alternatives[a.Name] = true
	}
	for _, name := range detention.StandardLadder {
		if !alternatives[name] {
			errs = append(errs, &detention.ConfigurationError{
				Alternative: name,
				Cause:       errors.New("standard alternative missing from ladder"),
			})
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Source: c.Source, Errors: errs}
	}
	return nil
}
