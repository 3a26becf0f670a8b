package content

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"

	"github.com/abhisek/phasegate/internal/phase"
)

// SupportedMajor is the catalog format major version this build reads.
const SupportedMajor = "v1"

//go:embed lessons.json
var builtinCatalog []byte

// ErrUnknownLesson is returned when a lesson id is not in the catalog.
type ErrUnknownLesson struct {
	ID string
}

func (e *ErrUnknownLesson) Error() string {
	return fmt.Sprintf("unknown lesson %q", e.ID)
}

// Catalog supplies lesson records to the engine.
type Catalog interface {
	Lesson(id string) (*Lesson, error)
	Lessons() []Lesson
}

// MemCatalog is a Catalog held in memory.
type MemCatalog struct {
	version string
	lessons []Lesson
	byID    map[string]*Lesson
}

// Lesson returns the lesson with the given id.
func (c *MemCatalog) Lesson(id string) (*Lesson, error) {
	l, ok := c.byID[id]
	if !ok {
		return nil, &ErrUnknownLesson{ID: id}
	}
	return l, nil
}

// Lessons returns all lessons in catalog order.
func (c *MemCatalog) Lessons() []Lesson {
	return c.lessons
}

// Version returns the catalog format version.
func (c *MemCatalog) Version() string {
	return c.version
}

// Builtin returns the catalog compiled into the binary.
func Builtin() (*MemCatalog, error) {
	return Parse(builtinCatalog)
}

// Load reads and validates a catalog file.
func Load(path string) (*MemCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse validates raw catalog JSON against the schema, checks the format
// version and the cross-field rules, and builds the catalog.
func Parse(data []byte) (*MemCatalog, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	compiled, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := compiled.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := checkVersion(f.FormatVersion); err != nil {
		return nil, err
	}
	if err := validateLessons(f.Lessons); err != nil {
		return nil, err
	}

	c := &MemCatalog{
		version: f.FormatVersion,
		lessons: f.Lessons,
		byID:    make(map[string]*Lesson, len(f.Lessons)),
	}
	for i := range c.lessons {
		c.byID[c.lessons[i].ID] = &c.lessons[i]
	}
	return c, nil
}

func checkVersion(v string) error {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid format_version %q", v)
	}
	if semver.Major(v) != SupportedMajor {
		return fmt.Errorf("unsupported format_version %s (want %s.x)", v, SupportedMajor)
	}
	return nil
}

// validateLessons performs the checks the schema cannot express.
// Returns a combined error describing all problems found, or nil if valid.
func validateLessons(lessons []Lesson) error {
	var errs []string

	seen := make(map[string]bool, len(lessons))
	for _, l := range lessons {
		if seen[l.ID] {
			errs = append(errs, fmt.Sprintf("duplicate lesson ID: %q", l.ID))
		}
		seen[l.ID] = true

		check := func(set string, items []QuizItem) {
			for i, q := range items {
				if q.Correct >= len(q.Options) {
					errs = append(errs, fmt.Sprintf("lesson %q %s item %d: correct index %d out of range", l.ID, set, i, q.Correct))
				}
			}
		}
		check("pre", l.Pre)
		check("post", l.Post)
		check("mastery", l.Mastery)

		if len(l.Post) > 0 && len(l.Post) != len(l.Pre) {
			errs = append(errs, fmt.Sprintf("lesson %q: post has %d items, pre has %d", l.ID, len(l.Post), len(l.Pre)))
		}
		for name, v := range l.Thresholds {
			id, err := phase.Parse(name)
			if err != nil {
				errs = append(errs, fmt.Sprintf("lesson %q thresholds: %v", l.ID, err))
				continue
			}
			if id.IsCheckpoint() && v > 100 {
				errs = append(errs, fmt.Sprintf("lesson %q thresholds: %s above 100", l.ID, id))
			}
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("catalog validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		// The compiler wants plain decoded JSON values, not Go literals.
		raw, err := json.Marshal(catalogSchema)
		if err != nil {
			schemaErr = fmt.Errorf("marshal catalog schema: %w", err)
			return
		}
		var def any
		if err := json.Unmarshal(raw, &def); err != nil {
			schemaErr = fmt.Errorf("parse catalog schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://catalog.json"
		if err := c.AddResource(url, def); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		schemaCompiled, schemaErr = c.Compile(url)
	})
	return schemaCompiled, schemaErr
}
