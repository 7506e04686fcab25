package consistency

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/util/sets"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// FieldKind classifies a usage pattern by the quantity it captures.
type FieldKind string

const (
	KindTime  FieldKind = "time"
	KindRate  FieldKind = "rate"
	KindCount FieldKind = "count"
	KindCost  FieldKind = "cost"
)

func (k FieldKind) valid() bool {
	switch k {
	case KindTime, KindRate, KindCount, KindCost:
		return true
	default:
		return false
	}
}

// UsagePattern extracts a field assignment. Regex must define the named
// groups "field" and "value".
type UsagePattern struct {
	Name  string    `yaml:"name"`
	Kind  FieldKind `yaml:"kind"`
	Regex string    `yaml:"regex"`

	re         *regexp.Regexp
	fieldGroup int
	valueGroup int
}

// NamingPattern recognizes a non-standard spelling of a registered name.
type NamingPattern struct {
	Token     string `yaml:"token"`
	Regex     string `yaml:"regex"`
	Canonical string `yaml:"canonical"`

	re *regexp.Regexp
}

// DeclarationPattern recognizes a structural type declaration. Regex must
// define the named group "name".
type DeclarationPattern struct {
	Regex string `yaml:"regex"`

	re        *regexp.Regexp
	nameGroup int
}

// Rules is the checker's data-driven pattern table.
type Rules struct {
	Extensions          []string             `yaml:"extensions"`
	SkipDirs            []string             `yaml:"skip_dirs"`
	UsagePatterns       []UsagePattern       `yaml:"usage_patterns"`
	NamingPatterns      []NamingPattern      `yaml:"naming_patterns"`
	DeclarationPatterns []DeclarationPattern `yaml:"declaration_patterns"`

	extensions sets.Set[string]
	skipDirs   sets.Set[string]
	excluded   sets.Set[string] // absolute file paths
	canonical  map[string]string
}

// DefaultRules returns the embedded rule table.
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRulesYAML)
}

// MustDefaultRules is DefaultRules for callers that treat a broken embedded
// table as a programming error.
func MustDefaultRules() *Rules {
	r, err := DefaultRules()
	if err != nil {
		panic(err)
	}
	return r
}

// LoadRules reads and compiles a rule table from path.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read rules file").
			WithContext("path", path).
			Build()
	}
	r, err := ParseRules(data)
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext("path", path)
		}
		return nil, err
	}
	return r, nil
}

// ParseRules decodes and compiles a YAML rule table.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid rules YAML").Build()
	}
	if err := r.compile(); err != nil {
		return nil, err
	}
	return &r, nil
}

func ruleError(format string, args ...any) error {
	return errors.ConfigError(fmt.Sprintf(format, args...)).Build()
}

func (r *Rules) compile() error {
	if len(r.Extensions) == 0 {
		return ruleError("rules: at least one extension is required")
	}

	for i := range r.UsagePatterns {
		p := &r.UsagePatterns[i]
		if !p.Kind.valid() {
			return ruleError("rules: usage_patterns[%d] %q has unknown kind %q", i, p.Name, p.Kind)
		}
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return ruleError("rules: usage_patterns[%d] %q: %v", i, p.Name, err)
		}
		p.re = re
		p.fieldGroup = re.SubexpIndex("field")
		p.valueGroup = re.SubexpIndex("value")
		if p.fieldGroup < 0 || p.valueGroup < 0 {
			return ruleError("rules: usage_patterns[%d] %q must define field and value groups", i, p.Name)
		}
	}

	r.canonical = make(map[string]string, len(r.NamingPatterns))
	for i := range r.NamingPatterns {
		p := &r.NamingPatterns[i]
		if p.Token == "" || p.Canonical == "" {
			return ruleError("rules: naming_patterns[%d] needs token and canonical", i)
		}
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return ruleError("rules: naming_patterns[%d] %q: %v", i, p.Token, err)
		}
		p.re = re
		r.canonical[p.Token] = p.Canonical
	}

	for i := range r.DeclarationPatterns {
		p := &r.DeclarationPatterns[i]
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return ruleError("rules: declaration_patterns[%d]: %v", i, err)
		}
		p.re = re
		p.nameGroup = re.SubexpIndex("name")
		if p.nameGroup < 0 {
			return ruleError("rules: declaration_patterns[%d] must define a name group", i)
		}
	}

	r.extensions = sets.New[string]()
	for _, ext := range r.Extensions {
		r.extensions.Add(normalizeExt(ext))
	}
	r.skipDirs = sets.New(r.SkipDirs...)
	return nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Extend returns a copy of r with additional skip directories and file
// extensions.
func (r *Rules) Extend(skipDirs, extensions []string) *Rules {
	out := *r
	out.SkipDirs = append(slices.Clone(r.SkipDirs), skipDirs...)
	out.Extensions = append(slices.Clone(r.Extensions), extensions...)
	out.extensions = r.extensions.Clone()
	for _, ext := range extensions {
		out.extensions.Add(normalizeExt(ext))
	}
	out.skipDirs = r.skipDirs.Clone()
	for _, d := range skipDirs {
		out.skipDirs.Add(d)
	}
	return &out
}

// Exclude returns a copy of r that never scans the given files, such as the
// tool's own report output or history database. Empty paths are ignored.
func (r *Rules) Exclude(paths ...string) *Rules {
	out := *r
	out.excluded = r.excluded.Clone()
	for _, p := range paths {
		if p == "" {
			continue
		}
		out.excluded.Add(absPath(p))
	}
	return &out
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// Canonical returns the canonical replacement for a non-standard token.
func (r *Rules) Canonical(token string) (string, bool) {
	c, ok := r.canonical[token]
	return c, ok
}

// IsNamingToken reports whether name is a known non-standard spelling.
func (r *Rules) IsNamingToken(name string) bool {
	_, ok := r.canonical[name]
	return ok
}

// ScansFile reports whether path has one of the scanned extensions and is
// not excluded.
func (r *Rules) ScansFile(path string) bool {
	if !r.extensions.Has(strings.ToLower(filepath.Ext(path))) {
		return false
	}
	return r.excluded.Len() == 0 || !r.excluded.Has(absPath(path))
}

// SkipsDir reports whether a directory with this base name is skipped.
// Hidden directories are skipped by the walkers regardless.
func (r *Rules) SkipsDir(name string) bool {
	return r.skipDirs.Has(name)
}
