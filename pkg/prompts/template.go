package prompts

import (
	"bytes"
	"embed"
	"io/fs"
	"sort"
	"text/template"
	"text/template/parse"

	"github.com/Masterminds/sprig"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var builtinTemplates embed.FS

// TurnRequest is the rendered prompt for one reasoning step.
type TurnRequest struct {
	Role         Role
	Mode         Mode
	System       string
	User         string
	Placeholders map[string]string
}

// Template is one parsed prompt template for a (role, mode) key. Rendering
// is pure text substitution; placeholder values are treated as opaque
// strings.
type Template struct {
	Key    Key
	system *template.Template
	user   *template.Template
	// required is the sorted set of placeholders referenced by the system
	// and user sections, collected from the parse trees at load time.
	required []string
}

type templateDoc struct {
	Role        Role   `yaml:"role"`
	Visual      bool   `yaml:"visual"`
	MultiAction bool   `yaml:"multi_action"`
	System      string `yaml:"system"`
	User        string `yaml:"user"`
}

// ParseTemplate parses a YAML template document into a Template.
func ParseTemplate(content []byte) (*Template, error) {
	doc := &templateDoc{}
	if err := yaml.Unmarshal(content, doc); err != nil {
		return nil, errors.Wrap(err, "decode template")
	}
	if !doc.Role.IsValid() {
		return nil, errors.Errorf("invalid template role %q", doc.Role)
	}

	key := Key{Role: doc.Role, Mode: Mode{Visual: doc.Visual, MultiAction: doc.MultiAction}}

	system, err := template.New(key.String() + "_system").Funcs(sprig.TxtFuncMap()).Parse(doc.System)
	if err != nil {
		return nil, errors.Wrap(err, "parse system section")
	}
	user, err := template.New(key.String() + "_user").Funcs(sprig.TxtFuncMap()).Parse(doc.User)
	if err != nil {
		return nil, errors.Wrap(err, "parse user section")
	}

	required := map[string]struct{}{}
	collectPlaceholders(system.Tree.Root, required)
	collectPlaceholders(user.Tree.Root, required)
	names := make([]string, 0, len(required))
	for name := range required {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Template{Key: key, system: system, user: user, required: names}, nil
}

// RequiredPlaceholders returns the placeholders the template references.
func (t *Template) RequiredPlaceholders() []string {
	return append([]string(nil), t.required...)
}

// Render substitutes the placeholder mapping into the template. Every
// placeholder the template references must be present; a missing one is a
// configuration error surfaced as MissingPlaceholderError.
func (t *Template) Render(placeholders map[string]string) (*TurnRequest, error) {
	for _, name := range t.required {
		if _, ok := placeholders[name]; !ok {
			return nil, &MissingPlaceholderError{Name: name}
		}
	}

	var systemBuf, userBuf bytes.Buffer
	if err := t.system.Execute(&systemBuf, placeholders); err != nil {
		return nil, errors.Wrap(err, "render system section")
	}
	if err := t.user.Execute(&userBuf, placeholders); err != nil {
		return nil, errors.Wrap(err, "render user section")
	}

	return &TurnRequest{
		Role:         t.Key.Role,
		Mode:         t.Key.Mode,
		System:       systemBuf.String(),
		User:         userBuf.String(),
		Placeholders: placeholders,
	}, nil
}

// collectPlaceholders walks a template parse tree and records the top-level
// field names ({{.user_request}} records "user_request").
func collectPlaceholders(node parse.Node, out map[string]struct{}) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			collectPlaceholders(child, out)
		}
	case *parse.ActionNode:
		collectPipe(n.Pipe, out)
	case *parse.IfNode:
		collectPipe(n.Pipe, out)
		collectPlaceholders(n.List, out)
		if n.ElseList != nil {
			collectPlaceholders(n.ElseList, out)
		}
	case *parse.RangeNode:
		collectPipe(n.Pipe, out)
		collectPlaceholders(n.List, out)
		if n.ElseList != nil {
			collectPlaceholders(n.ElseList, out)
		}
	case *parse.WithNode:
		collectPipe(n.Pipe, out)
		collectPlaceholders(n.List, out)
		if n.ElseList != nil {
			collectPlaceholders(n.ElseList, out)
		}
	}
}

func collectPipe(pipe *parse.PipeNode, out map[string]struct{}) {
	if pipe == nil {
		return
	}
	for _, cmd := range pipe.Cmds {
		for _, arg := range cmd.Args {
			if field, ok := arg.(*parse.FieldNode); ok && len(field.Ident) > 0 {
				out[field.Ident[0]] = struct{}{}
			}
		}
	}
}

// Set holds the templates for every supported (role, mode) pair.
type Set struct {
	templates map[Key]*Template
}

// NewSet builds an empty template set.
func NewSet() *Set {
	return &Set{templates: make(map[Key]*Template)}
}

// Add registers a template under its own key.
func (s *Set) Add(t *Template) {
	s.templates[t.Key] = t
}

// Get returns the template for the exact key.
func (s *Set) Get(key Key) (*Template, error) {
	t, ok := s.templates[key]
	if !ok {
		return nil, &UnknownRoleModeError{Key: key}
	}
	return t, nil
}

// Render selects the template for (role, mode) and renders it.
func (s *Set) Render(role Role, mode Mode, placeholders map[string]string) (*TurnRequest, error) {
	t, err := s.Get(Key{Role: role, Mode: mode})
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("template", t.Key.String()).
		Int("placeholders", len(placeholders)).
		Msg("prompts: rendering turn request")
	return t.Render(placeholders)
}

// Builtin loads the embedded template files into a Set.
func Builtin() (*Set, error) {
	set := NewSet()
	err := fs.WalkDir(builtinTemplates, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		content, err := builtinTemplates.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		t, err := ParseTemplate(content)
		if err != nil {
			return errors.Wrapf(err, "parse %s", path)
		}
		set.Add(t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}
