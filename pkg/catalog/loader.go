package catalog

import (
	"embed"
	"io"
	"io/fs"

	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed docs/*.yaml
var builtinDocs embed.FS

// commandDoc is the on-disk documentation record for a single command. This
// is the contract a new command must satisfy to be added to the catalog.
type commandDoc struct {
	Summary   string   `yaml:"summary"`
	ClassName string   `yaml:"class_name"`
	Usage     usageDoc `yaml:"usage"`
}

type usageDoc struct {
	Args         []argDoc `yaml:"args"`
	Example      string   `yaml:"example"`
	Precondition string   `yaml:"precondition"`
	Returns      string   `yaml:"returns"`
}

type argDoc struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Default     *any   `yaml:"default"`
}

// catalogDoc is one YAML command-documentation file: a target application
// plus its command records keyed by command name.
type catalogDoc struct {
	Application string `yaml:"application"`
	// Commands preserves the document's declaration order via yaml.Node so
	// that the rendered API list matches the documentation order.
	Commands yaml.Node `yaml:"commands"`
}

// LoadFromYAML parses a command-documentation file into command specs. A
// record without a class_name gets the conventional handler name derived
// from the command name (insert_table -> InsertTableCommand).
func LoadFromYAML(r io.Reader) ([]CommandSpec, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read command docs")
	}

	doc := &catalogDoc{}
	if err := yaml.Unmarshal(content, doc); err != nil {
		return nil, errors.Wrap(err, "decode command docs")
	}
	if doc.Commands.Kind != yaml.MappingNode {
		return nil, errors.New("command docs: commands must be a mapping keyed by command name")
	}

	specs := make([]CommandSpec, 0, len(doc.Commands.Content)/2)
	for i := 0; i+1 < len(doc.Commands.Content); i += 2 {
		name := doc.Commands.Content[i].Value
		record := commandDoc{}
		if err := doc.Commands.Content[i+1].Decode(&record); err != nil {
			return nil, errors.Wrapf(err, "decode command %q", name)
		}
		specs = append(specs, specFromDoc(name, doc.Application, record))
	}
	return specs, nil
}

func specFromDoc(name string, application string, doc commandDoc) CommandSpec {
	className := doc.ClassName
	if className == "" {
		className = strcase.ToCamel(name) + "Command"
	}

	params := make([]ParameterSpec, 0, len(doc.Usage.Args))
	for _, arg := range doc.Usage.Args {
		params = append(params, ParameterSpec{
			Name:        arg.Name,
			Type:        arg.Type,
			Description: arg.Description,
			Default:     arg.Default,
		})
	}

	spec := CommandSpec{
		Name:         name,
		Summary:      doc.Summary,
		ClassName:    className,
		Parameters:   params,
		Example:      doc.Usage.Example,
		Precondition: doc.Usage.Precondition,
		Returns:      doc.Usage.Returns,
	}
	if application != "" {
		spec.Applications = []string{application}
	}
	return spec
}

// Builtin loads the embedded Word/Excel/PowerPoint command documentation
// into a fresh registry.
func Builtin() (*InMemoryRegistry, error) {
	registry := NewInMemoryRegistry()

	err := fs.WalkDir(builtinDocs, "docs", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		f, err := builtinDocs.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		specs, err := LoadFromYAML(f)
		if err != nil {
			return errors.Wrapf(err, "load %s", path)
		}
		for _, spec := range specs {
			if registry.Has(spec.Name) {
				// save_as exists per application; merge the application tags
				// instead of overwriting the record.
				existing, lookupErr := registry.Lookup(spec.Name)
				if lookupErr == nil {
					spec.Applications = append(existing.Applications, spec.Applications...)
				}
			}
			if err := registry.Register(spec.Name, spec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return registry, nil
}
