package agents

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"github.com/deskpilot/deskpilot/pkg/prompts"
)

// schemaFor derives the JSON response schema for a (role, mode) pair from
// the response structs, so the validator and the decoder can never drift
// apart. Visual AppAgent variants additionally require SaveScreenshot.
func schemaFor(key prompts.Key) (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}

	var schema *jsonschema.Schema
	switch {
	case key.Role == prompts.RoleHost && !key.Mode.MultiAction:
		schema = reflector.Reflect(&HostResponse{})
	case key.Role == prompts.RoleApp && key.Mode.MultiAction:
		schema = reflector.Reflect(&AppMultiResponse{})
	case key.Role == prompts.RoleApp:
		schema = reflector.Reflect(&AppResponse{})
	default:
		return nil, &prompts.UnknownRoleModeError{Key: key}
	}

	schema.AdditionalProperties = jsonschema.FalseSchema
	if key.Role == prompts.RoleApp && key.Mode.Visual {
		schema.Required = append(schema.Required, "SaveScreenshot")
	}
	return schema, nil
}

var (
	schemaMu    sync.Mutex
	schemaCache = map[prompts.Key]string{}
)

// ResponseSchema returns the JSON schema document the LLM response for the
// given (role, mode) is validated against.
func ResponseSchema(key prompts.Key) (string, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	if cached, ok := schemaCache[key]; ok {
		return cached, nil
	}
	schema, err := schemaFor(key)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return "", errors.Wrap(err, "marshal response schema")
	}
	schemaCache[key] = string(raw)
	return string(raw), nil
}

// RequiredKeys returns the keys a response for the given (role, mode) must
// contain.
func RequiredKeys(key prompts.Key) ([]string, error) {
	schema, err := schemaFor(key)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), schema.Required...), nil
}
