package agents

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/deskpilot/deskpilot/pkg/prompts"
)

// ErrSchemaViolation marks responses that do not honor the role's
// documented JSON schema. Recoverable: the orchestrator re-prompts with the
// violation detail appended as context.
var ErrSchemaViolation = errors.New("schema violation")

// SchemaViolationError carries the validation detail fed back into the
// re-prompt.
type SchemaViolationError struct {
	Detail string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation: %s", e.Detail)
}

func (e *SchemaViolationError) Is(target error) bool { return target == ErrSchemaViolation }

// ExtractJSONObject pulls the first JSON object out of raw LLM output,
// tolerating markdown code fences and prose around it.
func ExtractJSONObject(text string) (string, error) {
	if fenced := extractFenced(text); fenced != "" {
		text = fenced
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", &SchemaViolationError{Detail: "response contains no JSON object"}
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", &SchemaViolationError{Detail: "response contains an unterminated JSON object"}
}

func extractFenced(text string) string {
	for _, marker := range []string{"```json", "```"} {
		idx := strings.Index(text, marker)
		if idx < 0 {
			continue
		}
		rest := text[idx+len(marker):]
		end := strings.Index(rest, "```")
		if end < 0 {
			continue
		}
		return rest[:end]
	}
	return ""
}

// validate checks the raw JSON against the (role, mode) schema.
func validate(key prompts.Key, raw string) error {
	schema, err := ResponseSchema(key)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return &SchemaViolationError{Detail: err.Error()}
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return &SchemaViolationError{Detail: strings.Join(details, "; ")}
	}
	return nil
}

func decodeStrict(raw string, out any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &SchemaViolationError{Detail: err.Error()}
	}
	return nil
}

// ParseHostResponse extracts, validates and decodes a HostAgent response.
func ParseHostResponse(mode prompts.Mode, text string) (*HostResponse, error) {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}
	key := prompts.Key{Role: prompts.RoleHost, Mode: prompts.Mode{Visual: mode.Visual}}
	if err := validate(key, raw); err != nil {
		return nil, err
	}
	resp := &HostResponse{}
	if err := decodeStrict(raw, resp); err != nil {
		return nil, err
	}
	if !resp.Status.IsValid() {
		return nil, &SchemaViolationError{Detail: fmt.Sprintf("invalid host status %q", resp.Status)}
	}
	log.Debug().Str("status", string(resp.Status)).Str("subtask", resp.CurrentSubtask).Msg("agents: parsed host response")
	return resp, nil
}

// ParseAppResponse extracts, validates and decodes a single-action AppAgent
// response.
func ParseAppResponse(mode prompts.Mode, text string) (*AppResponse, error) {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}
	key := prompts.Key{Role: prompts.RoleApp, Mode: prompts.Mode{Visual: mode.Visual}}
	if err := validate(key, raw); err != nil {
		return nil, err
	}
	resp := &AppResponse{}
	if err := decodeStrict(raw, resp); err != nil {
		return nil, err
	}
	if !resp.Status.IsValid() {
		return nil, &SchemaViolationError{Detail: fmt.Sprintf("invalid app status %q", resp.Status)}
	}
	log.Debug().Str("status", string(resp.Status)).Str("function", resp.Function).Msg("agents: parsed app response")
	return resp, nil
}

// ParseAppMultiResponse extracts, validates and decodes a multi-action
// AppAgent response.
func ParseAppMultiResponse(mode prompts.Mode, text string) (*AppMultiResponse, error) {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}
	key := prompts.Key{Role: prompts.RoleApp, Mode: prompts.Mode{Visual: mode.Visual, MultiAction: true}}
	if err := validate(key, raw); err != nil {
		return nil, err
	}
	resp := &AppMultiResponse{}
	if err := decodeStrict(raw, resp); err != nil {
		return nil, err
	}
	for i, entry := range resp.ActionList {
		if !entry.Status.IsValid() {
			return nil, &SchemaViolationError{Detail: fmt.Sprintf("invalid app status %q in action %d", entry.Status, i)}
		}
	}
	log.Debug().Int("actions", len(resp.ActionList)).Str("status", string(resp.Status())).Msg("agents: parsed multi-action app response")
	return resp, nil
}
