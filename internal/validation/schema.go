package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-homepage/internal/markdown"
)

var (
	ErrSchemaInvalid    = errors.New("schema invalid")
	ErrSchemaValidation = errors.New("schema validation failed")
	ErrProfileInvalid   = errors.New("profile invalid")
)

// Profile pins the front matter of every document routed at Permalink to a
// JSON schema. When Schema is empty it is generated from Keys so the block
// must contain exactly those keys.
type Profile struct {
	Name      string         `json:"name" mapstructure:"name"`
	Permalink string         `json:"permalink" mapstructure:"permalink"`
	Keys      []string       `json:"keys" mapstructure:"keys"`
	Schema    map[string]any `json:"schema,omitempty" mapstructure:"schema"`
}

// AboutProfile is the key set the landing page and its drafts share.
func AboutProfile() Profile {
	return Profile{
		Name:      "about",
		Permalink: "/",
		Keys:      []string{"permalink", "title", "excerpt", "author_profile", "redirect_from"},
	}
}

// DefaultProfiles returns the profiles applied when none are configured.
func DefaultProfiles() []Profile {
	return []Profile{AboutProfile()}
}

var knownKeyTypes = map[string]map[string]any{
	"permalink":      {"type": "string", "pattern": "^/"},
	"title":          {"type": "string", "minLength": 1},
	"excerpt":        {"type": "string"},
	"description":    {"type": "string"},
	"author_profile": {"type": "boolean"},
	"published":      {"type": "boolean"},
	"redirect_from": {
		"oneOf": []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	},
	"tags": {"type": "array", "items": map[string]any{"type": "string"}},
}

// JSONSchema returns the schema enforced by the profile.
func (p Profile) JSONSchema() map[string]any {
	if len(p.Schema) > 0 {
		return cloneMap(p.Schema)
	}
	properties := make(map[string]any, len(p.Keys))
	required := make([]any, 0, len(p.Keys))
	for _, key := range p.Keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if known, ok := knownKeyTypes[key]; ok {
			properties[key] = cloneMap(known)
		} else {
			properties[key] = map[string]any{}
		}
		required = append(required, key)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// SchemaIssue captures a single schema failure.
type SchemaIssue struct {
	Location string
	Message  string
}

// PayloadValidationError surfaces schema issues with their JSON pointer.
type PayloadValidationError struct {
	Issues []SchemaIssue
	Cause  error
}

func (e *PayloadValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issueLocation(issue.Location), issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *PayloadValidationError) Unwrap() error {
	return ErrSchemaValidation
}

// Issues extracts schema issues from an error.
func Issues(err error) []SchemaIssue {
	if err == nil {
		return nil
	}
	var payloadErr *PayloadValidationError
	if errors.As(err, &payloadErr) && payloadErr != nil {
		return payloadErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectValidationIssues(validationErr)
	}
	return []SchemaIssue{{Message: err.Error()}}
}

type compiledProfile struct {
	Profile
	schema *jsonschema.Schema
}

func compileProfiles(profiles []Profile) ([]compiledProfile, error) {
	out := make([]compiledProfile, 0, len(profiles))
	seen := map[string]struct{}{}
	for i, profile := range profiles {
		profile.Permalink = markdown.NormalizePermalink(profile.Permalink)
		if profile.Name == "" {
			profile.Name = fmt.Sprintf("profile-%d", i+1)
		}
		if profile.Permalink == "" {
			return nil, fmt.Errorf("%w: %s has no permalink", ErrProfileInvalid, profile.Name)
		}
		if len(profile.Keys) == 0 && len(profile.Schema) == 0 {
			return nil, fmt.Errorf("%w: %s declares neither keys nor schema", ErrProfileInvalid, profile.Name)
		}
		if _, dup := seen[profile.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate profile name %s", ErrProfileInvalid, profile.Name)
		}
		seen[profile.Name] = struct{}{}

		compiled, err := compileSchema(profile.Name, profile.JSONSchema())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSchemaInvalid, profile.Name, err)
		}
		out = append(out, compiledProfile{Profile: profile, schema: compiled})
	}
	return out, nil
}

func (p compiledProfile) validate(payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}
	instance, err := toJSONValue(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	if err := p.schema.Validate(instance); err != nil {
		return &PayloadValidationError{
			Issues: Issues(err),
			Cause:  err,
		}
	}
	return nil
}

// toJSONValue round-trips YAML-decoded values so numbers and nested values
// match what the schema validator expects.
func toJSONValue(payload map[string]any) (any, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
}

func compileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	resource := name + ".json"
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(resource, bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile(resource)
}

func collectValidationIssues(err *jsonschema.ValidationError) []SchemaIssue {
	if err == nil {
		return nil
	}
	issues := []SchemaIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, SchemaIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Location < issues[j].Location
	})
	return issues
}

func issueLocation(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return "#"
	}
	if !strings.HasPrefix(location, "#") {
		return "#" + location
	}
	return location
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		switch typed := value.(type) {
		case map[string]any:
			out[key] = cloneMap(typed)
		case []any:
			out[key] = cloneSlice(typed)
		default:
			out[key] = value
		}
	}
	return out
}

func cloneSlice(input []any) []any {
	if input == nil {
		return nil
	}
	out := make([]any, len(input))
	for i, value := range input {
		switch typed := value.(type) {
		case map[string]any:
			out[i] = cloneMap(typed)
		case []any:
			out[i] = cloneSlice(typed)
		default:
			out[i] = value
		}
	}
	return out
}
