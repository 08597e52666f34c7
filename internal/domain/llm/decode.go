package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	validate   = validator.New()
	schemas    sync.Map // reflect.Type -> string
)

// ExtractJSON locates the JSON object in raw model output. Code fences and
// surrounding prose are tolerated.
func ExtractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrEmptyOutput
	}
	if m := fencedJSON.FindStringSubmatch(text); len(m) == 2 {
		return m[1], nil
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSONObject
	}
	return text[start : end+1], nil
}

// DecodeJSON extracts the JSON object from raw output into v and runs
// struct validation on the result.
func DecodeJSON(raw string, v any) error {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("decode llm json: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validate llm json: %w", err)
	}
	return nil
}

// GenerateJSON runs prompt through capability and decodes the result into T.
func GenerateJSON[T any](ctx context.Context, capability Capability, prompt Prompt) (*T, error) {
	prompt.JSON = true
	raw, err := capability.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var out T
	if err := DecodeJSON(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SchemaFor renders the JSON schema of v's type, for embedding in prompts.
func SchemaFor(v any) string {
	t := reflect.TypeOf(v)
	if cached, ok := schemas.Load(t); ok {
		return cached.(string)
	}
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(v)
	schema.Version = ""
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "{}"
	}
	rendered := string(data)
	schemas.Store(t, rendered)
	return rendered
}
