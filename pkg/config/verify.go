package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	var schema map[string]any
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	// convert config to JSON for validation
	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	var configMap map[string]any
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := checkRequired(schema, "", schema, configMap); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateRequiredFields(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// checkRequired verifies that required properties of a schema object are
// present in the config map, following $ref and inline nested objects
func checkRequired(schema map[string]any, path string, def, value map[string]any) error {
	if ref, ok := def["$ref"].(string); ok {
		defs, _ := schema["$defs"].(map[string]any)
		resolved, ok := defs[refName(ref)].(map[string]any)
		if !ok {
			return fmt.Errorf("definition %s not found in schema", ref)
		}
		def = resolved
	}

	required, _ := def["required"].([]any)
	for _, r := range required {
		name, _ := r.(string)
		if _, ok := value[name]; !ok {
			return fmt.Errorf("%s is required", joinPath(path, name))
		}
	}

	props, _ := def["properties"].(map[string]any)
	for name, p := range props {
		prop, _ := p.(map[string]any)
		nested, isObj := value[name].(map[string]any)
		if prop == nil || !isObj {
			continue
		}
		if err := checkRequired(schema, joinPath(path, name), prop, nested); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func refName(ref string) string {
	return strings.TrimPrefix(ref, "#/$defs/")
}

// validateRequiredFields performs basic validation of required fields
func validateRequiredFields(cfg *Config) error {
	if cfg.Company.Name == "" {
		return fmt.Errorf("company.name is required")
	}
	if len(cfg.Company.Keywords) == 0 {
		return fmt.Errorf("company.keywords is required")
	}
	if cfg.Feed.BaseURL == "" {
		return fmt.Errorf("feed.base_url is required")
	}
	if cfg.History.Path == "" && cfg.History.DSN == "" {
		return fmt.Errorf("history.path or history.dsn is required")
	}
	return nil
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() (*jsonschema.Schema, error) {
	return jsonschema.Reflect(&Config{}), nil
}
