package gdy

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaSource string

var documentSchema = jsonschema.MustCompileString("gdy.schema.json", schemaSource)

// Load reads, validates and parses a game definition document. Definition
// errors are loud: a malformed ruleset must never reach the grid.
func Load(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Parse(raw)
}

// Parse validates a YAML document against the definition schema and decodes
// it.
func Parse(raw []byte) (Document, error) {
	var doc Document

	var node any
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return doc, fmt.Errorf("gdy: %w", err)
	}
	// Round-trip through JSON so the validator sees canonical JSON types.
	canonical, err := json.Marshal(node)
	if err != nil {
		return doc, fmt.Errorf("gdy: %w", err)
	}
	var instance any
	if err := json.Unmarshal(canonical, &instance); err != nil {
		return doc, fmt.Errorf("gdy: %w", err)
	}
	if err := documentSchema.Validate(instance); err != nil {
		return doc, fmt.Errorf("gdy: schema: %w", err)
	}

	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("gdy: %w", err)
	}
	return doc, nil
}

// Digest is a stable fingerprint of a document, for episode records.
func Digest(doc Document) string {
	canonical, _ := json.Marshal(doc)
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:8])
}
