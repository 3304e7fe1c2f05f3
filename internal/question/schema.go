package question

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// bankSchemaURL is the resource name the bank schema is registered under.
const bankSchemaURL = "schema://question-bank.json"

// BankSchema is the JSON schema every question bank file must satisfy.
var BankSchema = map[string]any{
	"type":     "object",
	"required": []any{"questions"},
	"properties": map[string]any{
		"questions": map[string]any{
			"type":  "array",
			"items": questionSchema,
		},
		"exams": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "quiz_type", "question_ids"},
				"properties": map[string]any{
					"id":        map[string]any{"type": "string", "minLength": 1},
					"quiz_type": map[string]any{"type": "string", "minLength": 1},
					"question_ids": map[string]any{
						"type":     "array",
						"minItems": 1,
						"items":    map[string]any{"type": "string"},
					},
					"timer_enabled": map[string]any{"type": "boolean"},
				},
			},
		},
	},
}

var questionSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "quiz_type", "category", "type", "text"},
	"properties": map[string]any{
		"id":        map[string]any{"type": "string", "minLength": 1},
		"quiz_type": map[string]any{"type": "string", "minLength": 1},
		"category":  map[string]any{"type": "string", "minLength": 1},
		"type": map[string]any{
			"type": "string",
			"enum": []any{string(TypeSingle), string(TypeMultiple), string(TypeComposite)},
		},
		"text": map[string]any{"type": "string"},
		"options": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		// Malformed answers are tolerated here and surface at evaluation.
		"correct_answer": map[string]any{
			"type": []any{"string", "array"},
		},
		"explanation": map[string]any{"type": "string"},
		"sub_questions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "text", "expected_answer"},
				"properties": map[string]any{
					"id":              map[string]any{"type": "string", "minLength": 1},
					"text":            map[string]any{"type": "string"},
					"expected_answer": map[string]any{"type": []any{"string", "boolean"}},
					"explanation":     map[string]any{"type": "string"},
				},
			},
		},
	},
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// validateBank validates a decoded bank document against BankSchema.
func validateBank(doc any) error {
	compileOnce.Do(func() {
		// The compiler wants a decoded JSON value, not Go literals.
		defBytes, err := json.Marshal(BankSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema definition: %w", err)
			return
		}
		var defParsed any
		if err := json.Unmarshal(defBytes, &defParsed); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(bankSchemaURL, defParsed); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(bankSchemaURL)
	})
	if compileErr != nil {
		return fmt.Errorf("compile bank schema: %w", compileErr)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// ValidationError indicates a bank file that does not conform to BankSchema.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid question bank: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
