// ABOUTME: JSON-Schema request validation middleware
// ABOUTME: Validates the {body, params, query} triple before the handler runs

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Schemas mirror the old zod definitions: a declared shape per route,
// checked in full before any handler code runs. Content is trimmed on
// write, so the pattern demands a non-space character; minLength alone
// would let whitespace-only content shrink to empty in the store.
const createTodoSchemaJSON = `{
	"type": "object",
	"properties": {
		"body": {
			"type": "object",
			"required": ["content"],
			"properties": {
				"content": {"type": "string", "minLength": 1, "maxLength": 1000, "pattern": "\\S"},
				"completed": {"type": "boolean"}
			}
		}
	},
	"required": ["body"]
}`

const updateTodoSchemaJSON = `{
	"type": "object",
	"properties": {
		"body": {
			"type": "object",
			"properties": {
				"content": {"type": "string", "minLength": 1, "maxLength": 1000, "pattern": "\\S"},
				"completed": {"type": "boolean"}
			}
		}
	},
	"required": ["body"]
}`

var (
	createTodoSchema = mustCompileSchema("create_todo.json", createTodoSchemaJSON)
	updateTodoSchema = mustCompileSchema("update_todo.json", updateTodoSchemaJSON)
)

func mustCompileSchema(name, doc string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(doc)); err != nil {
		panic(fmt.Sprintf("adding schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compiling schema %s: %v", name, err))
	}
	return schema
}

// validateBody returns a middleware validating the request against the
// declared schema. The request body is buffered and restored so the
// handler can decode it again. Any violation rejects the request as a
// whole; a request is never partially applied.
func validateBody(schema *jsonschema.Schema) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := io.ReadAll(r.Body)
			if err != nil {
				badRequestEnvelope(w, "Invalid input data")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(data))

			var body any
			if len(data) > 0 {
				if err := json.Unmarshal(data, &body); err != nil {
					badRequestEnvelope(w, "Invalid input data")
					return
				}
			}

			instance := map[string]any{
				"params": routeParams(r),
				"query":  queryParams(r),
			}
			if body != nil {
				instance["body"] = body
			}

			if err := schema.Validate(instance); err != nil {
				badRequestEnvelope(w, validationMessage(err))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// routeParams flattens chi URL parameters into a plain map.
func routeParams(r *http.Request) map[string]any {
	params := map[string]any{}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			params[key] = rctx.URLParams.Values[i]
		}
	}
	return params
}

// queryParams flattens query values, first value wins.
func queryParams(r *http.Request) map[string]any {
	query := map[string]any{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}
	return query
}

// validationMessage builds one human-readable aggregate message from the
// leaf causes of a validation failure.
func validationMessage(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return "Invalid input data"
	}

	var parts []string
	collectLeaves(ve, &parts)
	if len(parts) == 0 {
		return "Invalid input data"
	}
	return strings.Join(parts, "; ")
}

func collectLeaves(ve *jsonschema.ValidationError, parts *[]string) {
	if len(ve.Causes) == 0 {
		loc := strings.TrimPrefix(ve.InstanceLocation, "/")
		if loc == "" {
			*parts = append(*parts, ve.Message)
		} else {
			*parts = append(*parts, fmt.Sprintf("%s: %s", loc, ve.Message))
		}
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, parts)
	}
}

// badRequestEnvelope writes a 400 with the shared error envelope. The
// validator runs before the handler adapter, so it writes directly.
func badRequestEnvelope(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"message": message,
	})
}
