package httpapi

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"bizcard/internal/services"
)

//go:embed schemas/classify.json
var classifySchemaJSON string

//go:embed schemas/card.json
var cardSchemaJSON string

//go:embed schemas/update.json
var updateSchemaJSON string

//go:embed schemas/share.json
var shareSchemaJSON string

const maxJSONBody = 1 << 20

type schemas struct {
	classify *jsonschema.Schema
	card     *jsonschema.Schema
	update   *jsonschema.Schema
	share    *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	compiler := jsonschema.NewCompiler()
	sources := map[string]string{
		"classify.json": classifySchemaJSON,
		"card.json":     cardSchemaJSON,
		"update.json":   updateSchemaJSON,
		"share.json":    shareSchemaJSON,
	}
	for name, src := range sources {
		if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}
	var (
		out schemas
		err error
	)
	if out.classify, err = compiler.Compile("classify.json"); err != nil {
		return nil, fmt.Errorf("compile classify schema: %w", err)
	}
	if out.card, err = compiler.Compile("card.json"); err != nil {
		return nil, fmt.Errorf("compile card schema: %w", err)
	}
	if out.update, err = compiler.Compile("update.json"); err != nil {
		return nil, fmt.Errorf("compile update schema: %w", err)
	}
	if out.share, err = compiler.Compile("share.json"); err != nil {
		return nil, fmt.Errorf("compile share schema: %w", err)
	}
	return &out, nil
}

// decodeBody reads a JSON body, validates it against schema, and decodes it
// into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, dst any) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return services.Wrap(services.ErrValidation, "api", "read body", "request body too large or unreadable", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return services.Wrap(services.ErrValidation, "api", "decode body", "invalid JSON", err)
	}
	if err := schema.Validate(doc); err != nil {
		return services.Wrap(services.ErrValidation, "api", "validate body", validationMessage(err), nil)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(dst); err != nil {
		return services.Wrap(services.ErrValidation, "api", "decode body", "invalid payload", err)
	}
	return nil
}

func validationMessage(err error) string {
	if ve, ok := err.(*jsonschema.ValidationError); ok {
		leaf := ve
		for len(leaf.Causes) > 0 {
			leaf = leaf.Causes[0]
		}
		loc := leaf.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return fmt.Sprintf("%s: %s", loc, leaf.Message)
	}
	return err.Error()
}
