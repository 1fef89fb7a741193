package github

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/branchspec/packages/http"
	"github.com/xeipuuv/gojsonschema"
)

const branchSchema = `{
  "type": "object",
  "required": ["name", "commit", "protected"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "protected": {"type": "boolean"},
    "commit": {
      "type": "object",
      "required": ["sha", "url"],
      "properties": {
        "sha": {"type": "string"},
        "url": {"type": "string"}
      }
    }
  }
}`

const compareSchema = `{
  "type": "object",
  "required": ["status", "ahead_by", "behind_by", "merge_base_commit"],
  "properties": {
    "status": {"enum": ["ahead", "behind", "identical", "diverged"]},
    "ahead_by": {"type": "integer", "minimum": 0},
    "behind_by": {"type": "integer", "minimum": 0},
    "merge_base_commit": {
      "type": "object",
      "required": ["sha"],
      "properties": {"sha": {"type": "string"}}
    }
  }
}`

const commitSchema = `{
  "type": "object",
  "required": ["sha", "commit"],
  "properties": {
    "sha": {"type": "string", "minLength": 1},
    "commit": {
      "type": "object",
      "required": ["message", "author", "committer"],
      "properties": {
        "message": {"type": "string"},
        "author": {"type": "object"},
        "committer": {"type": "object"}
      }
    }
  }
}`

var (
	branchSchemaLoader  = gojsonschema.NewStringLoader(branchSchema)
	compareSchemaLoader = gojsonschema.NewStringLoader(compareSchema)
	commitSchemaLoader  = gojsonschema.NewStringLoader(commitSchema)
)

// ShapeError reports a response body that does not have the structure the
// harness decodes.
type ShapeError struct {
	Resource string
	Problems []string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unexpected shape for %s response: %s", e.Resource, strings.Join(e.Problems, "; "))
}

func (e *ShapeError) Kind() string {
	return "shape"
}

func validateShape(resource string, schema gojsonschema.JSONLoader, body []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ShapeError{Resource: resource, Problems: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return &ShapeError{Resource: resource, Problems: problems}
}

// decode validates the body against schema before unmarshalling into v, so a
// malformed response surfaces as a ShapeError instead of zero values.
func decode(resp *http.Response, resource string, schema gojsonschema.JSONLoader, v any) error {
	if err := validateShape(resource, schema, resp.Body); err != nil {
		return err
	}
	if err := resp.DecodeJSON(v); err != nil {
		return &ShapeError{Resource: resource, Problems: []string{err.Error()}}
	}
	return nil
}
