package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"horse.fit/storydesk/internal/news"
)

const clusterRequestSchemaName = "cluster_request.schema.json"

//go:embed cluster_request.schema.json
var clusterRequestSchemaJSON string

// ClusterRequest is the body accepted by the cluster endpoint and by
// article files on the command line. Threshold is nil when omitted.
type ClusterRequest struct {
	Threshold *float64       `json:"threshold,omitempty"`
	Articles  []news.Article `json:"articles"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateClusterRequest checks payload against the embedded schema and
// decodes it. A bare JSON array is accepted as the article list.
func ValidateClusterRequest(payload []byte) (*ClusterRequest, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}
	if list, ok := value.([]any); ok {
		value = map[string]any{"articles": list}
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var req ClusterRequest
	if err := json.Unmarshal(normalized, &req); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	for i, a := range req.Articles {
		if strings.TrimSpace(a.Title) == "" {
			return nil, fmt.Errorf("articles[%d].title must not be blank", i)
		}
		req.Articles[i] = a.Normalize()
	}
	if req.Articles == nil {
		req.Articles = []news.Article{}
	}
	return &req, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource(clusterRequestSchemaName, strings.NewReader(clusterRequestSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile(clusterRequestSchemaName)
		if compiledSchemaErr != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", compiledSchemaErr)
		}
	})
	return compiledSchema, compiledSchemaErr
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}
	return value, nil
}
