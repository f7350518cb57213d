package tools

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
	"gopkg.in/yaml.v3"
)

// CatalogFormat selects how a catalog is rendered
type CatalogFormat string

const (
	CatalogFormatOpenAI    CatalogFormat = "openai"
	CatalogFormatAnthropic CatalogFormat = "anthropic"
	CatalogFormatResponses CatalogFormat = "responses"
	CatalogFormatSchema    CatalogFormat = "schema"
)

// ParseCatalogFormat validates a format name. Blank selects the OpenAI format.
func ParseCatalogFormat(s string) (CatalogFormat, error) {
	switch CatalogFormat(s) {
	case "":
		return CatalogFormatOpenAI, nil
	case CatalogFormatOpenAI, CatalogFormatAnthropic, CatalogFormatResponses, CatalogFormatSchema:
		return CatalogFormat(s), nil
	}
	return "", fmt.Errorf("unknown catalog format '%s'", s)
}

// parametersMap converts a parameters schema into a generic map for SDK params.
func parametersMap(p ParametersSchema) (map[string]interface{}, error) {
	data, err := codec.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode parameters: %w", err)
	}
	var out map[string]interface{}
	if err := codec.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	return out, nil
}

// OpenAITools renders schemas in chat-completions function format
func OpenAITools(schemas []FunctionSchema) ([]map[string]interface{}, error) {
	out := make([]map[string]interface{}, 0, len(schemas))
	for _, s := range schemas {
		params, err := parametersMap(s.Parameters)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", s.Name, err)
		}
		out = append(out, map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        s.Name,
				"description": s.Description,
				"parameters":  params,
			},
		})
	}
	return out, nil
}

// AnthropicTools renders schemas as Messages API tool definitions
func AnthropicTools(schemas []FunctionSchema) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        s.Name,
			Description: anthropic.String(s.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: s.Parameters.Properties,
				Required:   s.Parameters.Required,
			},
		}})
	}
	return out
}

// ResponsesTools renders schemas as Responses API function tools
func ResponsesTools(schemas []FunctionSchema) ([]responses.ToolUnionParam, error) {
	out := make([]responses.ToolUnionParam, 0, len(schemas))
	for _, s := range schemas {
		params, err := parametersMap(s.Parameters)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", s.Name, err)
		}
		out = append(out, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        s.Name,
				Description: openai.String(s.Description),
				Parameters:  params,
				Strict:      openai.Bool(false),
			},
		})
	}
	return out, nil
}

// RenderCatalog renders schemas in format as a JSON-encodable value
func RenderCatalog(schemas []FunctionSchema, format CatalogFormat) (interface{}, error) {
	switch format {
	case CatalogFormatAnthropic:
		return AnthropicTools(schemas), nil
	case CatalogFormatResponses:
		return ResponsesTools(schemas)
	case CatalogFormatSchema:
		return schemas, nil
	default:
		return OpenAITools(schemas)
	}
}

// CatalogYAML renders schemas as a YAML document in block style
func CatalogYAML(schemas []FunctionSchema) ([]byte, error) {
	data, err := codec.Marshal(schemas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}

	// JSON is valid YAML; decoding it into a node keeps key order.
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to convert catalog: %w", err)
	}
	resetStyle(&doc)

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog yaml: %w", err)
	}
	return out, nil
}

func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		resetStyle(c)
	}
}
