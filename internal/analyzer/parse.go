package analyzer

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

const insightsSchemaJSON = `{
  "type": "object",
  "required": ["insights"],
  "properties": {
    "insights": {
      "type": "array",
      "items": {"type": "string"}
    }
  }
}`

var insightsSchema = mustSchema(insightsSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile insights schema: %v", err))
	}
	return s
}

type insightResponse struct {
	Insights []string `json:"insights"`
}

// ParseInsights validates a raw model answer against the insights schema
// and returns the insight list. A surrounding markdown code fence is
// tolerated.
func ParseInsights(raw string) ([]string, error) {
	doc := stripCodeFence(raw)
	if doc == "" {
		return nil, fmt.Errorf("empty response")
	}

	result, err := insightsSchema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("schema validation failed: %s", strings.Join(errs, "; "))
	}

	var resp insightResponse
	if err := json.Unmarshal([]byte(doc), &resp); err != nil {
		return nil, fmt.Errorf("decode insights: %w", err)
	}
	if resp.Insights == nil {
		resp.Insights = []string{}
	}
	return resp.Insights, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
