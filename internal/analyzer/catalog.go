package analyzer

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sozercan/insight-gateway/apimodels"
)

// SWOTAnalysis is the composite marker expanded into its four quadrants.
const SWOTAnalysis = "SWOT Analysis"

var slotPattern = regexp.MustCompile(`\{([A-Za-z_]+)\}`)

var knownSlots = map[string]bool{
	"product":            true,
	"business_objective": true,
	"segment":            true,
}

var defaultTemplates = map[string]string{
	"Marketing OKRs":           "What are 3 measurable marketing OKRs to grow usage in the {segment} segment for the {product} to help {business_objective}?",
	"Strengths":                "What product strengths matter most to a {segment} for the {product} to help {business_objective}?",
	"Weaknesses":               "What would the {segment} be concerned about or dislike about the {product} to help {business_objective}?",
	"Opportunities":            "What product or brand opportunities can we unlock by targeting the {segment} with the {product} to help {business_objective}?",
	"Threats":                  "What risks might prevent the {segment} from adopting or staying loyal to the {product} to help {business_objective}?",
	"Market Positioning":       "How should we position the {product} to resonate with the {segment} to help {business_objective}?",
	"Buyer Persona":            "Write a sample persona for a typical {segment} customer of the {product} to help {business_objective}.",
	"Investment Opportunities": "Why is the {segment} segment strategically valuable for growth/investment in the {product} to help {business_objective}?",
	"Channels & Distribution":  "How should we reach and activate the {segment} for the {product} to help {business_objective}?",
}

var defaultComposites = map[string][]string{
	SWOTAnalysis: {"Strengths", "Weaknesses", "Threats", "Opportunities"},
}

const responseInstructions = `Respond ONLY with a JSON object matching this schema:
{
  "insights": [
    "string",
    "string",
    "string"
  ]
}

Do NOT use key-value pairs inside the "insights" array.
Do NOT add markdown or formatting.`

// Catalog holds the category prompt templates and composite expansions.
// It is immutable once built and safe for concurrent reads.
type Catalog struct {
	templates  map[string]string
	composites map[string][]string
}

// CatalogFile is the on-disk catalog layout.
type CatalogFile struct {
	Templates  map[string]string   `yaml:"templates"`
	Composites map[string][]string `yaml:"composites"`
}

// DefaultCatalog returns the built-in prompt table.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultTemplates, defaultComposites)
	if err != nil {
		panic(fmt.Sprintf("default catalog: %v", err))
	}
	return c
}

// NewCatalog copies and validates the given tables.
func NewCatalog(templates map[string]string, composites map[string][]string) (*Catalog, error) {
	c := &Catalog{
		templates:  make(map[string]string, len(templates)),
		composites: make(map[string][]string, len(composites)),
	}

	for name, tmpl := range templates {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("template with empty category name")
		}
		for _, m := range slotPattern.FindAllStringSubmatch(tmpl, -1) {
			if !knownSlots[m[1]] {
				return nil, fmt.Errorf("template %q: unknown slot {%s}", name, m[1])
			}
		}
		c.templates[name] = tmpl
	}

	for name, parts := range composites {
		if len(parts) == 0 {
			return nil, fmt.Errorf("composite %q expands to nothing", name)
		}
		for _, p := range parts {
			if _, nested := composites[p]; nested {
				return nil, fmt.Errorf("composite %q contains composite %q", name, p)
			}
		}
		c.composites[name] = append([]string(nil), parts...)
	}

	return c, nil
}

// LoadCatalogFile reads a YAML catalog. Sections left empty fall back to
// the built-in tables.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(file.Templates) == 0 {
		file.Templates = defaultTemplates
	}
	if file.Composites == nil {
		file.Composites = defaultComposites
	}
	return NewCatalog(file.Templates, file.Composites)
}

// Categories lists the concrete category names, sorted.
func (c *Catalog) Categories() []string {
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render fills the category's template and appends the response
// instructions. ok is false when the category has no template.
func (c *Catalog) Render(category string, req apimodels.GenerateRequest) (prompt string, ok bool) {
	tmpl, ok := c.templates[category]
	if !ok {
		return "", false
	}

	r := strings.NewReplacer(
		"{product}", req.Product,
		"{business_objective}", req.BusinessObjective,
		"{segment}", req.Segment,
	)
	return strings.TrimSpace(r.Replace(tmpl)) + "\n\n" + responseInstructions, true
}

// Expand replaces every composite marker in place by its sub-categories.
// Other names pass through untouched, duplicates and unknown names included.
func (c *Catalog) Expand(categories []string) []string {
	out := make([]string, 0, len(categories))
	for _, name := range categories {
		if parts, ok := c.composites[name]; ok {
			out = append(out, parts...)
			continue
		}
		out = append(out, name)
	}
	return out
}
