package apimodels

// GenerateRequest is the body of POST /api/v1/generate.
type GenerateRequest struct {
	// Product being analyzed
	Product string `json:"product"`

	// BusinessObjective the insights should serve
	BusinessObjective string `json:"business_objective"`

	// Segment is the target customer segment
	Segment string `json:"segment"`

	// FocusAreas are category names; composites such as "SWOT Analysis" are
	// expanded server side
	FocusAreas []string `json:"focus_areas"`
}
