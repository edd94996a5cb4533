package openapi

import "maps"

// NewComponents seeds the shared Error and PageRequest schemas and one
// response per error status the handlers map to.
func NewComponents() *Components {
	c := &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type:     "object",
				Required: []string{"error"},
				Properties: map[string]*Schema{
					"error": {Type: "string", Description: "Error message"},
				},
			},
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":      {Type: "integer", Description: "Page number, starting at 1", Example: 1},
					"page_size": {Type: "integer", Description: "Results per page", Example: 20},
					"search":    {Type: "string", Description: "Free-text filter"},
					"sort":      {Type: "string", Description: "Comma-separated fields, - prefix for descending", Example: "-created_at,filename"},
				},
			},
		},
		Responses: map[string]*Response{},
	}

	for name, desc := range map[string]string{
		"BadRequest":         "Invalid request",
		"NotFound":           "Resource not found",
		"Conflict":           "Conflicting state",
		"ServiceUnavailable": "A dependency is unavailable",
	} {
		c.Responses[name] = &Response{Description: desc, Content: content(mimeJSON, SchemaRef("Error"))}
	}
	return c
}

func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}
