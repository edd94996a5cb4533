package openapi

const (
	mimeJSON   = "application/json"
	mimeBinary = "application/octet-stream"
)

type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// PathItem holds the operations on one path. The API only exposes reads
// and triggers, so GET and POST are the only methods documented.
type PathItem struct {
	Get  *Operation `json:"get,omitempty"`
	Post *Operation `json:"post,omitempty"`
}

// Operation describes a single API operation on a path.
type Operation struct {
	Summary     string            `json:"summary,omitempty"`
	Description string            `json:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Parameters  []*Parameter      `json:"parameters,omitempty"`
	RequestBody *RequestBody      `json:"requestBody,omitempty"`
	Responses   map[int]*Response `json:"responses"`
}

type Parameter struct {
	Name        string  `json:"name"`
	In          string  `json:"in"`
	Required    bool    `json:"required,omitempty"`
	Description string  `json:"description,omitempty"`
	Schema      *Schema `json:"schema"`
}

type RequestBody struct {
	Description string                `json:"description,omitempty"`
	Required    bool                  `json:"required,omitempty"`
	Content     map[string]*MediaType `json:"content"`
}

// Response is either inline or a $ref into components.responses.
type Response struct {
	Description string                `json:"description,omitempty"`
	Content     map[string]*MediaType `json:"content,omitempty"`
	Ref         string                `json:"$ref,omitempty"`
}

type MediaType struct {
	Schema *Schema `json:"schema,omitempty"`
}

// Schema is the subset of JSON Schema that SchemaOf and the helpers below
// produce.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Format      string             `json:"format,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Ref         string             `json:"$ref,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
	Example     any                `json:"example,omitempty"`
}

// Components holds reusable schemas and responses.
type Components struct {
	Schemas   map[string]*Schema   `json:"schemas,omitempty"`
	Responses map[string]*Response `json:"responses,omitempty"`
}

func content(mime string, s *Schema) map[string]*MediaType {
	return map[string]*MediaType{mime: {Schema: s}}
}

func param(in, name, description string, required bool, s *Schema) *Parameter {
	return &Parameter{Name: name, In: in, Required: required, Description: description, Schema: s}
}

// SchemaRef returns a $ref to the named component schema.
func SchemaRef(name string) *Schema {
	return &Schema{Ref: "#/components/schemas/" + name}
}

// ResponseRef returns a $ref to the named component response.
func ResponseRef(name string) *Response {
	return &Response{Ref: "#/components/responses/" + name}
}

// RequestBodyJSON creates a JSON request body referencing the named schema.
func RequestBodyJSON(schemaName string, required bool) *RequestBody {
	return &RequestBody{Required: required, Content: content(mimeJSON, SchemaRef(schemaName))}
}

// ResponseJSON creates a JSON response referencing the named schema.
func ResponseJSON(description, schemaName string) *Response {
	return &Response{Description: description, Content: content(mimeJSON, SchemaRef(schemaName))}
}

// ResponseJSONArray creates a JSON response holding a list of the named schema.
func ResponseJSONArray(description, schemaName string) *Response {
	return &Response{
		Description: description,
		Content:     content(mimeJSON, &Schema{Type: "array", Items: SchemaRef(schemaName)}),
	}
}

// ResponsePage wraps the named item schema in the pagination envelope.
func ResponsePage(description, itemSchema string) *Response {
	page := &Schema{
		Type:     "object",
		Required: []string{"data", "total", "page", "page_size", "total_pages", "has_next"},
		Properties: map[string]*Schema{
			"data":     {Type: "array", Items: SchemaRef(itemSchema)},
			"has_next": {Type: "boolean"},
		},
	}
	for _, k := range []string{"total", "page", "page_size", "total_pages"} {
		page.Properties[k] = &Schema{Type: "integer"}
	}
	return &Response{Description: description, Content: content(mimeJSON, page)}
}

// ResponseBinary describes a raw file download.
func ResponseBinary(description string) *Response {
	return &Response{
		Description: description,
		Content:     content(mimeBinary, &Schema{Type: "string", Format: "binary"}),
	}
}

// PathParam creates a required UUID path parameter.
func PathParam(name, description string) *Parameter {
	return param("path", name, description, true, &Schema{Type: "string", Format: "uuid"})
}

// EnumPathParam creates a required string path parameter limited to values.
func EnumPathParam(name, description string, values ...string) *Parameter {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return param("path", name, description, true, &Schema{Type: "string", Enum: enum})
}

// QueryParam creates a query parameter of JSON Schema type typ.
func QueryParam(name, typ, description string, required bool) *Parameter {
	return param("query", name, description, required, &Schema{Type: typ})
}
