package documents

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/pkg/query"
	"github.com/JaimeStill/dossier/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("scope_id", "ScopeID").
	Project("blob_key", "BlobKey").
	Project("size_bytes", "SizeBytes").
	Project("sha256", "SHA256").
	Project("filename", "Filename").
	Project("title", "Title").
	Project("extension", "Extension").
	Project("media_type", "MediaType").
	Project("document_type_id", "DocumentTypeID").
	Project("employee_id", "EmployeeID").
	Project("status", "Status").
	Project("source", "Source").
	Project("document_date", "DocumentDate").
	Project("metadata", "Metadata").
	Project("tags", "Tags").
	Project("notes", "Notes").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt").
	Join("public", "scopes", "s", "JOIN", "s.id = d.scope_id").
	Project("code", "ScopeCode")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional criteria for document queries. Nil fields are
// ignored. Untyped selects documents without a document type. Since and
// Until bound the ingestion time.
type Filters struct {
	ID             *uuid.UUID `json:"id,omitempty"`
	Status         *string    `json:"status,omitempty"`
	ScopeID        *uuid.UUID `json:"scope_id,omitempty"`
	ScopeCode      *string    `json:"scope_code,omitempty"`
	EmployeeID     *uuid.UUID `json:"employee_id,omitempty"`
	DocumentTypeID *uuid.UUID `json:"document_type_id,omitempty"`
	Source         *string    `json:"source,omitempty"`
	Extension      *string    `json:"extension,omitempty"`
	Filename       *string    `json:"filename,omitempty"`
	Untyped        bool       `json:"untyped,omitempty"`
	Since          *time.Time `json:"since,omitempty"`
	Until          *time.Time `json:"until,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.
		WhereEquals("ID", f.ID).
		WhereEquals("Status", f.Status).
		WhereEquals("ScopeID", f.ScopeID).
		WhereEquals("ScopeCode", f.ScopeCode).
		WhereEquals("EmployeeID", f.EmployeeID).
		WhereEquals("DocumentTypeID", f.DocumentTypeID).
		WhereEquals("Source", f.Source).
		WhereEquals("Extension", f.Extension).
		WhereContains("Filename", f.Filename).
		WhereRange("CreatedAt", f.Since, f.Until)

	if f.Untyped {
		b.WhereNull("DocumentTypeID", true)
	}
	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Malformed ids are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		if st, err := ParseStatus(s); err == nil {
			v := string(st)
			f.Status = &v
		}
	}
	if s := values.Get("scope"); s != "" {
		f.ScopeCode = &s
	}
	if s := values.Get("source"); s != "" {
		f.Source = &s
	}
	if s := values.Get("extension"); s != "" {
		f.Extension = &s
	}
	if s := values.Get("filename"); s != "" {
		f.Filename = &s
	}
	f.ScopeID = uuidParam(values, "scope_id")
	f.EmployeeID = uuidParam(values, "employee_id")
	f.DocumentTypeID = uuidParam(values, "document_type_id")
	f.Untyped = values.Get("untyped") == "true"
	f.Since = query.TimeParam(values, "since")
	f.Until = query.TimeParam(values, "until")

	return f
}

func uuidParam(values url.Values, key string) *uuid.UUID {
	s := values.Get(key)
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func scanDocument(s repository.Scanner) (Document, error) {
	var (
		d        Document
		status   string
		source   string
		metadata []byte
		tags     []byte
	)
	err := s.Scan(
		&d.ID,
		&d.ScopeID,
		&d.BlobKey,
		&d.SizeBytes,
		&d.SHA256,
		&d.Filename,
		&d.Title,
		&d.Extension,
		&d.MediaType,
		&d.DocumentTypeID,
		&d.EmployeeID,
		&status,
		&source,
		&d.DocumentDate,
		&metadata,
		&tags,
		&d.Notes,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.ScopeCode,
	)
	if err != nil {
		return d, err
	}

	d.Status = Status(status)
	d.Source = Source(source)

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &d.Metadata); err != nil {
			return d, fmt.Errorf("decode metadata of %s: %w", d.ID, err)
		}
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &d.Tags); err != nil {
			return d, fmt.Errorf("decode tags of %s: %w", d.ID, err)
		}
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d, nil
}

func encodeState(m Metadata, tags []string) (metadata, tagsJSON []byte, err error) {
	if tags == nil {
		tags = []string{}
	}
	if metadata, err = json.Marshal(m); err != nil {
		return nil, nil, fmt.Errorf("encode metadata: %w", err)
	}
	if tagsJSON, err = json.Marshal(tags); err != nil {
		return nil, nil, fmt.Errorf("encode tags: %w", err)
	}
	return metadata, tagsJSON, nil
}
