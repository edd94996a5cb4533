package documents

import (
	"encoding/json"
	"maps"
	"slices"
	"strconv"
)

// MetadataVersion is the schema version written with every metadata bag.
const MetadataVersion = 1

// Metadata is the annotation bag of a document. Known keys are typed
// fields; anything else is preserved in Extra. Stages only add keys:
// Merge never overwrites a value an earlier stage already set.
type Metadata struct {
	OriginalPath       string   `json:"original_path,omitempty"`
	PeriodFolder       string   `json:"period_folder,omitempty"`
	PeriodYear         int      `json:"period_year,omitempty"`
	PeriodMonth        int      `json:"period_month,omitempty"`
	BarcodePayloads    []string `json:"barcode_payloads,omitempty"`
	BarcodeError       string   `json:"barcode_error,omitempty"`
	DetectedEmployeeID string   `json:"detected_employee_id,omitempty"`
	MandantCode        string   `json:"mandant_code,omitempty"`
	SplitFrom          string   `json:"split_from,omitempty"`
	SourceDocumentID   string   `json:"source_document_id,omitempty"`
	Pages              []int    `json:"pages,omitempty"`
	SplitInto          []string `json:"split_into,omitempty"`
	ClassifiedBy       string   `json:"classified_by,omitempty"`

	Extra map[string]any `json:"-"`
}

type metadataFields Metadata

const versionKey = "schema_version"

var knownKeys = map[string]bool{
	versionKey:             true,
	"original_path":        true,
	"period_folder":        true,
	"period_year":          true,
	"period_month":         true,
	"barcode_payloads":     true,
	"barcode_error":        true,
	"detected_employee_id": true,
	"mandant_code":         true,
	"split_from":           true,
	"source_document_id":   true,
	"pages":                true,
	"split_into":           true,
	"classified_by":        true,
}

// MarshalJSON writes known keys, the schema version and Extra as one object.
func (m Metadata) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(metadataFields(m))
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(m.Extra)+8)
	for k, v := range m.Extra {
		if !knownKeys[k] {
			out[k] = v
		}
	}

	var fields map[string]any
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	maps.Copy(out, fields)
	out[versionKey] = MetadataVersion

	return json.Marshal(out)
}

// UnmarshalJSON reads known keys into fields and keeps unknown keys in Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var fields metadataFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = Metadata(fields)
	for k, v := range raw {
		if knownKeys[k] {
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]any)
		}
		m.Extra[k] = v
	}
	return nil
}

// Merge copies values from other into fields that are still empty.
func (m *Metadata) Merge(other Metadata) {
	setString(&m.OriginalPath, other.OriginalPath)
	setString(&m.PeriodFolder, other.PeriodFolder)
	setInt(&m.PeriodYear, other.PeriodYear)
	setInt(&m.PeriodMonth, other.PeriodMonth)
	setStrings(&m.BarcodePayloads, other.BarcodePayloads)
	setString(&m.BarcodeError, other.BarcodeError)
	setString(&m.DetectedEmployeeID, other.DetectedEmployeeID)
	setString(&m.MandantCode, other.MandantCode)
	setString(&m.SplitFrom, other.SplitFrom)
	setString(&m.SourceDocumentID, other.SourceDocumentID)
	if len(m.Pages) == 0 && len(other.Pages) > 0 {
		m.Pages = slices.Clone(other.Pages)
	}
	setStrings(&m.SplitInto, other.SplitInto)
	setString(&m.ClassifiedBy, other.ClassifiedBy)

	for k, v := range other.Extra {
		if knownKeys[k] {
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]any)
		}
		if _, ok := m.Extra[k]; !ok {
			m.Extra[k] = v
		}
	}
}

// Lineage returns a copy of m as inherited by a document derived from it:
// origin and period keys are kept, per-document detection keys are dropped.
func (m Metadata) Lineage() Metadata {
	return Metadata{
		OriginalPath: m.OriginalPath,
		PeriodFolder: m.PeriodFolder,
		PeriodYear:   m.PeriodYear,
		PeriodMonth:  m.PeriodMonth,
		MandantCode:  m.MandantCode,
		Extra:        maps.Clone(m.Extra),
	}
}

// ParsePeriod reads a YYYYMM folder name. Years outside 2000-2100 and
// months outside 1-12 are rejected.
func ParsePeriod(folder string) (year, month int, ok bool) {
	if len(folder) != 6 {
		return 0, 0, false
	}
	n, err := strconv.Atoi(folder)
	if err != nil || n < 0 {
		return 0, 0, false
	}
	year, month = n/100, n%100
	if year < 2000 || year > 2100 || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

func setString(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if *dst == 0 && v != 0 {
		*dst = v
	}
}

func setStrings(dst *[]string, v []string) {
	if len(*dst) == 0 && len(v) > 0 {
		*dst = slices.Clone(v)
	}
}
