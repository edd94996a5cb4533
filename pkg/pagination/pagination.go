package pagination

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/dossier/pkg/query"
)

// SortFields decodes from either "name,-created_at" or a JSON array of
// {"field","descending"} objects.
type SortFields []query.SortField

func (s *SortFields) UnmarshalJSON(data []byte) error {
	var spec string
	if json.Unmarshal(data, &spec) == nil {
		*s = query.ParseSortFields(spec)
		return nil
	}

	var fields []query.SortField
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*s = fields
	return nil
}

// PageRequest selects one page of a listing. It arrives either as query
// parameters or embedded in a JSON search body.
type PageRequest struct {
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Search   *string    `json:"search,omitempty"`
	Sort     SortFields `json:"sort,omitempty"`
}

// Normalize clamps page and page size to cfg and trims the search term.
// A blank search is dropped; a long one is cut to MaxSearchLength runes.
func (r *PageRequest) Normalize(cfg Config) {
	r.Page = max(r.Page, 1)
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	r.PageSize = min(r.PageSize, cfg.MaxPageSize)
	r.Search = cleanSearch(r.Search, cfg.MaxSearchLength)
}

func cleanSearch(search *string, limit int) *string {
	if search == nil {
		return nil
	}
	s := strings.TrimSpace(*search)
	if s == "" {
		return nil
	}
	if runes := []rune(s); limit > 0 && len(runes) > limit {
		s = string(runes[:limit])
	}
	return &s
}

// PageRequestFromQuery reads page, page_size (alias limit), search (alias q)
// and sort, then normalizes the result.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := values.Get(k); v != "" {
				return v
			}
		}
		return ""
	}

	page, _ := strconv.Atoi(values.Get("page"))
	size, _ := strconv.Atoi(first("page_size", "limit"))
	search := first("search", "q")

	req := PageRequest{
		Page:     page,
		PageSize: size,
		Search:   &search,
		Sort:     query.ParseSortFields(values.Get("sort")),
	}
	req.Normalize(cfg)
	return req
}

// PageResult is the envelope every list endpoint returns.
type PageResult[T any] struct {
	Data       []T  `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPageResult derives TotalPages (at least 1) and HasNext from total.
// A nil data slice is returned as empty.
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	pages := 1
	if pageSize > 0 {
		pages = max((total+pageSize-1)/pageSize, 1)
	}
	if data == nil {
		data = []T{}
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}
