package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/JaimeStill/dossier/internal/documents"
	"github.com/JaimeStill/dossier/internal/scopes"
)

var artifactNames = map[string]bool{
	"thumbs.db":   true,
	".ds_store":   true,
	"desktop.ini": true,
}

// IsArtifact reports whether name is an operating system or office
// temporary file that never holds a document.
func IsArtifact(name string) bool {
	lower := strings.ToLower(name)
	return artifactNames[lower] ||
		strings.HasPrefix(lower, "~$") ||
		strings.HasPrefix(lower, "._")
}

// Filter accepts files by extension allow-list and rejects artifacts.
type Filter struct {
	exts map[string]bool
}

func NewFilter(extensions []string) Filter {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}
	return Filter{exts: exts}
}

// Accept reports whether a file named name should be ingested.
func (f Filter) Accept(name string) bool {
	if IsArtifact(name) {
		return false
	}
	return f.exts[strings.ToLower(filepath.Ext(name))]
}

// Candidate is a file discovered by a walk, not yet checked against the
// ledger.
type Candidate struct {
	ScopeCode    string
	Path         string
	RelPath      string
	Name         string
	Size         int64
	PeriodFolder string
	PeriodYear   int
	PeriodMonth  int
}

// Metadata returns the document metadata derived from the file's location.
func (c Candidate) Metadata() documents.Metadata {
	return documents.Metadata{
		OriginalPath: c.RelPath,
		PeriodFolder: c.PeriodFolder,
		PeriodYear:   c.PeriodYear,
		PeriodMonth:  c.PeriodMonth,
	}
}

// Unreadable is a path a walk could not read. It is reported, not fatal.
type Unreadable struct {
	ScopeCode string
	Path      string
	Err       error
}

// Listing is the result of a walk: the accepted files plus every path that
// could not be read along the way.
type Listing struct {
	Candidates []Candidate
	Unreadable []Unreadable
}

// Walk lists every accepted file under root/<scope>/... in lexical order.
// Top-level entries that are not 8-digit scope folders are ignored. The
// period is taken from the first folder below the scope when it is a valid
// YYYYMM code. Only an unreadable root fails the walk; a folder or file
// that cannot be read is skipped and recorded in Listing.Unreadable.
func Walk(root string, filter Filter) (Listing, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return Listing{}, fmt.Errorf("%w: %w", ErrArchiveRoot, err)
	}

	var out Listing

	for _, entry := range entries {
		if !entry.IsDir() || !scopes.ValidCode(entry.Name()) {
			continue
		}

		code := entry.Name()
		skip := func(path string, err error) {
			out.Unreadable = append(out.Unreadable, Unreadable{ScopeCode: code, Path: path, Err: err})
		}

		_ = filepath.WalkDir(filepath.Join(root, code), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				skip(path, err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() || !filter.Accept(d.Name()) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				skip(path, err)
				return nil
			}

			rel, _ := filepath.Rel(root, path)
			rel = filepath.ToSlash(rel)

			c := Candidate{
				ScopeCode: code,
				Path:      path,
				RelPath:   rel,
				Name:      d.Name(),
				Size:      info.Size(),
			}

			parts := strings.Split(rel, "/")
			if len(parts) > 2 {
				if y, m, ok := documents.ParsePeriod(parts[1]); ok {
					c.PeriodFolder, c.PeriodYear, c.PeriodMonth = parts[1], y, m
				}
			}

			out.Candidates = append(out.Candidates, c)
			return nil
		})
	}

	return out, nil
}

// ListFlat lists accepted files directly inside dir, attributing them to
// scopeCode. Subdirectories are not descended into.
func ListFlat(dir, scopeCode, label string, filter Filter) (Listing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Listing{}, err
	}

	var out Listing
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !filter.Accept(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			out.Unreadable = append(out.Unreadable, Unreadable{ScopeCode: scopeCode, Path: path, Err: err})
			continue
		}
		out.Candidates = append(out.Candidates, Candidate{
			ScopeCode: scopeCode,
			Path:      path,
			RelPath:   label + "/" + entry.Name(),
			Name:      entry.Name(),
			Size:      info.Size(),
		})
	}
	return out, nil
}
