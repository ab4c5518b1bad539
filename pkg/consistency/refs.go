package consistency

import (
	"fmt"
	"iter"
	"slices"

	"github.com/sonsunin65/portfolio-lugsana/pkg/models"
	"github.com/sonsunin65/portfolio-lugsana/pkg/store"
)

// FieldKind tells how a field holds blob references.
type FieldKind int

const (
	// Single fields hold one URL or nothing.
	Single FieldKind = iota
	// Multi fields hold an ordered list of URLs.
	Multi
)

func (k FieldKind) String() string {
	switch k {
	case Single:
		return "single"
	case Multi:
		return "multi"
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// FieldSpec names a field that references blobs.
type FieldSpec struct {
	Name string
	Kind FieldKind
	// SkipIf, when set, excludes the field for rows it returns true for, e.g. a URL
	// column that holds an external link for some rows.
	SkipIf func(store.Row) bool
}

// SingleField is shorthand for FieldSpec{Name: name, Kind: Single}.
func SingleField(name string) FieldSpec {
	return FieldSpec{Name: name, Kind: Single}
}

// MultiField is shorthand for FieldSpec{Name: name, Kind: Multi}.
func MultiField(name string) FieldSpec {
	return FieldSpec{Name: name, Kind: Multi}
}

// ExtractBlobURLs yields the non-empty URLs held by row in the given fields, field by
// field and in stored order within a field. Duplicates are kept. A field with an
// unexpected shape is skipped and reported to onMalformed, which may be nil.
//
// Nothing is read until the sequence is iterated.
func ExtractBlobURLs(row store.Row, specs []FieldSpec, onMalformed func(*MalformedReferenceError)) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, spec := range specs {
			if spec.SkipIf != nil && spec.SkipIf(row) {
				continue
			}
			urls, err := fieldURLs(row[spec.Name], spec.Kind)
			if err != nil {
				if onMalformed != nil {
					onMalformed(&MalformedReferenceError{
						RecordID: row.ID(),
						Field:    spec.Name,
						Value:    row[spec.Name],
						Err:      err,
					})
				}
				continue
			}
			for _, u := range urls {
				if u == "" {
					continue
				}
				if !yield(u) {
					return
				}
			}
		}
	}
}

func fieldURLs(value any, kind FieldKind) ([]string, error) {
	switch kind {
	case Single:
		switch v := value.(type) {
		case nil:
			return nil, nil
		case string:
			return []string{v}, nil
		case *string:
			if v == nil {
				return nil, nil
			}
			return []string{*v}, nil
		}
		return nil, fmt.Errorf("expected a string")
	case Multi:
		return models.ToList(value)
	}
	return nil, fmt.Errorf("unknown field kind %v", kind)
}

// Dedupe returns the distinct values of seq in first-seen order.
func Dedupe(seq iter.Seq[string]) []string {
	seen := make(map[string]bool)
	var out []string
	for s := range seq {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// RemovedURLs returns the URLs in before that are absent from after, in before's order
// and without duplicates. These are the blobs to delete when a record's references are
// edited from before to after.
func RemovedURLs(before, after []string) []string {
	var out []string
	for _, u := range before {
		if u == "" || slices.Contains(after, u) || slices.Contains(out, u) {
			continue
		}
		out = append(out, u)
	}
	return out
}
