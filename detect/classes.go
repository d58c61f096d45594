package detect

import (
	"strings"
)

// labelAliases maps label spellings that differ between model vintages to
// one canonical form.
var labelAliases = map[string]string{
	"motorbike": "motorcycle",
}

// NormalizeLabel lowercases a class label and folds known aliases so the
// same physical class always counts under one name.
func NormalizeLabel(label string) string {

	label = strings.ToLower(strings.TrimSpace(label))

	if canon, ok := labelAliases[label]; ok {
		return canon
	}

	return label
}

// ClassFilter restricts detections to a set of class labels.
type ClassFilter struct {
	allow map[string]bool
}

// NewClassFilter builds a filter from the given labels.  Labels are
// normalized, so "Motorbike" and "motorcycle" configure the same class.  An
// empty label list admits every class.
func NewClassFilter(labels []string) *ClassFilter {

	f := &ClassFilter{
		allow: make(map[string]bool, len(labels)),
	}

	for _, label := range labels {
		f.allow[NormalizeLabel(label)] = true
	}

	return f
}

// Allows reports whether the label passes the filter.
func (f *ClassFilter) Allows(label string) bool {

	if len(f.allow) == 0 {
		return true
	}

	return f.allow[NormalizeLabel(label)]
}

// Filter returns the detections whose label passes the filter.
func (f *ClassFilter) Filter(dets []Detection) []Detection {

	if len(f.allow) == 0 {
		return dets
	}

	var res []Detection

	for _, det := range dets {
		if f.Allows(det.Label) {
			res = append(res, det)
		}
	}

	return res
}
