// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package ner reads named entity recognition output and selects place names from it.
//
// Two sources are supported: tabular files with pre computed entities (ReadCSV) and
// chunked constituency trees (ParseTrees, ExtractSpans). Both produce EntityRecord
// values that Filter narrows down to the names worth geocoding.
package ner

import (
	"iter"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"
)

// EntityRecord is one classified span.
type EntityRecord struct {
	Name string
	Type string
	// Source is opaque location metadata, e.g. the remaining CSV columns or the
	// sentence number for tree extracted entities.
	Source map[string]string
}

// TagSet is a set of accepted entity labels.
//
// Membership is exact by default: "LOCATION" does not accept "location" nor
// "B-LOCATION". A set built with NewFoldedTagSet compares labels through
// NormalizeTag instead.
type TagSet struct {
	labels map[string]struct{}
	fold   bool
}

// NewTagSet builds a TagSet matching labels exactly. Empty labels are ignored.
func NewTagSet(labels ...string) TagSet {
	return newTagSet(false, labels)
}

// NewFoldedTagSet builds a TagSet that ignores case and IOB prefixes.
func NewFoldedTagSet(labels ...string) TagSet {
	return newTagSet(true, labels)
}

func newTagSet(fold bool, labels []string) TagSet {
	s := TagSet{labels: make(map[string]struct{}, len(labels)), fold: fold}

	for _, l := range labels {
		if l = s.canonical(l); l != "" {
			s.labels[l] = struct{}{}
		}
	}

	return s
}

// NormalizeTag upper-cases a label and removes IOB prefixes ("B-LOC" is "LOC").
func NormalizeTag(label string) string {
	label = strings.ToUpper(strings.TrimSpace(label))
	if strings.HasPrefix(label, "B-") || strings.HasPrefix(label, "I-") {
		label = label[2:]
	}

	return label
}

// canonical is the form under which label is stored and looked up.
func (s TagSet) canonical(label string) string {
	if s.fold {
		return NormalizeTag(label)
	}

	return label
}

// Folded reports whether the set ignores case and IOB prefixes.
func (s TagSet) Folded() bool {
	return s.fold
}

// Contains reports whether label is accepted.
func (s TagSet) Contains(label string) bool {
	_, ok := s.labels[s.canonical(label)]

	return ok
}

// Labels returns the accepted labels sorted.
func (s TagSet) Labels() []string {
	labels := make([]string, 0, len(s.labels))
	for l := range s.labels {
		labels = append(labels, l)
	}

	sort.Strings(labels)

	return labels
}

// Filter yields the Name of every record whose Type is accepted, in input order.
func Filter(records iter.Seq[EntityRecord], accepted TagSet) iter.Seq[string] {
	return func(yield func(string) bool) {
		for r := range records {
			if !accepted.Contains(r.Type) {
				continue
			}

			if !yield(r.Name) {
				return
			}
		}
	}
}

// Shuffle returns a shuffled copy of records. The same seed gives the same order.
func Shuffle(records []EntityRecord, seed uint64) []EntityRecord {
	out := slices.Clone(records)
	rng := rand.New(rand.NewPCG(seed, seed)) // #nosec G404 - presentation only

	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})

	return out
}
