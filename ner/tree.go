// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package ner

import (
	"strconv"
	"strings"
)

// NodeKind discriminates the two node variants of a chunk tree.
type NodeKind int

const (
	// LeafNode is a token with its part of speech.
	LeafNode NodeKind = iota
	// GroupNode is a labeled sub tree.
	GroupNode
)

// Node is either a *Leaf or a *Group.
type Node interface {
	Kind() NodeKind
	// Tokens returns the leaf tokens under the node, left to right.
	Tokens() []string
}

// Leaf is a token tagged with its part of speech.
type Leaf struct {
	Token string
	POS   string
}

// Kind implements Node.
func (*Leaf) Kind() NodeKind { return LeafNode }

// Tokens implements Node.
func (l *Leaf) Tokens() []string { return []string{l.Token} }

// Group is a labeled sub tree, e.g. (GPE New/NNP York/NNP).
type Group struct {
	Label    string
	Children []Node
}

// Kind implements Node.
func (*Group) Kind() NodeKind { return GroupNode }

// Tokens implements Node.
func (g *Group) Tokens() []string {
	var tokens []string
	for _, c := range g.Children {
		tokens = append(tokens, c.Tokens()...)
	}

	return tokens
}

// Text joins the group tokens with single spaces.
func (g *Group) Text() string {
	return strings.Join(g.Tokens(), " ")
}

// Span is an entity found by ExtractSpans.
type Span struct {
	Text string `json:"text"`
	// Label of the first group of the run.
	Label string `json:"label"`
}

// ExtractOptions tunes ExtractSpans.
type ExtractOptions struct {
	// FlushTrailing keeps a run that is still open when the sentence ends.
	// By default such a run is dropped.
	FlushTrailing bool
	// ResetOnDuplicate empties the run buffer when the closed run was already
	// emitted. By default the buffer is only emptied after an emitted run, so a
	// duplicate run carries over into the next one.
	ResetOnDuplicate bool
}

// ExtractSpans collects runs of adjacent accepted groups among the immediate
// children of tree.
//
// Consecutive accepted groups are merged into a single span, so
// (GPE New/NNP) (GPE York/NNP) gives "New York". A run is closed by the first
// node that is not an accepted group. Spans are deduplicated within the tree
// only. A closed run whose text was already emitted stays in the buffer, so
// "Paris or Paris or Rome ." gives "Paris" and "Paris Rome", unless
// opts.ResetOnDuplicate is set.
func ExtractSpans(tree *Group, accepted TagSet, opts ExtractOptions) []Span {
	var (
		spans []Span
		run   []string
		label string
	)

	seen := make(map[string]bool)

	closeRun := func() {
		text := strings.Join(run, " ")
		if seen[text] && !opts.ResetOnDuplicate {
			return
		}

		if !seen[text] {
			seen[text] = true
			spans = append(spans, Span{Text: text, Label: label})
		}

		run, label = nil, ""
	}

	for _, child := range tree.Children {
		switch n := child.(type) {
		case *Group:
			if accepted.Contains(n.Label) {
				if len(run) == 0 {
					label = accepted.canonical(n.Label)
				}

				run = append(run, n.Text())

				continue
			}
		}

		if len(run) > 0 {
			closeRun()
		}
	}

	if len(run) > 0 && opts.FlushTrailing {
		closeRun()
	}

	return spans
}

// ExtractEntities is ExtractSpans returning only the texts.
func ExtractEntities(tree *Group, accepted TagSet, opts ExtractOptions) []string {
	spans := ExtractSpans(tree, accepted, opts)

	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = s.Text
	}

	return names
}

// ExtractDocument runs ExtractEntities on every sentence and concatenates the
// results. The same entity may appear once per sentence.
func ExtractDocument(trees []*Group, accepted TagSet, opts ExtractOptions) []string {
	var names []string
	for _, t := range trees {
		names = append(names, ExtractEntities(t, accepted, opts)...)
	}

	return names
}

// TreeRecords converts the spans of every sentence into entity records. The
// sentence index is kept under the "sentence" source key.
func TreeRecords(trees []*Group, accepted TagSet, opts ExtractOptions) []EntityRecord {
	var records []EntityRecord

	for i, t := range trees {
		for _, s := range ExtractSpans(t, accepted, opts) {
			records = append(records, EntityRecord{
				Name:   s.Text,
				Type:   s.Label,
				Source: map[string]string{"sentence": strconv.Itoa(i)},
			})
		}
	}

	return records
}
