// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package ner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// ErrSyntax is wrapped by every tree parsing error.
var ErrSyntax = errors.New("tree syntax error")

// ParseTree parses a single tree in bracketed notation, e.g.
//
//	(S (GPE New/NNP York/NNP) is/VBZ big/JJ ./.)
//
// Leaves are token/POS pairs split at the last slash.
func ParseTree(s string) (*Group, error) {
	trees, err := ParseTrees(strings.NewReader(s))
	if err != nil {
		return nil, err
	}

	if len(trees) != 1 {
		return nil, fmt.Errorf("%w: expected one tree, found %d", ErrSyntax, len(trees))
	}

	return trees[0], nil
}

// ParseTrees reads a sequence of bracketed trees. Trees may span lines and are
// separated by white space.
func ParseTrees(r io.Reader) ([]*Group, error) {
	p := &treeParser{r: bufio.NewReader(r), line: 1}

	var trees []*Group

	for {
		tok, err := p.next()
		if errors.Is(err, io.EOF) {
			return trees, nil
		}

		if err != nil {
			return nil, err
		}

		if tok != "(" {
			return nil, p.errorf("unexpected %q outside a tree", tok)
		}

		tree, err := p.group()
		if err != nil {
			return nil, err
		}

		trees = append(trees, tree)
	}
}

type treeParser struct {
	r    *bufio.Reader
	line int
}

func (p *treeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, p.line, fmt.Sprintf(format, args...))
}

// next returns "(", ")" or an atom.
func (p *treeParser) next() (string, error) {
	var sb strings.Builder

	for {
		r, _, err := p.r.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				return sb.String(), nil
			}

			return "", err
		}

		switch {
		case r == '(' || r == ')':
			if sb.Len() > 0 {
				if err := p.r.UnreadRune(); err != nil {
					return "", err
				}

				return sb.String(), nil
			}

			return string(r), nil
		case unicode.IsSpace(r):
			if r == '\n' {
				p.line++
			}

			if sb.Len() > 0 {
				return sb.String(), nil
			}
		default:
			sb.WriteRune(r)
		}
	}
}

// group parses what follows an opening bracket.
func (p *treeParser) group() (*Group, error) {
	label, err := p.next()
	if errors.Is(err, io.EOF) {
		return nil, p.errorf("unterminated tree")
	}

	if err != nil {
		return nil, err
	}

	if label == "(" || label == ")" {
		return nil, p.errorf("missing label")
	}

	g := &Group{Label: label}

	for {
		tok, err := p.next()
		if errors.Is(err, io.EOF) {
			return nil, p.errorf("unterminated tree %q", label)
		}

		if err != nil {
			return nil, err
		}

		switch tok {
		case ")":
			return g, nil
		case "(":
			child, err := p.group()
			if err != nil {
				return nil, err
			}

			g.Children = append(g.Children, child)
		default:
			g.Children = append(g.Children, parseLeaf(tok))
		}
	}
}

func parseLeaf(atom string) *Leaf {
	i := strings.LastIndexByte(atom, '/')
	if i <= 0 {
		return &Leaf{Token: atom}
	}

	return &Leaf{Token: atom[:i], POS: atom[i+1:]}
}
