// Package manifest implements the XML-manifest-splice collaborator
// described in spec §6: "edits one record's payload in-place between
// decode and encode; the codec is agnostic to payload content."
//
// The original source (original_source/src/main.rs) does this with a
// raw string search for "</ResourceManifest>" and a substring splice.
// This package gets the same effect without assuming the closing tag
// is spelled a particular way in whitespace or attribute order: it
// walks the document with encoding/xml's tokenizer to find the byte
// offset of the root element's closing tag, then inserts the fragment
// immediately before it. It is deliberately not a general XML
// processor — spec's Non-goals exclude "schema validation of mod
// metadata beyond what the codec requires", and this package parses
// only enough structure to find one insertion point.
package manifest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// Splicer edits one pak.Record's payload, inserting a fragment into an
// existing XML document. Concrete Splicers are deliberately unaware of
// pak.Archive or pak.Record; the driver is responsible for pulling a
// record's Data out, calling Splice, and writing the result back.
type Splicer interface {
	Splice(doc, fragment []byte) ([]byte, error)
}

// ErrRootElementNotFound means the document never opened (and
// therefore never closed) the element RootElementSplicer is looking for.
var ErrRootElementNotFound = fmt.Errorf("manifest: root element not found")

// RootElementSplicer inserts a fragment immediately before the closing
// tag of a named top-level element, matching the
// "</ResourceManifest>"-relative insertion the original driver
// performs on properties\resources.xml.
type RootElementSplicer struct {
	// RootElement is the element name to splice before the close of.
	// Defaults to "ResourceManifest" when empty.
	RootElement string
}

// Splice returns a copy of doc with fragment inserted immediately
// before the first closing tag of s.RootElement at depth 1 (i.e. the
// document's own root element, not a same-named descendant).
func (s RootElementSplicer) Splice(doc, fragment []byte) ([]byte, error) {
	root := s.RootElement
	if root == "" {
		root = "ResourceManifest"
	}

	offset, err := closingTagOffset(doc, root)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(doc)+len(fragment))
	out = append(out, doc[:offset]...)
	out = append(out, fragment...)
	out = append(out, doc[offset:]...)
	return out, nil
}

// closingTagOffset returns the byte offset in doc of the start of the
// root element's closing tag (e.g. the position of "</ResourceManifest>").
func closingTagOffset(doc []byte, root string) (int, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))

	depth := 0
	for {
		beforeTok := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("manifest: parse: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			_ = t
		case xml.EndElement:
			if depth == 1 && t.Name.Local == root {
				return int(beforeTok), nil
			}
			depth--
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrRootElementNotFound, root)
}
