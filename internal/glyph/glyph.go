// Package glyph produces short deterministic fingerprints of recursor states.
//
// A glyph is the first 12 hex characters of sha256("<depth>:<canonical state>"),
// where the canonical state is the fixed JSON form from state.Canonical. Any
// implementation using the same canonical form yields byte-identical glyphs.
package glyph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"refengine/internal/state"
)

// Length is the number of hex characters kept from the digest.
const Length = 12

// Entry is one (depth, glyph) pair in a trace.
type Entry struct {
	Depth int    `json:"depth"`
	Glyph string `json:"glyph"`
}

// Glyph returns the fingerprint of s at depth. It has no side effects.
func Glyph(s state.State, depth int) string {
	sum := sha256.Sum256([]byte(strconv.Itoa(depth) + ":" + state.Canonical(s)))
	return hex.EncodeToString(sum[:])[:Length]
}

// Fingerprinter generates glyphs and keeps the ordered trace of every glyph
// it has produced. It is not safe for concurrent use; each recursor owns one.
type Fingerprinter struct {
	trace []Entry
}

// NewFingerprinter returns a Fingerprinter with an empty trace.
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{}
}

// Generate fingerprints s at depth and appends the result to the trace.
func (f *Fingerprinter) Generate(s state.State, depth int) string {
	g := Glyph(s, depth)
	f.trace = append(f.trace, Entry{Depth: depth, Glyph: g})
	return g
}

// Trace returns a copy of the accumulated trace, oldest first.
func (f *Fingerprinter) Trace() []Entry {
	out := make([]Entry, len(f.trace))
	copy(out, f.trace)
	return out
}

// Len returns the number of glyphs generated so far.
func (f *Fingerprinter) Len() int { return len(f.trace) }

// Last returns the most recent entry, if any.
func (f *Fingerprinter) Last() (Entry, bool) {
	if len(f.trace) == 0 {
		return Entry{}, false
	}
	return f.trace[len(f.trace)-1], true
}

// FormatTrace renders entries one per line as "Depth 00 → 1a2b3c4d5e6f".
func FormatTrace(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "Depth %02d → %s\n", e.Depth, e.Glyph)
	}
	return b.String()
}

// WriteTrace writes FormatTrace(entries) to w.
func WriteTrace(w io.Writer, entries []Entry) error {
	_, err := io.WriteString(w, FormatTrace(entries))
	return err
}
