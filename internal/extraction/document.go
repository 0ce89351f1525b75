// Package extraction defines the loosely typed result of OCR field extraction
// and the client port for the external extraction service.
package extraction

import (
	"strings"

	"github.com/smallbiznis/freightaudit/internal/identifier"
)

// Document is the bag of fields the OCR engine believed it found in one
// uploaded file. Nothing about its shape is guaranteed: any field may be
// absent, mistyped, or reported under an alternate key name, so all access
// goes through alias-probing helpers.
type Document struct {
	Fields map[string]any

	// Confidence is the extraction engine's own score in [0,1]. It says how
	// sure OCR was about the text, not whether a journey matched; the two
	// signals are kept apart on purpose.
	Confidence float64
}

// FromFields wraps a raw OCR response, lifting the confidence score out of
// the bag when present.
func FromFields(fields map[string]any) Document {
	doc := Document{Fields: fields}
	if fields == nil {
		doc.Fields = map[string]any{}
	}
	if c, ok := identifier.FirstNumber(doc.Fields, identifier.ConfidenceKeys); ok {
		if c >= 0 && c <= 1 {
			doc.Confidence = c
		}
	}
	return doc
}

// JourneyNumber returns the raw LR-number candidate, if any key alias held one.
func (d Document) JourneyNumber() (string, bool) {
	return identifier.FirstString(d.Fields, identifier.JourneyNumberKeys)
}

// LoadID returns the raw load-ID (LCU) candidate, if any key alias held one.
func (d Document) LoadID() (string, bool) {
	return identifier.FirstString(d.Fields, identifier.LoadIDKeys)
}

// VehicleNumber returns the extracted vehicle number, if present.
func (d Document) VehicleNumber() (string, bool) {
	return identifier.FirstString(d.Fields, identifier.VehicleNumberKeys)
}

// TotalAmount returns the invoiced total, if present.
func (d Document) TotalAmount() (float64, bool) {
	return identifier.FirstNumber(d.Fields, identifier.TotalAmountKeys)
}

// Charge resolves one charge amount. The structured breakdown keys are probed
// first; failing that, the flat charge list is scanned for an entry whose
// label matches. Returns false only when neither representation held a value.
func (d Document) Charge(aliases []string, label string) (float64, bool) {
	if n, ok := identifier.FirstNumber(d.Fields, aliases); ok {
		return n, true
	}
	for _, line := range d.chargeList() {
		if labelMatches(line.label, label) {
			return line.amount, true
		}
	}
	return 0, false
}

// UnclassifiedCharges returns flat-list entries whose labels match none of
// the known charge types. They are surfaced rather than dropped so the audit
// trail keeps everything the document billed.
func (d Document) UnclassifiedCharges(knownLabels []string) []NamedCharge {
	var out []NamedCharge
	for _, line := range d.chargeList() {
		known := false
		for _, label := range knownLabels {
			if labelMatches(line.label, label) {
				known = true
				break
			}
		}
		if !known {
			out = append(out, NamedCharge{Label: line.label, Amount: line.amount})
		}
	}
	return out
}

// NamedCharge is one entry from the document's flat charge list.
type NamedCharge struct {
	Label  string
	Amount float64
}

var chargeListKeys = []string{"charges", "chargeBreakdown", "charge_breakdown", "lineItems", "line_items"}

var chargeLabelKeys = []string{"chargeType", "charge_type", "type", "label", "description", "name"}

var chargeAmountKeys = []string{"amount", "value", "charge", "total"}

type flatCharge struct {
	label  string
	amount float64
}

func (d Document) chargeList() []flatCharge {
	var out []flatCharge
	for _, key := range chargeListKeys {
		raw, ok := d.Fields[key]
		if !ok {
			continue
		}
		entries, ok := raw.([]any)
		if !ok {
			continue
		}
		for _, entry := range entries {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			label, _ := identifier.FirstString(m, chargeLabelKeys)
			amount, okAmount := identifier.FirstNumber(m, chargeAmountKeys)
			if label == "" || !okAmount {
				continue
			}
			out = append(out, flatCharge{label: label, amount: amount})
		}
		if len(out) > 0 {
			return out
		}
	}
	return out
}

func labelMatches(got, want string) bool {
	g := identifier.Normalize(got)
	w := identifier.Normalize(want)
	if g == "" || w == "" {
		return false
	}
	return g == w || strings.Contains(g, w) || strings.Contains(w, g)
}
