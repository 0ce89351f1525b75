// Package reconcile computes the line-by-line variance between a journey's
// contracted charges (proforma) and the charges extracted from an invoice or
// POD document.
package reconcile

import (
	"github.com/smallbiznis/freightaudit/internal/extraction"
	"github.com/smallbiznis/freightaudit/internal/identifier"
	journeydomain "github.com/smallbiznis/freightaudit/internal/journey/domain"
)

// DecisionStatus is the reviewer's verdict on one charge line.
type DecisionStatus string

const (
	DecisionPending  DecisionStatus = "pending"
	DecisionAccepted DecisionStatus = "accepted"
	DecisionRejected DecisionStatus = "rejected"
)

// Standard charge types. The set is fixed; it is never derived from whatever
// keys the OCR provider happened to return.
const (
	ChargeBaseFreight     = "Base Freight"
	ChargeTollCharges     = "Toll Charges"
	ChargeUnloadingCharge = "Unloading Charges"
)

// ChargeLine is one component of a charge comparison. ContractedAmount and
// Variance are nil when no contract exists for the journey; the invoiced
// amount is still reported so a reviewer can see what was charged.
type ChargeLine struct {
	ChargeType       string         `json:"charge_type"`
	ContractedAmount *float64       `json:"contracted_amount"`
	InvoiceAmount    float64        `json:"invoice_amount"`
	Variance         *float64       `json:"variance"`
	DecisionStatus   DecisionStatus `json:"decision_status"`
}

// Comparison is the full reconciliation of one document against one proforma.
// TotalVariance is computed from the totals independently of the line-level
// sum; when the two diverge that is a data-quality signal, not an error.
type Comparison struct {
	Lines           []ChargeLine `json:"lines"`
	Unclassified    []ChargeLine `json:"unclassified,omitempty"`
	ContractedTotal *float64     `json:"contracted_total"`
	InvoiceTotal    float64      `json:"invoice_total"`
	TotalVariance   *float64     `json:"total_variance"`
}

type standardLine struct {
	chargeType string
	aliases    []string
	contracted func(*journeydomain.Proforma) float64
}

var standardLines = []standardLine{
	{ChargeBaseFreight, identifier.BaseFreightKeys, func(p *journeydomain.Proforma) float64 { return p.BaseFreight }},
	{ChargeTollCharges, identifier.TollChargeKeys, func(p *journeydomain.Proforma) float64 { return p.TollCharge }},
	{ChargeUnloadingCharge, identifier.UnloadingChargeKeys, func(p *journeydomain.Proforma) float64 { return p.UnloadingCharge }},
}

// Reconcile compares the extracted charges against the proforma. A nil
// proforma (no contract, or an unmatched document) yields nil contracted
// amounts and variances on every line. Sign convention: positive variance
// means the invoice overcharges relative to contract.
func Reconcile(proforma *journeydomain.Proforma, doc extraction.Document) Comparison {
	cmp := Comparison{Lines: make([]ChargeLine, 0, len(standardLines))}

	knownLabels := make([]string, 0, len(standardLines))
	for _, std := range standardLines {
		knownLabels = append(knownLabels, std.chargeType)

		invoiceAmount, _ := doc.Charge(std.aliases, std.chargeType)
		line := ChargeLine{
			ChargeType:     std.chargeType,
			InvoiceAmount:  invoiceAmount,
			DecisionStatus: DecisionPending,
		}
		if proforma != nil {
			contracted := std.contracted(proforma)
			variance := invoiceAmount - contracted
			line.ContractedAmount = &contracted
			line.Variance = &variance
		}
		cmp.Lines = append(cmp.Lines, line)
	}

	// Unknown charge types from the document are surfaced rather than
	// silently dropped; they never map onto a standard line.
	for _, extra := range doc.UnclassifiedCharges(knownLabels) {
		cmp.Unclassified = append(cmp.Unclassified, ChargeLine{
			ChargeType:     extra.Label,
			InvoiceAmount:  extra.Amount,
			DecisionStatus: DecisionPending,
		})
	}

	if total, ok := doc.TotalAmount(); ok {
		cmp.InvoiceTotal = total
	}
	if proforma != nil {
		contractedTotal := proforma.TotalAmount
		totalVariance := cmp.InvoiceTotal - contractedTotal
		cmp.ContractedTotal = &contractedTotal
		cmp.TotalVariance = &totalVariance
	}

	return cmp
}

// ApplyDecisions folds recorded per-charge review decisions into the
// comparison so item views reflect the latest verdicts.
func (c *Comparison) ApplyDecisions(decisions map[string]DecisionStatus) {
	if len(decisions) == 0 {
		return
	}
	apply := func(lines []ChargeLine) {
		for i := range lines {
			if status, ok := decisions[lines[i].ChargeType]; ok {
				lines[i].DecisionStatus = status
			}
		}
	}
	apply(c.Lines)
	apply(c.Unclassified)
}
