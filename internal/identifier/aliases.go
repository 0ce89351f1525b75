package identifier

import (
	"strconv"
	"strings"
)

// The OCR provider does not guarantee one canonical key per field; the same
// value shows up under different names depending on the document template it
// saw. Every alias list lives here so the accepted spellings are auditable in
// one place and testable apart from the matching logic.
var (
	JourneyNumberKeys = []string{
		"journeyNumber", "journey_number", "lrNumber", "lr_number", "lrNo",
		"lr_no", "LRNumber", "consignmentNumber", "consignment_number",
	}

	LoadIDKeys = []string{
		"loadId", "load_id", "lcuNumber", "lcu_number", "lcuNo", "lcu_no",
		"loadNumber", "load_number",
	}

	VehicleNumberKeys = []string{
		"vehicleNumber", "vehicle_number", "vehicleNo", "vehicle_no",
		"truckNumber", "truck_number",
	}

	BaseFreightKeys = []string{
		"baseFreight", "base_freight", "freightAmount", "freight_amount",
		"freightCharges", "freight",
	}

	TollChargeKeys = []string{
		"tollCharge", "toll_charge", "tollCharges", "toll_charges", "toll",
	}

	UnloadingChargeKeys = []string{
		"unloadingCharge", "unloading_charge", "unloadingCharges",
		"unloading_charges", "unloading",
	}

	TotalAmountKeys = []string{
		"totalAmount", "total_amount", "invoiceTotal", "invoice_total",
		"grandTotal", "grand_total", "total",
	}

	ConfidenceKeys = []string{
		"confidence", "confidenceScore", "confidence_score",
	}
)

// FirstString probes fields under each alias in order and returns the first
// value whose coerced string form is non-empty.
func FirstString(fields map[string]any, aliases []string) (string, bool) {
	for _, key := range aliases {
		v, ok := fields[key]
		if !ok {
			continue
		}
		s := strings.TrimSpace(coerceString(v))
		if s != "" {
			return s, true
		}
	}
	return "", false
}

// FirstNumber probes fields under each alias in order and returns the first
// value that parses as a number. String-typed amounts with currency noise
// ("₹ 47,727.03") are tolerated.
func FirstNumber(fields map[string]any, aliases []string) (float64, bool) {
	for _, key := range aliases {
		v, ok := fields[key]
		if !ok {
			continue
		}
		if n, ok := AsNumber(v); ok {
			return n, true
		}
	}
	return 0, false
}

// AsNumber coerces a loosely typed OCR value to a float64.
func AsNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		var b strings.Builder
		for _, r := range s {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				b.WriteRune(r)
			}
		}
		n, err := strconv.ParseFloat(b.String(), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
