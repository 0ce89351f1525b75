package extraction

import "testing"

func TestFromFieldsLiftsConfidence(t *testing.T) {
	doc := FromFields(map[string]any{"confidence": 0.92})
	if doc.Confidence != 0.92 {
		t.Fatalf("confidence = %v, want 0.92", doc.Confidence)
	}
}

func TestFromFieldsIgnoresOutOfRangeConfidence(t *testing.T) {
	doc := FromFields(map[string]any{"confidence": 92.0})
	if doc.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0 for out-of-range value", doc.Confidence)
	}
}

func TestFromFieldsNilMap(t *testing.T) {
	doc := FromFields(nil)
	if doc.Fields == nil {
		t.Fatalf("expected non-nil field map")
	}
	if _, ok := doc.JourneyNumber(); ok {
		t.Fatalf("expected no journey number on empty document")
	}
}

func TestChargeStructuredBeatsFlatList(t *testing.T) {
	doc := FromFields(map[string]any{
		"baseFreight": 40000.0,
		"charges": []any{
			map[string]any{"chargeType": "Base Freight", "amount": 99999.0},
		},
	})

	got, ok := doc.Charge([]string{"baseFreight"}, "Base Freight")
	if !ok || got != 40000.0 {
		t.Fatalf("Charge = %v (%v), want structured value 40000", got, ok)
	}
}

func TestChargeFallsBackToFlatList(t *testing.T) {
	doc := FromFields(map[string]any{
		"charges": []any{
			map[string]any{"label": "Toll charges", "value": 5000.0},
		},
	})

	got, ok := doc.Charge([]string{"tollCharge"}, "Toll Charges")
	if !ok || got != 5000.0 {
		t.Fatalf("Charge = %v (%v), want flat-list value 5000", got, ok)
	}
}

func TestUnclassifiedCharges(t *testing.T) {
	doc := FromFields(map[string]any{
		"charges": []any{
			map[string]any{"chargeType": "Base Freight", "amount": 40000.0},
			map[string]any{"chargeType": "Detention Charges", "amount": 1200.0},
			map[string]any{"chargeType": "missing amount"},
		},
	})

	extras := doc.UnclassifiedCharges([]string{"Base Freight", "Toll Charges", "Unloading Charges"})
	if len(extras) != 1 {
		t.Fatalf("unclassified = %v, want one entry", extras)
	}
	if extras[0].Label != "Detention Charges" || extras[0].Amount != 1200.0 {
		t.Fatalf("unexpected unclassified entry: %+v", extras[0])
	}
}
