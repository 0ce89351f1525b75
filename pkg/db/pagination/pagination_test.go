package pagination

import "testing"

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2026-03-14T09:00:00Z"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	cursor, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cursor.ID != "42" || cursor.CreatedAt != "2026-03-14T09:00:00Z" {
		t.Fatalf("cursor = %+v", cursor)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	if _, err := DecodeCursor("!!!not-base64!!!"); err == nil {
		t.Fatalf("expected error for invalid token")
	}
}

func TestTrimPage(t *testing.T) {
	rows := []int{1, 2, 3, 4}

	trimmed, more := TrimPage(rows, 3)
	if !more || len(trimmed) != 3 {
		t.Fatalf("trimmed = %v, more = %v", trimmed, more)
	}

	trimmed, more = TrimPage(rows, 10)
	if more || len(trimmed) != 4 {
		t.Fatalf("trimmed = %v, more = %v", trimmed, more)
	}
}
