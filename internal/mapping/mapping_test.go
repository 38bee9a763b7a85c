package mapping

import (
	"reflect"
	"testing"

	"sheetsync/internal/model"
)

func TestSuggestExactMatchFirst(t *testing.T) {
	got := Suggest("status", []string{"Status Info", "status"})
	if len(got) == 0 {
		t.Fatal("expected suggestions")
	}
	if got[0] != "status" {
		t.Errorf("exact match should be first, got %q", got[0])
	}
}

func TestSuggestCaseInsensitive(t *testing.T) {
	got := Suggest("customer_name", []string{"Customer_Name"})
	if len(got) != 1 || got[0] != "Customer_Name" {
		t.Errorf("expected case-insensitive exact match, got %v", got)
	}
}

func TestSuggestUnderscoreInsensitive(t *testing.T) {
	got := Suggest("customer_name", []string{"customername", "Customer Name"})
	if len(got) != 2 {
		t.Fatalf("expected both underscore-insensitive matches, got %v", got)
	}
}

func TestSuggestCap(t *testing.T) {
	sources := []string{"id", "ids", "idx", "grid", "paid", "valid", "rigid"}
	got := Suggest("id", sources)
	if len(got) != MaxSuggestions {
		t.Errorf("expected cap of %d suggestions, got %d: %v", MaxSuggestions, len(got), got)
	}
	if got[0] != "id" {
		t.Errorf("exact match should survive the cap in first position, got %q", got[0])
	}
}

func TestSuggestDedup(t *testing.T) {
	// "status" matches tier 1 and tier 2; it must appear once.
	got := Suggest("status", []string{"status"})
	if !reflect.DeepEqual(got, []string{"status"}) {
		t.Errorf("expected deduplicated [status], got %v", got)
	}
}

func TestSuggestKoreanSynonyms(t *testing.T) {
	got := Suggest("customer_name", []string{"고객명", "기타"})
	if !reflect.DeepEqual(got, []string{"고객명"}) {
		t.Errorf("expected synonym match [고객명], got %v", got)
	}
}

func TestSuggestNoMatch(t *testing.T) {
	if got := Suggest("vehicle_no", []string{"알수없음"}); len(got) != 0 {
		t.Errorf("expected no suggestions, got %v", got)
	}
}

func TestAutoMapKoreanHeaders(t *testing.T) {
	destCols := []string{"id", "customer_name", "customer_phone", "tour_date", "status"}
	sourceCols := []string{"예약번호", "고객명"}

	got := AutoMap(destCols, sourceCols)
	want := model.ColumnMapping{"예약번호": "id", "고객명": "customer_name"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AutoMap = %v, want %v", got, want)
	}
}

func TestAssignClearsPriorOwner(t *testing.T) {
	m := model.ColumnMapping{"colA": "id"}
	Assign(m, "colB", "id")

	if _, ok := m["colA"]; ok {
		t.Error("expected prior owner of id to be cleared")
	}
	if m["colB"] != "id" {
		t.Errorf("expected colB -> id, got %v", m)
	}
}

func TestAssignReassignSameSource(t *testing.T) {
	m := model.ColumnMapping{"colA": "id"}
	Assign(m, "colA", "id")
	if len(m) != 1 || m["colA"] != "id" {
		t.Errorf("re-assigning the same pair should be a no-op, got %v", m)
	}
}

func TestResolveUniqueHigherConfidenceWins(t *testing.T) {
	// "id" is an exact match for id but only a substring match for
	// tour_id, so id claims it and tour_id gets nothing.
	got := ResolveUnique([]string{"tour_id", "id"}, []string{"id"})
	want := model.ColumnMapping{"id": "id"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveUnique = %v, want %v", got, want)
	}
}

func TestResolveUniqueTieEarlierColumnWins(t *testing.T) {
	// "customer" is a substring match for both; the earlier destination
	// column takes it.
	got := ResolveUnique([]string{"customer_name", "customer_phone"}, []string{"customer"})
	want := model.ColumnMapping{"customer": "customer_name"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveUnique = %v, want %v", got, want)
	}
}

func TestResolveUniqueDestinationAppearsOnce(t *testing.T) {
	destCols := []string{"id", "customer_name", "customer_phone", "status"}
	sourceCols := []string{"ID", "Customer Name", "Customer Phone", "Status", "상태"}

	got := ResolveUnique(destCols, sourceCols)

	seen := map[string]bool{}
	for _, dest := range got {
		if seen[dest] {
			t.Fatalf("destination %q mapped twice in %v", dest, got)
		}
		seen[dest] = true
	}
}
