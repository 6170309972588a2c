package store

import "testing"

func TestSortItemsForLocking(t *testing.T) {
	items := []OrderItemInput{
		{ProductID: 9, Quantity: 1},
		{ProductID: 3, Quantity: 2},
		{ProductID: 7, Quantity: 4},
	}

	sorted := sortItemsForLocking(items)

	wantIDs := []int64{3, 7, 9}
	for i, want := range wantIDs {
		if sorted[i].ProductID != want {
			t.Errorf("sorted[%d].ProductID = %d, want %d", i, sorted[i].ProductID, want)
		}
	}

	// The caller's slice must stay untouched.
	if items[0].ProductID != 9 || items[1].ProductID != 3 || items[2].ProductID != 7 {
		t.Errorf("input slice was mutated: %+v", items)
	}
}
