package engine

import (
	"math/rand"
	"testing"
)

func TestSortDescendingOrdersValues(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cells := make([]EvaluatedCell, 200)
	for i := range cells {
		cells[i] = EvaluatedCell{Cell: Cell{Col: i}, Value: int32(rng.Intn(1 << 20))}
	}
	SortDescending(cells)
	for i := 1; i < len(cells); i++ {
		if cells[i-1].Value < cells[i].Value {
			t.Fatalf("expected non-increasing values at %d: %d then %d", i, cells[i-1].Value, cells[i].Value)
		}
	}
}

func TestSortDescendingIsStable(t *testing.T) {
	cells := []EvaluatedCell{
		{Cell: Cell{Col: 0}, Value: 5},
		{Cell: Cell{Col: 1}, Value: 17},
		{Cell: Cell{Col: 2}, Value: 5},
		{Cell: Cell{Col: 3}, Value: 17},
		{Cell: Cell{Col: 4}, Value: 0},
		{Cell: Cell{Col: 5}, Value: 5},
	}
	SortDescending(cells)
	want := []int{1, 3, 0, 2, 5, 4}
	for i, col := range want {
		if cells[i].Cell.Col != col {
			t.Fatalf("expected column %d at position %d, got %v", col, i, cells)
		}
	}
}

func TestSortDescendingSmallInputs(t *testing.T) {
	SortDescending(nil)

	one := []EvaluatedCell{{Value: 3}}
	SortDescending(one)
	if one[0].Value != 3 {
		t.Fatalf("expected single element untouched")
	}

	two := []EvaluatedCell{{Cell: Cell{Col: 0}, Value: 1}, {Cell: Cell{Col: 1}, Value: 9}}
	SortDescending(two)
	if two[0].Value != 9 || two[1].Value != 1 {
		t.Fatalf("expected two elements swapped, got %v", two)
	}

	tied := []EvaluatedCell{{Cell: Cell{Col: 0}, Value: 4}, {Cell: Cell{Col: 1}, Value: 4}}
	SortDescending(tied)
	if tied[0].Cell.Col != 0 {
		t.Fatalf("expected tied pair kept in order, got %v", tied)
	}
}

func TestSortDescendingWideValues(t *testing.T) {
	cells := []EvaluatedCell{
		{Value: 0},
		{Value: MaxFinite},
		{Value: 0x10},
		{Value: 0xF},
		{Value: 2 * MaxFinite},
	}
	SortDescending(cells)
	want := []int32{2 * MaxFinite, MaxFinite, 0x10, 0xF, 0}
	for i, v := range want {
		if cells[i].Value != v {
			t.Fatalf("expected %d at %d, got %v", v, i, cells)
		}
	}
}

func TestSortDescendingPanicsOnNegative(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on negative value")
		}
	}()
	SortDescending([]EvaluatedCell{{Value: 1}, {Value: -1}, {Value: 2}})
}
