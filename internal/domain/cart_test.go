package domain

import "testing"

func sampleCart() Cart {
	return Cart{Items: []CartItem{
		{ProductID: 1, Name: "Cola", Price: 45, Quantity: 2},
		{ProductID: 2, Name: "Lemonade", Price: 40, Quantity: 1},
	}}
}

// The read-only accessors must work on a plain Cart value, since
// session snapshots hand carts around by value.
func TestCartAccessorsOnValue(t *testing.T) {
	cart := sampleCart()

	if total := cart.Total(); total != 130 {
		t.Errorf("expected total 130, got %d", total)
	}
	if count := cart.Count(); count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
	if cart.IsEmpty() {
		t.Error("expected non-empty cart")
	}
	if (Cart{}).IsEmpty() != true {
		t.Error("expected zero cart to be empty")
	}

	// Accessors must also chain off a function return without an
	// intermediate variable.
	if sampleCart().Count() != 3 {
		t.Error("expected count 3 from returned cart value")
	}
}

func TestCartFindAliasesBackingArray(t *testing.T) {
	cart := sampleCart()

	line := cart.Find(2)
	if line == nil {
		t.Fatal("expected to find product 2")
	}
	line.Quantity = 5

	if cart.Items[1].Quantity != 5 {
		t.Errorf("expected edit through Find to reach the cart, got quantity %d", cart.Items[1].Quantity)
	}
	if cart.Find(99) != nil {
		t.Error("expected nil for unknown product")
	}
}

func TestCartClear(t *testing.T) {
	cart := sampleCart()
	cart.Clear()

	if !cart.IsEmpty() {
		t.Error("expected cleared cart to be empty")
	}
	if cart.Items != nil {
		t.Errorf("expected nil items after clear, got %v", cart.Items)
	}
}
