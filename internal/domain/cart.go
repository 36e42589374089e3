package domain

// CartItem is one line of a shopping session's cart. Name and Price are
// snapshots taken when the item was added, so later catalog edits do not
// change what the shopper agreed to pay.
type CartItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     Amount `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Cart is the ordered collection of items for one session.
type Cart struct {
	Items []CartItem `json:"items"`
}

// Total returns the sum of quantity times unit price across all items.
func (c Cart) Total() Amount {
	var total Amount
	for _, item := range c.Items {
		total += item.Price * Amount(item.Quantity)
	}
	return total
}

// Count returns the total number of units in the cart.
func (c Cart) Count() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart holds no units at all.
func (c Cart) IsEmpty() bool {
	return c.Count() == 0
}

// Find returns a pointer to the line for productID, or nil. The pointer
// aliases the cart's backing array, so edits through it are visible to
// the cart that produced it.
func (c Cart) Find(productID int64) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// Clear removes every item from the cart.
func (c *Cart) Clear() {
	c.Items = nil
}
