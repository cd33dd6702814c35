package model

// CatalogItem represents a single orderable book in the catalogue.
type CatalogItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Subject groups the candidate items offered for one subject.
type Subject struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Items []CatalogItem `json:"items"`
}

// Cart is the derived view of the current selection.
type Cart struct {
	Items []CatalogItem `json:"items"`
	Total int64         `json:"total"`
}

// Clone returns a copy of the cart that shares no memory with c.
func (c Cart) Clone() Cart {
	items := make([]CatalogItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items, Total: c.Total}
}

// IsEmpty reports whether the cart holds no items.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Lines converts the cart into wire book lines, one unit per item.
func (c Cart) Lines() []BookLine {
	lines := make([]BookLine, len(c.Items))
	for i, item := range c.Items {
		lines[i] = BookLine{
			ID:       item.ID,
			Title:    item.Name,
			Price:    item.Price,
			Quantity: 1,
		}
	}
	return lines
}
