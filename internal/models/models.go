package models

// Roaster is a coffee-roasting business. Name is unique under
// case-insensitive comparison.
type Roaster struct {
	ID      int    `json:"id,omitempty"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Address string `json:"address"`
}

type Coffee struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
}

// CoffeeWithRoaster is one roaster-coffee association flattened for output
type CoffeeWithRoaster struct {
	CoffeeName string `json:"coffeeName"`
	RoastedBy  string `json:"roastedBy"`
}

// NewCoffeeRequest attributes a coffee to an existing roaster
type NewCoffeeRequest struct {
	CoffeeName string `json:"coffeeName"`
	RoastedBy  string `json:"roastedBy"`
}

type CreateRoasterRequest struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Address string `json:"address"`
}

// Roaster converts the request body into a roaster record without an ID
func (r CreateRoasterRequest) Roaster() Roaster {
	return Roaster{
		Name:    r.Name,
		URL:     r.URL,
		Address: r.Address,
	}
}
