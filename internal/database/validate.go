package database

import (
	"fmt"
	"strconv"
	"strings"

	"coffeeapi/internal/models"
)

// ValidateRoaster reports every empty required field of r. Whitespace-only
// values count as empty.
func ValidateRoaster(r models.Roaster) error {
	var missing []string
	if isBlank(r.Name) {
		missing = append(missing, "name")
	}
	if isBlank(r.URL) {
		missing = append(missing, "url")
	}
	if isBlank(r.Address) {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// ValidateNewCoffee reports every empty field of req
func ValidateNewCoffee(req models.NewCoffeeRequest) error {
	var missing []string
	if isBlank(req.CoffeeName) {
		missing = append(missing, "coffeeName")
	}
	if isBlank(req.RoastedBy) {
		missing = append(missing, "roastedBy")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// ParseID converts a path identifier into a roaster ID
func ParseID(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q is not an integer", ErrInvalidArgument, id)
	}
	return n, nil
}

// FoldName is the case folding every backend applies before comparing
// roaster and coffee names
func FoldName(name string) string {
	return strings.ToLower(name)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
