package database

import (
	"errors"
	"reflect"
	"testing"

	"coffeeapi/internal/models"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    int
		wantErr bool
	}{
		{"valid positive", "123", 123, false},
		{"valid zero", "0", 0, false},
		{"valid large", "999999", 999999, false},
		{"valid beyond int4", "3000000000", 3000000000, false},
		{"invalid empty", "", 0, true},
		{"invalid letters", "abc", 0, true},
		{"invalid mixed", "12a3", 0, true},
		{"invalid float", "12.3", 0, true},
		{"invalid padded", " 7", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
				return
			}
			if err != nil && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("ParseID(%q) error = %v, want ErrInvalidArgument", tt.id, err)
			}
			if got != tt.want {
				t.Errorf("ParseID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestFoldName(t *testing.T) {
	pairs := [][2]string{
		{"Grindsmith", "GRINDSMITH"},
		{"Café Émile", "CAFÉ ÉMILE"},
		{"Ödön Kávé", "ödön kávé"},
	}
	for _, p := range pairs {
		if FoldName(p[0]) != FoldName(p[1]) {
			t.Errorf("FoldName(%q) = %q, FoldName(%q) = %q, want equal", p[0], FoldName(p[0]), p[1], FoldName(p[1]))
		}
	}
}

func TestValidateRoaster(t *testing.T) {
	tests := []struct {
		name    string
		roaster models.Roaster
		missing []string
	}{
		{"complete", models.Roaster{Name: "Curve Coffee", URL: "https://www.curveroasters.co.uk/", Address: "123 Street"}, nil},
		{"all empty", models.Roaster{}, []string{"name", "url", "address"}},
		{"blank name", models.Roaster{Name: "   ", URL: "https://a.example/", Address: "1 Street"}, []string{"name"}},
		{"missing url and address", models.Roaster{Name: "Curve Coffee", Address: "\t"}, []string{"url", "address"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoaster(tt.roaster)
			checkValidation(t, err, tt.missing)
		})
	}
}

func TestValidateNewCoffee(t *testing.T) {
	tests := []struct {
		name    string
		req     models.NewCoffeeRequest
		missing []string
	}{
		{"complete", models.NewCoffeeRequest{CoffeeName: "Good Coffee", RoastedBy: "Monmouth Coffee Company"}, nil},
		{"all empty", models.NewCoffeeRequest{}, []string{"coffeeName", "roastedBy"}},
		{"blank roaster", models.NewCoffeeRequest{CoffeeName: "Good Coffee", RoastedBy: " "}, []string{"roastedBy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidation(t, ValidateNewCoffee(tt.req), tt.missing)
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: []string{"name", "url"}}
	want := "invalid argument: empty required field(s): name, url"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection reset")
	err := StoreError("listing roasters", cause)

	if !errors.Is(err, ErrStoreFailure) {
		t.Error("StoreError does not wrap ErrStoreFailure")
	}
	if !errors.Is(err, cause) {
		t.Error("StoreError does not wrap the cause")
	}
	if want := "listing roasters: store failure: connection reset"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func checkValidation(t *testing.T, err error, missing []string) {
	t.Helper()
	if missing == nil {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		return
	}

	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %T, want *ValidationError", err)
	}
	if !reflect.DeepEqual(verr.Fields, missing) {
		t.Errorf("Fields = %v, want %v", verr.Fields, missing)
	}
}
