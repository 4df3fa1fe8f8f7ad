package validation

import "testing"

func TestValidators(t *testing.T) {
	v := Violations{}
	Required("name", "  ", v)
	PositiveFloat("price", 0, v)
	PositiveInt("quantity", -1, v)
	NonNegativeFloat("discount", -0.5, v)
	NonNegativeInt("stock_qty", 0, v)
	RangeFloat("tax_percent", 120, 0, 100, v)
	Email("email", "not-an-email", v)
	MinLength("password", "abc", 6, v)
	OneOf("role", "manager", []string{"admin", "cashier"}, v)

	want := map[string]string{
		"name":        "required",
		"price":       "must_be_positive",
		"quantity":    "must_be_positive",
		"discount":    "must_not_be_negative",
		"tax_percent": "out_of_range",
		"email":       "invalid_email",
		"password":    "too_short",
		"role":        "invalid_choice",
	}
	if len(v) != len(want) {
		t.Fatalf("got %d violations %v, want %d", len(v), v, len(want))
	}
	for field, reason := range want {
		if v[field] != reason {
			t.Errorf("%s: got %q want %q", field, v[field], reason)
		}
	}
}

func TestValidators_Pass(t *testing.T) {
	v := Violations{}
	Required("name", "Milk", v)
	PositiveFloat("price", 1.5, v)
	Email("email", "cashier@scanpos.test", v)
	Email("optional", "", v)
	OneOf("role", "cashier", []string{"admin", "cashier"}, v)
	if !v.Empty() {
		t.Errorf("expected no violations, got %v", v)
	}
}
