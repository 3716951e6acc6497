package validator

import (
	"testing"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"test@example.com", "user.name+1@domain.co", "a@b.cd"}
	invalid := []string{"test@", "@example.com", "test@.com", "test@com", "test@domain", " ", ""}
	for _, email := range valid {
		if !IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = false, want true", email)
		}
	}
	for _, email := range invalid {
		if IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = true, want false", email)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"maria@x.com", "maria@x.com"},
		{"  Maria@X.COM ", "maria@x.com"},
		{"JOSÉ@cafe.com", "josé@cafe.com"},
	}
	for _, c := range cases {
		got := NormalizeEmail(c.input)
		if got != c.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", c.input, got, c.want)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2023-01-01", "2000-12-31"}
	invalid := []string{"2023-13-01", "2023-01-32", "2023/01/01", "01-01-2023", ""}
	for _, s := range valid {
		_, ok := IsValidDate(s)
		if !ok {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		_, ok := IsValidDate(s)
		if ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestIsInSlice(t *testing.T) {
	slice := []string{"a", "b", "c"}
	if !IsInSlice("a", slice) {
		t.Errorf("IsInSlice('a') = false, want true")
	}
	if IsInSlice("d", slice) {
		t.Errorf("IsInSlice('d') = true, want false")
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "email", Message: "invalid"},
		{Field: "name", Message: "required"},
	}
	want := "email: invalid; name: required"
	if errs.Error() != want {
		t.Errorf("Error() = %q, want %q", errs.Error(), want)
	}
	m := errs.ToMap()
	if m["email"] != "invalid" || m["name"] != "required" {
		t.Errorf("ToMap() = %v", m)
	}
}

func TestValidationErrors_OrNil(t *testing.T) {
	var empty ValidationErrors
	if empty.OrNil() != nil {
		t.Errorf("OrNil() on empty list should be nil")
	}
	errs := ValidationErrors{{Field: "x", Message: "bad"}}
	if errs.OrNil() == nil {
		t.Errorf("OrNil() on non-empty list should not be nil")
	}
}

type structSample struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Status string `json:"status" validate:"omitempty,oneof=draft validated"`
	Month  int    `json:"month" validate:"gte=1,lte=12"`
}

func TestStruct(t *testing.T) {
	ok := structSample{Name: "Ana", Email: "ana@cafe.com", Status: "draft", Month: 3}
	if errs := Struct(ok); len(errs) != 0 {
		t.Errorf("Struct(valid) = %v, want no errors", errs)
	}

	bad := structSample{Email: "nope", Status: "paid", Month: 13}
	m := Struct(bad).ToMap()
	want := map[string]string{
		"name":   "is required",
		"email":  "must be a valid email",
		"status": "must be one of: draft, validated",
		"month":  "must be less than or equal to 12",
	}
	for field, msg := range want {
		if m[field] != msg {
			t.Errorf("Struct(bad)[%s] = %q, want %q", field, m[field], msg)
		}
	}
}
