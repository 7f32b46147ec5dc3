package engine

import (
	"testing"

	"psy-assess/internal/domain"
)

func TestRemap_Idempotent(t *testing.T) {
	ids := []string{"unknown", "gamma_nu", "beta_rho"}
	for base, variant := range femaleVariants {
		ids = append(ids, base, variant)
	}
	for _, id := range ids {
		once := Remap(domain.GenderFemale, id)
		if twice := Remap(domain.GenderFemale, once); twice != once {
			t.Fatalf("remap not idempotent for %q: %q then %q", id, once, twice)
		}
		if got := Remap(domain.GenderMale, id); got != id {
			t.Fatalf("male remap should be identity, %q -> %q", id, got)
		}
		if got := Remap(domain.GenderUnset, id); got != id {
			t.Fatalf("unset remap should be identity, %q -> %q", id, got)
		}
	}
}

func TestRemap_FemaleVariants(t *testing.T) {
	cases := map[string]string{
		"alpha":     "alpha_female",
		"alpha_rho": "alpha_xi_female",
		"beta_iota": "alpha_unicorn_female",
		"phi":       "phi_female",
		"gamma_pi":  "gamma_pi",
	}
	for in, want := range cases {
		if got := Remap(domain.GenderFemale, in); got != want {
			t.Fatalf("Remap(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBaseID(t *testing.T) {
	for base, variant := range femaleVariants {
		got := BaseID(domain.GenderFemale, variant)
		if Remap(domain.GenderFemale, got) != variant {
			t.Fatalf("BaseID(%q) = %q does not remap back", variant, got)
		}
		_ = base
	}
	if got := BaseID(domain.GenderFemale, "alpha_xi_female"); got != "alpha_xi" {
		t.Fatalf("expected alpha_xi for shared variant, got %q", got)
	}
	if got := BaseID(domain.GenderMale, "alpha_female"); got != "alpha_female" {
		t.Fatalf("male BaseID should be identity, got %q", got)
	}
}

func TestCategoryIDs(t *testing.T) {
	cat := testCatalog(t)

	male := CategoryIDs(cat, domain.GenderMale)
	if len(male) != 8 || male[0] != "alpha" {
		t.Fatalf("unexpected male ids %v", male)
	}
	for _, id := range male {
		if c, _ := cat.Category(id); c.Gender == domain.GenderFemale {
			t.Fatalf("female category %q in male run", id)
		}
	}

	female := CategoryIDs(cat, domain.GenderFemale)
	if len(female) != 8 || female[0] != "alpha_female" {
		t.Fatalf("unexpected female ids %v", female)
	}
	for _, id := range female {
		if id == "alpha" || id == "beta" {
			t.Fatalf("neutral id %q should be remapped in female run", id)
		}
	}
}
