package engine

import (
	"psy-assess/internal/catalog"
	"psy-assess/internal/domain"
)

// femaleVariants traduce ids neutrales a su variante femenina. Ningún valor es
// a su vez clave, por eso Remap es idempotente.
var femaleVariants = map[string]string{
	"alpha":            "alpha_female",
	"alpha_xi":         "alpha_xi_female",
	"alpha_rho":        "alpha_xi_female",
	"dark_alpha":       "dark_alpha_female",
	"beta":             "beta_female",
	"beta_iota":        "alpha_unicorn_female",
	"beta_nu":          "beta_nu_female",
	"beta_manipulator": "beta_manipulator_female",
	"beta_kappa":       "beta_kappa_female",
	"gamma":            "gamma_female",
	"gamma_theta":      "gamma_theta_female",
	"dark_gamma":       "dark_gamma_female",
	"delta":            "delta_female",
	"delta_mu":         "delta_mu_female",
	"dark_delta":       "dark_delta_female",
	"sigma":            "sigma_female",
	"dark_sigma_zeta":  "dark_sigma_zeta_female",
	"omega":            "omega_female",
	"dark_omega":       "dark_omega_female",
	"phi":              "phi_female",
}

// femaleBase es la inversa para reglas que razonan sobre ids neutrales. Para
// alpha_xi_female, que tiene dos orígenes, gana alpha_xi.
var femaleBase = func() map[string]string {
	out := make(map[string]string, len(femaleVariants))
	for base, v := range femaleVariants {
		if _, taken := out[v]; taken && base+"_female" != v {
			continue
		}
		out[v] = base
	}
	return out
}()

// Remap devuelve el id efectivo de una categoría para el género de la corrida.
// Solo female tiene variantes; cualquier otro género es la identidad.
func Remap(g domain.Gender, id string) string {
	if g != domain.GenderFemale {
		return id
	}
	if v, ok := femaleVariants[id]; ok {
		return v
	}
	return id
}

// BaseID deshace Remap para un id ya traducido.
func BaseID(g domain.Gender, id string) string {
	if g != domain.GenderFemale {
		return id
	}
	if b, ok := femaleBase[id]; ok {
		return b
	}
	return id
}

// CategoryIDs devuelve las categorías que se inicializan para una corrida, en
// orden de catálogo y ya traducidas al género.
func CategoryIDs(cat *catalog.Catalog, g domain.Gender) []string {
	g = g.Resolved()
	seen := make(map[string]struct{}, len(cat.Categories))
	out := make([]string, 0, len(cat.Categories))
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, c := range cat.Categories {
		switch c.Gender {
		case domain.GenderUnset:
			add(Remap(g, c.ID))
		case g:
			add(c.ID)
		}
	}
	return out
}
