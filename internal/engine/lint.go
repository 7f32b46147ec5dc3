package engine

import (
	"fmt"

	"psy-assess/internal/catalog"
	"psy-assess/internal/domain"
)

// Lint revisa un catálogo cargado y devuelve los problemas que al puntuar se
// registrarían y omitirían. Un catálogo con problemas sigue siendo utilizable.
func Lint(cat *catalog.Catalog) []IntegrityIssue {
	var issues []IntegrityIssue
	known := func(id string) bool {
		return cat.HasCategory(id) || cat.HasCategory(Remap(domain.GenderFemale, id))
	}

	for _, c := range cat.Categories {
		for _, sub := range c.Subtypes {
			if !cat.HasCategory(sub) {
				issues = append(issues, IntegrityIssue{Category: c.ID, Reason: fmt.Sprintf("unknown subtype %q", sub)})
			}
		}
		if c.ParentType != "" && !cat.HasCategory(c.ParentType) {
			issues = append(issues, IntegrityIssue{Category: c.ID, Reason: fmt.Sprintf("unknown parent %q", c.ParentType)})
		}
		if c.Gender == domain.GenderUnset {
			if v := Remap(domain.GenderFemale, c.ID); v != c.ID && !cat.HasCategory(v) {
				issues = append(issues, IntegrityIssue{Category: c.ID, Reason: fmt.Sprintf("female variant %q missing", v)})
			}
		}
	}
	for _, g := range cat.Groups {
		for _, m := range g.Members {
			if !cat.HasCategory(m) {
				issues = append(issues, IntegrityIssue{Category: m, Reason: fmt.Sprintf("member of group %q is unknown", g.ID)})
			}
		}
	}

	lintQuestion := func(q domain.Question) {
		if q.Type.IsScale() && !q.IsContextOnly() && len(q.Categories) == 0 {
			issues = append(issues, IntegrityIssue{QuestionID: q.ID, Option: -1, Reason: "scale question has no categories"})
		}
		for _, wc := range q.Categories {
			if !known(wc.ID) {
				issues = append(issues, IntegrityIssue{QuestionID: q.ID, Option: -1, Category: wc.ID, Reason: "unknown category"})
			}
		}
		for i, o := range q.Options {
			if len(o.Categories) == 0 && !q.IsAspiration {
				issues = append(issues, IntegrityIssue{QuestionID: q.ID, Option: i, Reason: "option has no categories"})
			}
			for _, id := range o.Categories {
				if !known(id) {
					issues = append(issues, IntegrityIssue{QuestionID: q.ID, Option: i, Category: id, Reason: "unknown category"})
				}
			}
			if q.IsAspiration {
				if o.AspirationTarget == "" {
					issues = append(issues, IntegrityIssue{QuestionID: q.ID, Option: i, Reason: "aspiration option without target"})
				} else if !known(o.AspirationTarget) {
					issues = append(issues, IntegrityIssue{QuestionID: q.ID, Option: i, Category: o.AspirationTarget, Reason: "unknown aspiration target"})
				}
			}
		}
	}
	for _, p := range cat.Phases {
		for _, q := range p.Questions {
			lintQuestion(q)
		}
		for _, g := range []domain.Gender{domain.GenderMale, domain.GenderFemale} {
			for _, q := range p.ByGender[g] {
				lintQuestion(q)
			}
		}
	}
	return issues
}
