package engine

import (
	"sort"

	"psy-assess/internal/catalog"
	"psy-assess/internal/domain"
)

const topSubtypeCount = 5

// BuildInsights resume los análisis de cierre de fase: grupos núcleo (fase1),
// subtipos (fase2), sombra (fase3) y rasgos aspiracionales.
func BuildInsights(cat *catalog.Catalog, board *domain.ScoreBoard, g domain.Gender, aspirations []domain.AspirationAnswer, adj Adjustments) domain.PhaseInsights {
	out := domain.PhaseInsights{
		RespectPattern: string(adj.RespectPattern),
		ProvisionLevel: string(adj.ProvisionLevel),
	}

	for _, grp := range cat.Groups {
		seen := make(map[string]struct{}, len(grp.Members))
		total := 0.0
		for _, m := range grp.Members {
			id := Remap(g, m)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if s, ok := board.Get(id); ok {
				total += s.Phase(1)
			}
		}
		out.CoreGroups = append(out.CoreGroups, domain.GroupScore{GroupID: grp.ID, Score: total})
	}
	sort.SliceStable(out.CoreGroups, func(i, j int) bool { return out.CoreGroups[i].Score > out.CoreGroups[j].Score })

	for _, id := range board.IDs() {
		c, ok := cat.Category(id)
		if !ok {
			continue
		}
		s, _ := board.Get(id)
		if c.ParentType != "" && s.Phase(2) > 0 {
			out.TopSubtypes = append(out.TopSubtypes, domain.InsightEntry{ID: id, Name: c.Name, Score: s.Phase(2)})
		}
		if c.IsShadow && s.Phase(3) > 0 {
			out.Shadow = append(out.Shadow, domain.InsightEntry{ID: id, Name: c.Name, Score: s.Phase(3), Description: c.GrowthEdge})
		}
	}
	sort.SliceStable(out.TopSubtypes, func(i, j int) bool { return out.TopSubtypes[i].Score > out.TopSubtypes[j].Score })
	if len(out.TopSubtypes) > topSubtypeCount {
		out.TopSubtypes = out.TopSubtypes[:topSubtypeCount]
	}
	sort.SliceStable(out.Shadow, func(i, j int) bool { return out.Shadow[i].Score > out.Shadow[j].Score })

	counts := make(map[string]int)
	var order []string
	for _, a := range aspirations {
		for _, t := range a.Targets {
			id := Remap(g, t)
			if counts[id] == 0 {
				order = append(order, id)
			}
			counts[id]++
		}
	}
	for _, id := range order {
		e := domain.InsightEntry{ID: id, Name: id, Score: float64(counts[id])}
		if c, ok := cat.Category(id); ok {
			e.Name = c.Name
			e.Description = c.SocialRole
		}
		out.Aspirational = append(out.Aspirational, e)
	}
	return out
}
