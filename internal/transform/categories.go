package transform

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/forumlift/forumlift/internal/idmap"
	"github.com/forumlift/forumlift/internal/models"
)

// Categories restructures the legacy category tree: the archive container is
// elided (its descendants reattach as if it never existed), anything deeper
// than two levels is flattened to depth 1, and the names of categories
// squeezed out by the flattening are prefixed onto their descendants so the
// intermediate grouping is not silently lost.
func (t *Transformer) Categories(legacy []models.LegacyCategory) ([]models.Category, *models.StageReport) {
	report := &models.StageReport{}

	byID := make(map[int64]*models.LegacyCategory, len(legacy))
	for i := range legacy {
		byID[legacy[i].ID] = &legacy[i]
	}

	archiveID := int64(0)
	for i := range legacy {
		if legacy[i].Name == t.Cfg.ArchiveName {
			archiveID = legacy[i].ID
			break
		}
	}

	// Parents must be mapped before their children need them.
	ordered := make([]*models.LegacyCategory, 0, len(legacy))
	for i := range legacy {
		ordered = append(ordered, &legacy[i])
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Depth < ordered[j].Depth })

	var out []models.Category
	for _, lc := range ordered {
		chain := ancestorChain(lc, byID)

		// Dropping the archive node re-roots its subtree: descendants
		// keep only the part of their chain below it.
		filtered := chain
		if archiveID != 0 {
			for i, c := range chain {
				if c.ID == archiveID {
					filtered = chain[i+1:]
					break
				}
			}
		}

		// The archive container itself is the only category whose
		// filtered chain is empty; it does not migrate.
		if len(filtered) == 0 {
			report.Skipped++
			t.Log.WithFields(logrus.Fields{"legacy_id": lc.ID, "name": lc.Name}).
				Info("skipping archive container category")
			continue
		}

		root := filtered[0]

		name := lc.Name
		if len(filtered) > 2 {
			var prefix []string
			for _, mid := range filtered[1 : len(filtered)-1] {
				prefix = append(prefix, mid.Name)
			}
			name = strings.Join(prefix, " - ") + " - " + lc.Name
		}

		c := models.Category{
			ID:          t.Maps.MapID(idmap.KindCategories, lc.ID),
			LegacyID:    lc.ID,
			Name:        name,
			Description: lc.Description,
			SortOrder:   lc.SortOrder,
			CreatedAt:   lc.CreatedAt,
		}

		if root.ID != lc.ID {
			parentID := t.Maps.MapID(idmap.KindCategories, root.ID)
			c.ParentID = &parentID
		}

		slugCandidate := lc.Slug
		if slugCandidate == "" {
			slugCandidate = name
		}
		c.Slug = idmap.GenerateUniqueSlug(slugCandidate, t.categorySlugs)

		out = append(out, c)
		report.Created++
	}

	return out, report
}

// ancestorChain returns root-first ancestors of lc including lc itself.
// A dangling parent reference or a cycle cuts the walk short.
func ancestorChain(lc *models.LegacyCategory, byID map[int64]*models.LegacyCategory) []*models.LegacyCategory {
	var reversed []*models.LegacyCategory
	seen := map[int64]bool{}

	for cur := lc; cur != nil && !seen[cur.ID]; {
		seen[cur.ID] = true
		reversed = append(reversed, cur)
		if cur.ParentID == nil {
			break
		}
		cur = byID[*cur.ParentID]
	}

	chain := make([]*models.LegacyCategory, len(reversed))
	for i, c := range reversed {
		chain[len(reversed)-1-i] = c
	}
	return chain
}
