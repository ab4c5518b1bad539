package portfolio

import (
	"net/http"

	"github.com/sonsunin65/portfolio-lugsana/pkg/models"
	"github.com/sonsunin65/portfolio-lugsana/pkg/store"
)

// handlePATree returns the performance agreement tree in one response:
//
//	[{...category, "indicators": [{...indicator, "works": [...], "images": [...]}]}]
//
// Each level is read with one query and joined in memory.
func (a *App) handlePATree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	read := func(name string) ([]store.Row, error) {
		return a.table.Select(ctx, name, store.Query{OrderBy: a.collections[name].OrderBy})
	}

	categories, err := read(models.CollectionPACategories)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	indicators, err := read(models.CollectionPAIndicators)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	works, err := read(models.CollectionPAWorks)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	images, err := read(models.CollectionPAImages)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	worksOf := groupBy(works, "indicator_id")
	imagesOf := groupBy(images, "indicator_id")
	for _, ind := range indicators {
		ind["works"] = nonNil(worksOf[ind.ID()])
		ind["images"] = nonNil(imagesOf[ind.ID()])
	}
	indicatorsOf := groupBy(indicators, "category_id")
	for _, cat := range categories {
		cat["indicators"] = nonNil(indicatorsOf[cat.ID()])
	}

	respondJSON(w, http.StatusOK, categories)
}

func groupBy(rows []store.Row, field string) map[string][]store.Row {
	out := make(map[string][]store.Row)
	for _, r := range rows {
		key := r.String(field)
		out[key] = append(out[key], r)
	}
	return out
}

func nonNil(rows []store.Row) []store.Row {
	if rows == nil {
		return []store.Row{}
	}
	return rows
}
