package portfolio

import (
	"github.com/sonsunin65/portfolio-lugsana/pkg/consistency"
	"github.com/sonsunin65/portfolio-lugsana/pkg/models"
	"github.com/sonsunin65/portfolio-lugsana/pkg/store"
)

// Collection describes how the API serves one table.
type Collection struct {
	Name string
	// Public collections are readable without the admin prefix.
	Public bool
	// OrderBy is the list order; rows tied on it keep insertion order.
	OrderBy []store.Order
	// PositionField is the column SyncOrder writes. Empty means the collection is not
	// reorderable.
	PositionField string
	// Strategy is the default reorder strategy.
	Strategy consistency.Strategy
	// ParentField is the foreign key list queries and reorders may be scoped by. A
	// replace of such a collection must be scoped by it.
	ParentField string
	// Replaceable collections accept ReplaceAll: the collection, or each parent's part
	// of it, is short and no other table references its rows.
	Replaceable bool
	// Tree is the cascade rooted at this collection. Its BlobFields are also the fields
	// diffed on update.
	Tree consistency.Node
}

// BlobFields returns the blob reference fields of the collection's own rows.
func (c *Collection) BlobFields() []consistency.FieldSpec {
	return c.Tree.BlobFields
}

// Reorderable reports whether SyncOrder may run on the collection.
func (c *Collection) Reorderable() bool {
	return c.PositionField != ""
}

func isLinkWork(r store.Row) bool {
	return r.String("work_type") == models.PAWorkTypeLink
}

func paWorksNode() consistency.Node {
	return consistency.Node{
		Collection: models.CollectionPAWorks,
		ForeignKey: "indicator_id",
		BlobFields: []consistency.FieldSpec{{Name: "url", Kind: consistency.Single, SkipIf: isLinkWork}},
	}
}

func paImagesNode() consistency.Node {
	return consistency.Node{
		Collection: models.CollectionPAImages,
		ForeignKey: "indicator_id",
		BlobFields: []consistency.FieldSpec{consistency.SingleField("image_url")},
	}
}

func paIndicatorNode(foreignKey string) consistency.Node {
	return consistency.Node{
		Collection: models.CollectionPAIndicators,
		ForeignKey: foreignKey,
		Children:   []consistency.Node{paWorksNode(), paImagesNode()},
	}
}

func paCategoryNode() consistency.Node {
	return consistency.Node{
		Collection: models.CollectionPACategories,
		Children:   []consistency.Node{paIndicatorNode("category_id")},
	}
}

func byPosition(field string) []store.Order {
	return []store.Order{{Field: field}}
}

// DefaultCollections returns the portfolio's collections keyed by name.
func DefaultCollections() map[string]*Collection {
	list := []*Collection{
		{
			Name:   models.CollectionProfiles,
			Public: true,
			Tree: consistency.Node{
				Collection: models.CollectionProfiles,
				BlobFields: []consistency.FieldSpec{consistency.SingleField("image_url")},
			},
		},
		{
			Name:          models.CollectionStats,
			Public:        true,
			OrderBy:       byPosition(consistency.DefaultPositionField),
			PositionField: consistency.DefaultPositionField,
			Strategy:      consistency.ReplaceAll,
			Replaceable:   true,
			Tree:          consistency.Node{Collection: models.CollectionStats},
		},
		{
			Name:          models.CollectionHighlights,
			Public:        true,
			OrderBy:       byPosition(consistency.DefaultPositionField),
			PositionField: consistency.DefaultPositionField,
			Strategy:      consistency.ReplaceAll,
			Replaceable:   true,
			Tree:          consistency.Node{Collection: models.CollectionHighlights},
		},
		{
			Name:          models.CollectionWorks,
			Public:        true,
			OrderBy:       byPosition(consistency.DefaultPositionField),
			PositionField: consistency.DefaultPositionField,
			Tree: consistency.Node{
				Collection: models.CollectionWorks,
				BlobFields: []consistency.FieldSpec{consistency.SingleField("file_url"), consistency.MultiField("images")},
			},
		},
		{
			Name:          models.CollectionActivities,
			Public:        true,
			OrderBy:       byPosition(consistency.DefaultPositionField),
			PositionField: consistency.DefaultPositionField,
			Tree: consistency.Node{
				Collection: models.CollectionActivities,
				BlobFields: []consistency.FieldSpec{consistency.MultiField("images"), consistency.SingleField("file_url")},
			},
		},
		{
			Name:          models.CollectionCertificates,
			Public:        true,
			OrderBy:       byPosition(consistency.DefaultPositionField),
			PositionField: consistency.DefaultPositionField,
			Tree: consistency.Node{
				Collection: models.CollectionCertificates,
				BlobFields: []consistency.FieldSpec{consistency.SingleField("file_url")},
			},
		},
		{
			Name:    models.CollectionPACategories,
			Public:  true,
			OrderBy: byPosition("category_number"),
			Tree:    paCategoryNode(),
		},
		{
			Name:        models.CollectionPAIndicators,
			Public:      true,
			OrderBy:     byPosition("indicator_number"),
			ParentField: "category_id",
			Tree:        paIndicatorNode("category_id"),
		},
		{
			Name:          models.CollectionPAWorks,
			Public:        true,
			OrderBy:       byPosition("sort_order"),
			PositionField: "sort_order",
			ParentField:   "indicator_id",
			Replaceable:   true,
			Tree:          paWorksNode(),
		},
		{
			Name:          models.CollectionPAImages,
			Public:        true,
			OrderBy:       byPosition("sort_order"),
			PositionField: "sort_order",
			ParentField:   "indicator_id",
			Replaceable:   true,
			Tree:          paImagesNode(),
		},
		{
			Name:    models.CollectionMessages,
			OrderBy: []store.Order{{Field: "created_at", Desc: true}},
			Tree:    consistency.Node{Collection: models.CollectionMessages},
		},
	}

	out := make(map[string]*Collection, len(list))
	for _, c := range list {
		out[c.Name] = c
	}
	return out
}
