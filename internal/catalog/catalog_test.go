package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogIsWellFormed(t *testing.T) {
	seen := make(map[string]struct{})
	for _, item := range All() {
		require.NotEmpty(t, item.ID)
		require.True(t, item.Category.Valid(), "category of %s", item.ID)
		require.NotEmpty(t, item.Title, "title of %s", item.ID)
		require.NotEmpty(t, item.DocTypes, "doc types of %s", item.ID)
		require.GreaterOrEqual(t, item.MinYears, 0)

		_, dup := seen[item.ID]
		require.False(t, dup, "duplicate id %s", item.ID)
		seen[item.ID] = struct{}{}
	}
}

func TestCatalogHasMandatoryItemsPerCoreCategory(t *testing.T) {
	mandatory := make(map[string]int)
	for _, item := range All() {
		if item.Mandatory {
			mandatory[string(item.Category)]++
		}
	}
	for _, cat := range []string{"finans", "skatt", "juridik", "hr", "kommersiellt", "it"} {
		require.Positive(t, mandatory[cat], "category %s", cat)
	}
}

func TestGet(t *testing.T) {
	item, ok := Get("finans-arsredovisning")
	require.True(t, ok)
	require.Equal(t, 3, item.MinYears)
	require.True(t, item.RequiresSignature)

	_, ok = Get("nope")
	require.False(t, ok)
}

func TestAllReturnsCopy(t *testing.T) {
	first := All()
	first[0].Title = "mutated"

	fresh := All()
	require.NotEqual(t, "mutated", fresh[0].Title)
}
