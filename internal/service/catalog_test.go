package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/dulcehogar/internal/transport"
)

func listProducts(t *testing.T, f *fixture) []string {
	t.Helper()
	_, items, err := f.catalog.ListProducts(context.Background(), transport.Page{})
	require.NoError(t, err)
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, fmt.Sprintf("%s|%d|%.2f|%s", p.Name, p.Quantity, p.Price, p.CategoryName()))
	}
	return out
}

func TestCreateProduct_ListedExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inputs := []transport.ProductInput{
		{Name: "Pastel", Quantity: 3, Price: 25.5},
		{Name: "Concha", Quantity: 0, Price: 0},
		{Name: "Bolillo", Quantity: 100, Price: 1.25},
	}
	for _, in := range inputs {
		p, err := f.catalog.CreateProduct(ctx, in)
		require.NoError(t, err)

		count := 0
		_, items, err := f.catalog.ListProducts(ctx, transport.Page{})
		require.NoError(t, err)
		for _, it := range items {
			if it.ID == p.ID {
				count++
				assert.Equal(t, in.Name, it.Name)
				assert.Equal(t, in.Quantity, it.Quantity)
				assert.InDelta(t, in.Price, it.Price, 0.0001)
			}
		}
		assert.Equal(t, 1, count)
	}
}

func TestCreateProduct_DuplicateNameLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateProduct(ctx, transport.ProductInput{Name: "Pastel", Quantity: 1, Price: 2})
	require.NoError(t, err)
	before := listProducts(t, f)

	_, err = f.catalog.CreateProduct(ctx, transport.ProductInput{Name: "Pastel", Quantity: 9, Price: 9})
	require.ErrorIs(t, err, ErrDuplicateName)
	assert.Equal(t, before, listProducts(t, f))

	// names are case sensitive
	_, err = f.catalog.CreateProduct(ctx, transport.ProductInput{Name: "pastel", Quantity: 1, Price: 1})
	require.NoError(t, err)
}

func TestCreateProduct_RejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    transport.ProductInput
		field string
	}{
		{name: "negative quantity", in: transport.ProductInput{Name: "Pan", Quantity: -1}, field: "quantity"},
		{name: "negative price", in: transport.ProductInput{Name: "Pan", Price: -0.01}, field: "price"},
		{name: "NaN price", in: transport.ProductInput{Name: "Pan", Price: math.NaN()}, field: "price"},
		{name: "infinite price", in: transport.ProductInput{Name: "Pan", Price: math.Inf(1)}, field: "price"},
		{name: "short name", in: transport.ProductInput{Name: "P"}, field: "name"},
		{name: "unknown category", in: transport.ProductInput{Name: "Pan", CategoryID: ptr(77)}, field: "category_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.catalog.CreateProduct(ctx, tt.in)
			require.ErrorIs(t, err, ErrInvalidInput)
			var ie *InputError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.field, ie.Field)
		})
	}
	assert.Empty(t, listProducts(t, f))
}

func TestUpdateCategory_RoundTripAndSetNullDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cat, err := f.catalog.CreateCategory(ctx, transport.CategoryInput{Name: "Panes", Description: "del día"})
	require.NoError(t, err)
	_, err = f.catalog.CreateProduct(ctx, transport.ProductInput{Name: "Bolillo", Quantity: 1, Price: 1, CategoryID: ptr(cat.ID)})
	require.NoError(t, err)

	_, err = f.catalog.UpdateCategory(ctx, cat.ID, transport.CategoryInput{Name: "Panadería", Description: "salada"})
	require.NoError(t, err)

	got, err := f.catalog.GetCategory(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Panadería", got.Name)
	assert.Equal(t, "salada", got.Description)

	require.NoError(t, f.catalog.DeleteCategory(ctx, cat.ID))
	_, items, err := f.catalog.ListProducts(ctx, transport.Page{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].CategoryID)
}

func TestCategory_NotFoundAndDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateCategory(ctx, transport.CategoryInput{Name: "Postres"})
	require.NoError(t, err)
	other, err := f.catalog.CreateCategory(ctx, transport.CategoryInput{Name: "Panes"})
	require.NoError(t, err)

	_, err = f.catalog.CreateCategory(ctx, transport.CategoryInput{Name: "Postres"})
	assert.ErrorIs(t, err, ErrDuplicateName)
	_, err = f.catalog.UpdateCategory(ctx, other.ID, transport.CategoryInput{Name: "Postres"})
	assert.ErrorIs(t, err, ErrDuplicateName)
	_, err = f.catalog.UpdateCategory(ctx, 999, transport.CategoryInput{Name: "Nueva"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.catalog.DeleteCategory(ctx, 999), ErrNotFound)
	_, err = f.catalog.GetCategory(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.catalog.UpdateProduct(ctx, 999, transport.ProductInput{Name: "Nada"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.catalog.DeleteProduct(ctx, 999), ErrNotFound)
}

func TestPostresPastelScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	postres, err := f.catalog.CreateCategory(ctx, transport.CategoryInput{Name: "Postres"})
	require.NoError(t, err)
	_, err = f.catalog.CreateProduct(ctx, transport.ProductInput{Name: "Pastel", Quantity: 3, Price: 25.50, CategoryID: ptr(postres.ID)})
	require.NoError(t, err)

	assert.Equal(t, []string{"Pastel|3|25.50|Postres"}, listProducts(t, f))

	require.NoError(t, f.catalog.DeleteCategory(ctx, postres.ID))
	assert.Equal(t, []string{"Pastel|3|25.50|"}, listProducts(t, f))
}

func TestDeleteCategory_Policies(t *testing.T) {
	ctx := context.Background()

	t.Run("restrict", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.Policy = PolicyRestrict
		cat, err := f.catalog.CreateCategory(ctx, transport.CategoryInput{Name: "Postres"})
		require.NoError(t, err)
		_, err = f.catalog.CreateProduct(ctx, transport.ProductInput{Name: "Pastel", CategoryID: ptr(cat.ID)})
		require.NoError(t, err)

		require.ErrorIs(t, f.catalog.DeleteCategory(ctx, cat.ID), ErrInUse)
		_, err = f.catalog.GetCategory(ctx, cat.ID)
		require.NoError(t, err)

		empty, err := f.catalog.CreateCategory(ctx, transport.CategoryInput{Name: "Vacía"})
		require.NoError(t, err)
		require.NoError(t, f.catalog.DeleteCategory(ctx, empty.ID))
	})

	t.Run("cascade", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.Policy = PolicyCascade
		idx := newFakeIndex()
		f.catalog.Index = idx

		cat, err := f.catalog.CreateCategory(ctx, transport.CategoryInput{Name: "Postres"})
		require.NoError(t, err)
		_, err = f.catalog.CreateProduct(ctx, transport.ProductInput{Name: "Pastel", CategoryID: ptr(cat.ID)})
		require.NoError(t, err)
		_, err = f.catalog.CreateProduct(ctx, transport.ProductInput{Name: "Bolillo"})
		require.NoError(t, err)
		require.Len(t, idx.docs, 2)

		require.NoError(t, f.catalog.DeleteCategory(ctx, cat.ID))
		assert.Equal(t, []string{"Bolillo|0|0.00|"}, listProducts(t, f))
		assert.Len(t, idx.docs, 1)
	})
}

func TestSearchProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"Pastel de Chocolate", "Mini pastel", "Concha"} {
		_, err := f.catalog.CreateProduct(ctx, transport.ProductInput{Name: name})
		require.NoError(t, err)
	}

	got, err := f.catalog.SearchProducts(ctx, "PASTEL")
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = f.catalog.SearchProducts(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSearchProducts_UsesIndexThenFallsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	idx := newFakeIndex()
	f.catalog.Index = idx

	cat, err := f.catalog.CreateCategory(ctx, transport.CategoryInput{Name: "Postres"})
	require.NoError(t, err)
	p, err := f.catalog.CreateProduct(ctx, transport.ProductInput{Name: "Pastel", CategoryID: ptr(cat.ID)})
	require.NoError(t, err)
	assert.Equal(t, "Pastel|Postres", idx.docs[p.ID])

	got, err := f.catalog.SearchProducts(ctx, "Pas")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, idx.searched)

	_, err = f.catalog.UpdateCategory(ctx, cat.ID, transport.CategoryInput{Name: "Dulces"})
	require.NoError(t, err)
	assert.Equal(t, "Pastel|Dulces", idx.docs[p.ID])

	idx.searchErr = errors.New("cluster red")
	got, err = f.catalog.SearchProducts(ctx, "pas")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Pastel", got[0].Name)

	require.NoError(t, f.catalog.DeleteProduct(ctx, p.ID))
	assert.Empty(t, idx.docs)
}

func TestReindex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"Pastel", "Concha"} {
		_, err := f.catalog.CreateProduct(ctx, transport.ProductInput{Name: name})
		require.NoError(t, err)
	}

	n, err := f.catalog.Reindex(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	idx := newFakeIndex()
	f.catalog.Index = idx
	n, err = f.catalog.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, idx.docs, 2)
}

func TestCatalogEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cat, err := f.catalog.CreateCategory(ctx, transport.CategoryInput{Name: "Postres"})
	require.NoError(t, err)
	p, err := f.catalog.CreateProduct(ctx, transport.ProductInput{Name: "Pastel", CategoryID: ptr(cat.ID)})
	require.NoError(t, err)
	_, err = f.catalog.CreateProduct(ctx, transport.ProductInput{Name: "Pastel"})
	require.Error(t, err)
	require.NoError(t, f.catalog.DeleteProduct(ctx, p.ID))

	assert.Equal(t, []string{"category_created", "product_created", "product_deleted"}, f.events.types())
	assert.Equal(t, TopicCatalog, f.events.events[1].Topic)
	assert.Equal(t, fmt.Sprint(p.ID), f.events.events[1].Key)
}
