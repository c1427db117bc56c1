package packing_test

import (
	"testing"

	"github.com/packsight/packsight/internal/models"
	"github.com/packsight/packsight/internal/packing"
	"github.com/stretchr/testify/assert"
)

func TestSelectContainerPrefersSmallestFit(t *testing.T) {
	items := []models.Item{
		{Name: "box", Length: 30, Width: 20, Height: 10, Weight: 500},
	}
	catalog := []models.Container{
		{Name: "b1", URL: "/b1", Length: 40, Width: 30, Height: 20, MaxWeight: packing.DefaultContainerMaxWeight},
		{Name: "b2", URL: "/b2", Length: 100, Width: 100, Height: 100, MaxWeight: packing.DefaultContainerMaxWeight},
	}

	fit := packing.SelectContainer(items, catalog)
	if fit == nil {
		t.Fatalf("expected a fit")
	}
	assert.Equal(t, "/b1", fit.URL)
	assert.Equal(t, "b1", fit.Name)
	assert.Equal(t, 40.0, fit.Length)
	assert.Equal(t, 30.0, fit.Width)
	assert.Equal(t, 20.0, fit.Height)
	assert.Equal(t, 40.0*30.0*20.0, fit.Volume)
	assert.Equal(t, 1, fit.FittedItems)
}

func TestSelectContainerCatalogOrderUnchangedByCaller(t *testing.T) {
	items := []models.Item{
		{Name: "box", Length: 5, Width: 5, Height: 5, Weight: 1},
	}
	catalog := []models.Container{
		{Name: "big", URL: "/big", Length: 100, Width: 100, Height: 100, MaxWeight: 1000},
		{Name: "small", URL: "/small", Length: 10, Width: 10, Height: 10, MaxWeight: 1000},
	}

	fit := packing.SelectContainer(items, catalog)
	if fit == nil {
		t.Fatalf("expected a fit")
	}
	// the selector sorts a copy by volume, so the small container wins
	assert.Equal(t, "/small", fit.URL)
	// and the caller's slice keeps its ingestion order
	assert.Equal(t, "/big", catalog[0].URL)
}

func TestSelectContainerEmptyItems(t *testing.T) {
	catalog := []models.Container{
		{Name: "b1", URL: "/b1", Length: 40, Width: 30, Height: 20, MaxWeight: 1000},
	}
	assert.Nil(t, packing.SelectContainer(nil, catalog))
	assert.Nil(t, packing.SelectContainer([]models.Item{}, catalog))
}

func TestSelectContainerNoFit(t *testing.T) {
	items := []models.Item{
		{Name: "huge", Length: 300, Width: 300, Height: 300, Weight: 1},
	}
	catalog := []models.Container{
		{Name: "b1", URL: "/b1", Length: 40, Width: 30, Height: 20, MaxWeight: 1000},
	}
	assert.Nil(t, packing.SelectContainer(items, catalog))
}

func TestSelectContainerVolumeTieKeepsCatalogOrder(t *testing.T) {
	items := []models.Item{
		{Name: "cube", Length: 10, Width: 10, Height: 10, Weight: 1},
	}
	// equal volumes, both fit: the first ingested must win
	catalog := []models.Container{
		{Name: "first", URL: "/first", Length: 20, Width: 10, Height: 10, MaxWeight: 1000},
		{Name: "second", URL: "/second", Length: 10, Width: 20, Height: 10, MaxWeight: 1000},
	}

	fit := packing.SelectContainer(items, catalog)
	if fit == nil {
		t.Fatalf("expected a fit")
	}
	assert.Equal(t, "/first", fit.URL)
}

func TestSelectContainerRespectsWeightCapacity(t *testing.T) {
	items := []models.Item{
		{Name: "dense", Length: 5, Width: 5, Height: 5, Weight: 900},
	}
	catalog := []models.Container{
		{Name: "small", URL: "/small", Length: 10, Width: 10, Height: 10, MaxWeight: 100},
		{Name: "strong", URL: "/strong", Length: 20, Width: 20, Height: 20, MaxWeight: 5000},
	}

	fit := packing.SelectContainer(items, catalog)
	if fit == nil {
		t.Fatalf("expected a fit")
	}
	assert.Equal(t, "/strong", fit.URL)
}

func TestSelectContainerAllItemsMustFit(t *testing.T) {
	items := []models.Item{
		{Name: "a", Length: 10, Width: 10, Height: 10, Weight: 1},
		{Name: "b", Length: 10, Width: 10, Height: 10, Weight: 1},
		{Name: "c", Length: 10, Width: 10, Height: 10, Weight: 1},
	}
	catalog := []models.Container{
		// holds exactly two cubes, so three must spill over to the bigger one
		{Name: "pair", URL: "/pair", Length: 20, Width: 10, Height: 10, MaxWeight: 1000},
		{Name: "triple", URL: "/triple", Length: 30, Width: 10, Height: 10, MaxWeight: 1000},
	}

	fit := packing.SelectContainer(items, catalog)
	if fit == nil {
		t.Fatalf("expected a fit")
	}
	assert.Equal(t, "/triple", fit.URL)
	assert.Equal(t, 3, fit.FittedItems)
}
