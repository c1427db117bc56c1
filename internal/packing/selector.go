package packing

import (
	"sort"

	"github.com/packsight/packsight/internal/binpack"
	"github.com/packsight/packsight/internal/models"
)

// SelectContainer returns the smallest-volume container in which every item
// can be placed, or nil when no candidate holds them all. Candidates are
// tried in ascending volume order, ties keeping catalog order, and the first
// full fit wins. An empty item set selects nothing.
//
// Container length maps onto the packing depth axis, so a container's
// reported length round-trips through the placement geometry unchanged.
func SelectContainer(items []models.Item, catalog []models.Container) *models.ContainerFit {
	if len(items) == 0 {
		return nil
	}

	candidates := make([]models.Container, len(catalog))
	copy(candidates, catalog)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Volume() < candidates[j].Volume()
	})

	for _, candidate := range candidates {
		if fit := packCandidate(items, candidate); fit != nil {
			return fit
		}
	}
	return nil
}

// packCandidate attempts a full packing into one candidate. A panic inside
// the placement routine counts as no fit for this candidate only.
func packCandidate(items []models.Item, candidate models.Container) (fit *models.ContainerFit) {
	defer func() {
		if r := recover(); r != nil {
			fit = nil
		}
	}()

	bin := &binpack.Bin{
		Name:      candidate.Name,
		Width:     candidate.Width,
		Height:    candidate.Height,
		Depth:     candidate.Length,
		MaxWeight: candidate.MaxWeight,
	}
	packer := &binpack.Packer{}
	packer.AddBin(bin)
	for _, it := range items {
		packer.AddItem(&binpack.Item{
			Name:   it.Name,
			Width:  it.Width,
			Height: it.Height,
			Depth:  it.Length,
			Weight: it.Weight,
		})
	}
	packer.Pack()

	if len(bin.Items) != len(items) {
		return nil
	}
	return &models.ContainerFit{
		Name:        bin.Name,
		Length:      bin.Depth,
		Width:       bin.Width,
		Height:      bin.Height,
		Volume:      bin.Depth * bin.Width * bin.Height,
		FittedItems: len(bin.Items),
		URL:         candidate.URL,
	}
}
