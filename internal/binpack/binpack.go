// Package binpack implements a single-bin 3D packing heuristic with axis
// rotations. Placement walks pivot points derived from already-placed items;
// at each pivot the first rotation whose bounding box stays inside the bin is
// the only one tested for overlap and weight, which keeps the heuristic fast
// and deterministic at the cost of occasionally refusing a feasible layout.
package binpack

import "sort"

// RotationType enumerates the six axis-aligned orientations of a cuboid.
type RotationType int

const (
	RotationWHD RotationType = iota
	RotationHWD
	RotationHDW
	RotationDHW
	RotationDWH
	RotationWDH
)

const rotationCount = 6

// Axis indexes into a [3]float64 dimension or position vector.
type Axis int

const (
	AxisWidth Axis = iota
	AxisHeight
	AxisDepth
)

var startPosition = [3]float64{0, 0, 0}

// Item is a cuboid to place. Position and Rotation are written by the packer
// while it searches; they hold the final placement once the item is fitted.
type Item struct {
	Name     string
	Width    float64
	Height   float64
	Depth    float64
	Weight   float64
	Rotation RotationType
	Position [3]float64
}

// Dimension returns width/height/depth as seen under the item's current
// rotation.
func (it *Item) Dimension() [3]float64 {
	switch it.Rotation {
	case RotationWHD:
		return [3]float64{it.Width, it.Height, it.Depth}
	case RotationHWD:
		return [3]float64{it.Height, it.Width, it.Depth}
	case RotationHDW:
		return [3]float64{it.Height, it.Depth, it.Width}
	case RotationDHW:
		return [3]float64{it.Depth, it.Height, it.Width}
	case RotationDWH:
		return [3]float64{it.Depth, it.Width, it.Height}
	case RotationWDH:
		return [3]float64{it.Width, it.Depth, it.Height}
	default:
		return [3]float64{it.Width, it.Height, it.Depth}
	}
}

func (it *Item) Volume() float64 {
	return it.Width * it.Height * it.Depth
}

// Bin is a packing target. Items holds placed items, Unfitted the ones no
// pivot accepted.
type Bin struct {
	Name      string
	Width     float64
	Height    float64
	Depth     float64
	MaxWeight float64
	Items     []*Item
	Unfitted  []*Item
}

func (b *Bin) Volume() float64 {
	return b.Width * b.Height * b.Depth
}

// PackedWeight is the summed weight of all placed items.
func (b *Bin) PackedWeight() float64 {
	var total float64
	for _, it := range b.Items {
		total += it.Weight
	}
	return total
}

// PutItem tries to place item with its origin corner at pivot. Rotations are
// scanned until one fits inside the bin bounds; that single rotation then
// decides the outcome, overlapping items or exceeding MaxWeight means no fit.
func (b *Bin) PutItem(item *Item, pivot [3]float64) bool {
	fit := false
	validPosition := item.Position
	item.Position = pivot

	for r := 0; r < rotationCount; r++ {
		item.Rotation = RotationType(r)
		d := item.Dimension()
		if b.Width < pivot[0]+d[0] || b.Height < pivot[1]+d[1] || b.Depth < pivot[2]+d[2] {
			continue
		}
		fit = true
		for _, placed := range b.Items {
			if intersect(placed, item) {
				fit = false
				break
			}
		}
		if fit {
			if b.PackedWeight()+item.Weight > b.MaxWeight {
				return false
			}
			b.Items = append(b.Items, item)
		}
		if !fit {
			item.Position = validPosition
		}
		return fit
	}

	item.Position = validPosition
	return false
}

// rectIntersect reports whether the two items overlap when projected onto the
// plane spanned by axes x and y, comparing center distance against the summed
// half extents.
func rectIntersect(a, b *Item, x, y Axis) bool {
	da := a.Dimension()
	db := b.Dimension()

	cxa := a.Position[x] + da[x]/2
	cya := a.Position[y] + da[y]/2
	cxb := b.Position[x] + db[x]/2
	cyb := b.Position[y] + db[y]/2

	ix := cxa - cxb
	if ix < 0 {
		ix = -ix
	}
	iy := cya - cyb
	if iy < 0 {
		iy = -iy
	}

	return ix < (da[x]+db[x])/2 && iy < (da[y]+db[y])/2
}

// intersect reports whether two placed items occupy common volume. Cuboids
// overlap exactly when all three axis-plane projections overlap.
func intersect(a, b *Item) bool {
	return rectIntersect(a, b, AxisWidth, AxisHeight) &&
		rectIntersect(a, b, AxisHeight, AxisDepth) &&
		rectIntersect(a, b, AxisWidth, AxisDepth)
}

// Packer distributes a set of items over a set of bins.
type Packer struct {
	Bins  []*Bin
	Items []*Item
}

func (p *Packer) AddBin(b *Bin) {
	p.Bins = append(p.Bins, b)
}

func (p *Packer) AddItem(it *Item) {
	p.Items = append(p.Items, it)
}

// Pack places every added item into every added bin, smallest volumes first.
// Ties keep insertion order. Items that no pivot of a bin accepts land in
// that bin's Unfitted list.
func (p *Packer) Pack() {
	sort.SliceStable(p.Bins, func(i, j int) bool {
		return p.Bins[i].Volume() < p.Bins[j].Volume()
	})
	sort.SliceStable(p.Items, func(i, j int) bool {
		return p.Items[i].Volume() < p.Items[j].Volume()
	})

	for _, bin := range p.Bins {
		for _, item := range p.Items {
			p.packToBin(bin, item)
		}
	}
}

// packToBin tries the bin origin for an empty bin, otherwise every pivot
// derived from each placed item along the width, height and depth axes, in
// that order.
func (p *Packer) packToBin(bin *Bin, item *Item) {
	if len(bin.Items) == 0 {
		if !bin.PutItem(item, startPosition) {
			bin.Unfitted = append(bin.Unfitted, item)
		}
		return
	}

	for axis := AxisWidth; axis <= AxisDepth; axis++ {
		for _, placed := range bin.Items {
			d := placed.Dimension()
			var pivot [3]float64
			switch axis {
			case AxisWidth:
				pivot = [3]float64{placed.Position[0] + d[0], placed.Position[1], placed.Position[2]}
			case AxisHeight:
				pivot = [3]float64{placed.Position[0], placed.Position[1] + d[1], placed.Position[2]}
			case AxisDepth:
				pivot = [3]float64{placed.Position[0], placed.Position[1], placed.Position[2] + d[2]}
			}
			if bin.PutItem(item, pivot) {
				return
			}
		}
	}

	bin.Unfitted = append(bin.Unfitted, item)
}
