package molecule

import "math"

// Bond orders.  Fractional 1.5 marks an aromatic bond; 0 marks a van der
// Waals contact with a surface site.
const (
	OrderVdW      = 0.0
	OrderSingle   = 1.0
	OrderAromatic = 1.5
	OrderDouble   = 2.0
	OrderTriple   = 3.0
)

// orderTolerance absorbs float drift when comparing bond orders.
const orderTolerance = 1e-9

// AllBondOrders lists every order a pattern bond may leave open, in the fixed
// order used by extension generation.
var AllBondOrders = []float64{OrderVdW, OrderSingle, OrderAromatic, OrderDouble, OrderTriple}

// Bond is an edge of a Graph.  Orders is a candidate set like the atom
// dimensions: a concrete molecule bond holds exactly one order.
type Bond struct {
	Orders []float64

	// RegOrd is the regularization bound recorded during extension search.
	RegOrd RegBound[float64]
}

// NewBond constructs a bond with the given order candidates.
func NewBond(orders ...float64) *Bond {
	return &Bond{Orders: orders}
}

// Order returns the single order of a concrete bond, NaN when the set does
// not hold exactly one value.
func (b *Bond) Order() float64 {
	if len(b.Orders) == 1 {
		return b.Orders[0]
	}
	return math.NaN()
}

// IsOrder reports whether the bond is concrete with the given order.
func (b *Bond) IsOrder(order float64) bool {
	return len(b.Orders) == 1 && orderEqual(b.Orders[0], order)
}

// HasOrder reports whether order appears in the candidate set.  An empty set
// is a wildcard.
func (b *Bond) HasOrder(order float64) bool {
	if len(b.Orders) == 0 {
		return true
	}
	for _, o := range b.Orders {
		if orderEqual(o, order)	{
			return true
		}
	}
	return false
}

// copyShallow clones the bond's candidate set.
func (b *Bond) copyShallow() *Bond {
	c := &Bond{Orders: append([]float64(nil), b.Orders...)}
	c.RegOrd = b.RegOrd
	return c
}

func orderEqual(a, b float64) bool {
	return math.Abs(a-b) < orderTolerance
}

// ordersSubset reports whether every order of sub appears in super.  An empty
// super set is a wildcard.
func ordersSubset(sub, super []float64) bool {
	if len(super) == 0 {
		return true
	}
	for _, o := range sub {
		found := false
		for _, p := range super {
			if orderEqual(o, p) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
