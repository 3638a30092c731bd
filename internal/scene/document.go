package scene

import (
	"fmt"
	"sort"

	"github.com/ironsheep/pdf-markup-mcp/internal/geom"
)

// Document is the ordered list of top-level objects. Index 0 is painted
// first; later objects are in front.
type Document struct {
	objects  []Object
	revision uint64
}

// New returns an empty document.
func New() *Document {
	return &Document{}
}

// Revision increases on every mutation.
func (d *Document) Revision() uint64 { return d.revision }

func (d *Document) touch() { d.revision++ }

// Len returns the number of top-level objects.
func (d *Document) Len() int { return len(d.objects) }

// Objects returns the top-level objects in paint order. The slice is a copy;
// the objects are shared.
func (d *Document) Objects() []Object {
	return append([]Object(nil), d.objects...)
}

// Add appends obj in front of everything else.
func (d *Document) Add(obj Object) {
	d.objects = append(d.objects, obj)
	d.touch()
}

// Insert places obj at index i, clamped to the valid range.
func (d *Document) Insert(i int, obj Object) {
	if i < 0 {
		i = 0
	}
	if i > len(d.objects) {
		i = len(d.objects)
	}
	d.objects = append(d.objects, nil)
	copy(d.objects[i+1:], d.objects[i:])
	d.objects[i] = obj
	d.touch()
}

// Remove deletes obj from the top level. It reports whether obj was present.
func (d *Document) Remove(obj Object) bool {
	i := d.IndexOf(obj.Meta().ID)
	if i < 0 {
		return false
	}
	d.objects = append(d.objects[:i], d.objects[i+1:]...)
	d.touch()
	return true
}

// IndexOf returns the z-index of the top-level object with id, or -1.
func (d *Document) IndexOf(id string) int {
	for i, o := range d.objects {
		if o.Meta().ID == id {
			return i
		}
	}
	return -1
}

// Find returns the top-level object with id, or nil.
func (d *Document) Find(id string) Object {
	if i := d.IndexOf(id); i >= 0 {
		return d.objects[i]
	}
	return nil
}

func (d *Document) move(obj Object, to func(i int) int) bool {
	i := d.IndexOf(obj.Meta().ID)
	if i < 0 {
		return false
	}
	j := to(i)
	if j < 0 || j >= len(d.objects) || j == i {
		return false
	}
	o := d.objects[i]
	if j > i {
		copy(d.objects[i:j], d.objects[i+1:j+1])
	} else {
		copy(d.objects[j+1:i+1], d.objects[j:i])
	}
	d.objects[j] = o
	d.touch()
	return true
}

// MoveForward swaps obj with the object directly in front of it.
// It is a no-op when obj is already frontmost.
func (d *Document) MoveForward(obj Object) bool {
	return d.move(obj, func(i int) int { return i + 1 })
}

// MoveBackward swaps obj with the object directly behind it.
func (d *Document) MoveBackward(obj Object) bool {
	return d.move(obj, func(i int) int { return i - 1 })
}

// BringToFront moves obj to the end of the paint order.
func (d *Document) BringToFront(obj Object) bool {
	return d.move(obj, func(int) int { return len(d.objects) - 1 })
}

// SendToBack moves obj to the start of the paint order.
func (d *Document) SendToBack(obj Object) bool {
	return d.move(obj, func(int) int { return 0 })
}

// Clear removes every object.
func (d *Document) Clear() {
	d.objects = nil
	d.touch()
}

// HitTest returns the frontmost selectable object under p, or nil.
func (d *Document) HitTest(p geom.Point, tol float64) Object {
	for i := len(d.objects) - 1; i >= 0; i-- {
		o := d.objects[i]
		if o.Meta().Selectable && o.Hit(p, tol) {
			return o
		}
	}
	return nil
}

// Group replaces the top-level objects named by ids with a single group
// owning them. Children keep their relative order and the group takes the
// z-position of the frontmost member.
func (d *Document) Group(ids []string) (*Group, error) {
	if len(ids) < 2 {
		return nil, fmt.Errorf("group needs at least 2 objects, got %d", len(ids))
	}
	idx := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		i := d.IndexOf(id)
		if i < 0 {
			return nil, fmt.Errorf("object %s is not a top-level object", id)
		}
		if !seen[i] {
			seen[i] = true
			idx = append(idx, i)
		}
	}
	if len(idx) < 2 {
		return nil, fmt.Errorf("group needs at least 2 distinct objects")
	}
	sort.Ints(idx)

	g := &Group{Base: NewBase(Style{}, true, true)}
	for _, i := range idx {
		g.Children = append(g.Children, d.objects[i])
	}

	at := idx[len(idx)-1] - (len(idx) - 1)
	kept := d.objects[:0:0]
	for i, o := range d.objects {
		if !seen[i] {
			kept = append(kept, o)
		}
	}
	d.objects = kept
	d.Insert(at, g)
	return g, nil
}

// Ungroup dissolves the top-level group with id, putting its children back
// at the group's position in their original order.
func (d *Document) Ungroup(id string) ([]Object, error) {
	i := d.IndexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("object %s is not a top-level object", id)
	}
	g, ok := d.objects[i].(*Group)
	if !ok {
		return nil, fmt.Errorf("object %s is a %s, not a group", id, d.objects[i].Kind())
	}

	children := g.Children
	rest := append([]Object(nil), d.objects[i+1:]...)
	d.objects = append(append(d.objects[:i], children...), rest...)
	g.Children = nil
	d.touch()
	return append([]Object(nil), children...), nil
}
