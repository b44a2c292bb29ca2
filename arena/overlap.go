package arena

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/leap-fish/necs/esync"
	"github.com/solarlune/resolv"

	"github.com/automoto/battleboxes/shared/gamemath"
)

const (
	tagRemote = "remote"
	tagProbe  = "probe"

	// resolv works in whole-number cells, so hitboxes are placed in a
	// space scaled to one tile per cell.
	hitboxScale  = 16
	hitboxMargin = 4 * hitboxScale
)

// overlapSpace finds remote actors whose hitboxes touch the controlled
// body. resolv narrows the candidates by cell; polygons decide.
type overlapSpace struct {
	space  *resolv.Space
	bounds gamemath.Rect

	objects map[esync.NetworkId]*resolv.Object
	owners  map[*resolv.Object]esync.NetworkId
	hulls   map[esync.NetworkId][]mgl64.Vec2
	probe   *resolv.Object
}

func newOverlapSpace(bounds gamemath.Rect) *overlapSpace {
	w := int(math.Ceil(bounds.Width()*hitboxScale)) + 2*hitboxMargin
	h := int(math.Ceil(bounds.Height()*hitboxScale)) + 2*hitboxMargin
	return &overlapSpace{
		space:   resolv.NewSpace(w, h, hitboxScale, hitboxScale),
		bounds:  bounds,
		objects: make(map[esync.NetworkId]*resolv.Object),
		owners:  make(map[*resolv.Object]esync.NetworkId),
		hulls:   make(map[esync.NetworkId][]mgl64.Vec2),
	}
}

// place converts a world AABB into the space's y-down pixel rectangle.
func (o *overlapSpace) place(r gamemath.Rect) (x, y, w, h float64) {
	x = (r.Left-o.bounds.Left)*hitboxScale + hitboxMargin
	y = (o.bounds.Top-r.Top)*hitboxScale + hitboxMargin
	w = math.Max(r.Width()*hitboxScale, 1)
	h = math.Max(r.Height()*hitboxScale, 1)
	return x, y, w, h
}

// upsert moves an object to r, recreating it when its size changed.
func (o *overlapSpace) upsert(obj *resolv.Object, r gamemath.Rect, tags ...string) *resolv.Object {
	x, y, w, h := o.place(r)
	if obj != nil && (obj.W != w || obj.H != h) {
		o.space.Remove(obj)
		obj = nil
	}
	if obj == nil {
		obj = resolv.NewObject(x, y, w, h, tags...)
		obj.SetShape(resolv.NewRectangle(0, 0, w, h))
		o.space.Add(obj)
		return obj
	}
	obj.X, obj.Y = x, y
	obj.Update()
	return obj
}

func (o *overlapSpace) set(id esync.NetworkId, hull []mgl64.Vec2) {
	prev := o.objects[id]
	obj := o.upsert(prev, gamemath.BoundsOf(hull), tagRemote)
	if obj != prev {
		delete(o.owners, prev)
		o.objects[id] = obj
		o.owners[obj] = id
	}
	o.hulls[id] = hull
}

func (o *overlapSpace) remove(id esync.NetworkId) {
	obj, ok := o.objects[id]
	if !ok {
		return
	}
	o.space.Remove(obj)
	delete(o.objects, id)
	delete(o.owners, obj)
	delete(o.hulls, id)
}

// touching appends to dst the ids of remote hitboxes overlapping hull.
func (o *overlapSpace) touching(dst []esync.NetworkId, hull []mgl64.Vec2) []esync.NetworkId {
	bounds := gamemath.BoundsOf(hull)
	o.probe = o.upsert(o.probe, bounds, tagProbe)

	check := o.probe.Check(0, 0, tagRemote)
	if check == nil {
		return dst
	}
	start := len(dst)
	for _, obj := range check.ObjectsByTags(tagRemote) {
		id, ok := o.owners[obj]
		if !ok || slices.Contains(dst[start:], id) {
			continue
		}
		other := o.hulls[id]
		if bounds.Overlaps(gamemath.BoundsOf(other)) && gamemath.Overlaps(hull, other) {
			dst = append(dst, id)
		}
	}
	slices.Sort(dst[start:])
	return dst
}
