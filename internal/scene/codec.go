package scene

import (
	"encoding/json"
	"fmt"
)

// snapshotVersion is written into every snapshot and checked on restore.
const snapshotVersion = 1

// FormatError reports a snapshot that cannot be restored.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed snapshot: %s: %v", e.Reason, e.Err)
	}
	return "malformed snapshot: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

type snapshot struct {
	Version int          `json:"version"`
	Objects []wireObject `json:"objects"`
}

type wireObject struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type groupWire struct {
	Base
	Children []wireObject `json:"children"`
}

// Serialize returns an opaque snapshot of the document contents.
// Restoring it yields objects equal to the current ones, identities included.
// Markers belong to gestures in progress and are left out.
func (d *Document) Serialize() ([]byte, error) {
	snap := snapshot{Version: snapshotVersion, Objects: make([]wireObject, 0, len(d.objects))}
	for _, o := range d.objects {
		if transient(o) {
			continue
		}
		w, err := encodeObject(o)
		if err != nil {
			return nil, err
		}
		snap.Objects = append(snap.Objects, w)
	}
	return json.Marshal(snap)
}

// Restore replaces the document contents with a snapshot produced by
// Serialize. Markers already in the document stay on top. A malformed
// snapshot yields a *FormatError and leaves the document unchanged.
func (d *Document) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return &FormatError{Reason: "decode", Err: err}
	}
	if snap.Version != snapshotVersion {
		return &FormatError{Reason: fmt.Sprintf("unsupported version %d", snap.Version)}
	}

	ids := make(map[string]bool)
	objects := make([]Object, 0, len(snap.Objects))
	for i, w := range snap.Objects {
		o, err := decodeObject(w, ids)
		if err != nil {
			return &FormatError{Reason: fmt.Sprintf("object %d", i), Err: err}
		}
		objects = append(objects, o)
	}
	for _, o := range d.objects {
		if transient(o) && !ids[o.Meta().ID] {
			objects = append(objects, o)
		}
	}

	d.objects = objects
	d.touch()
	return nil
}

func encodeObject(o Object) (wireObject, error) {
	var (
		data []byte
		err  error
	)
	switch v := o.(type) {
	case *Group:
		gw := groupWire{Base: v.Base, Children: make([]wireObject, 0, len(v.Children))}
		for _, c := range v.Children {
			cw, err := encodeObject(c)
			if err != nil {
				return wireObject{}, err
			}
			gw.Children = append(gw.Children, cw)
		}
		data, err = json.Marshal(gw)
	default:
		data, err = json.Marshal(v)
	}
	if err != nil {
		return wireObject{}, fmt.Errorf("encoding %s %s: %w", o.Kind(), o.Meta().ID, err)
	}
	return wireObject{Kind: o.Kind(), Data: data}, nil
}

func decodeObject(w wireObject, ids map[string]bool) (Object, error) {
	var o Object
	switch w.Kind {
	case KindFreehand:
		o = &Freehand{}
	case KindLine:
		o = &Line{}
	case KindMeasurement:
		o = &Measurement{}
	case KindArc:
		o = &Arc{}
	case KindMarker:
		o = &Marker{}
	case KindRect:
		o = &Rect{}
	case KindEllipse:
		o = &Ellipse{}
	case KindText:
		o = &Text{}
	case KindArrow:
		o = &Arrow{}
	case KindGroup:
		var gw groupWire
		if err := json.Unmarshal(w.Data, &gw); err != nil {
			return nil, err
		}
		if err := claim(ids, gw.ID); err != nil {
			return nil, err
		}
		g := &Group{Base: gw.Base, Children: make([]Object, 0, len(gw.Children))}
		for _, cw := range gw.Children {
			c, err := decodeObject(cw, ids)
			if err != nil {
				return nil, err
			}
			g.Children = append(g.Children, c)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown kind %q", w.Kind)
	}

	if err := json.Unmarshal(w.Data, o); err != nil {
		return nil, err
	}
	if err := claim(ids, o.Meta().ID); err != nil {
		return nil, err
	}
	return o, nil
}

func transient(o Object) bool {
	_, ok := o.(*Marker)
	return ok
}

func claim(ids map[string]bool, id string) error {
	if id == "" {
		return fmt.Errorf("missing id")
	}
	if ids[id] {
		return fmt.Errorf("duplicate id %s", id)
	}
	ids[id] = true
	return nil
}
