package types

import (
	"slices"

	"veq/internal/source"
)

// FindValueInstance returns the applied instance of origin whose type
// arguments match args.
func (in *Interner) FindValueInstance(origin TypeID, args []TypeID) (TypeID, bool) {
	if in == nil || origin == NoTypeID {
		return NoTypeID, false
	}
	for id := TypeID(1); int(id) < len(in.types); id++ {
		if in.types[id].Kind != KindValue {
			continue
		}
		info := in.valueInfo(id)
		if info == nil || info.Origin != origin {
			continue
		}
		if slices.Equal(info.TypeArgs, args) {
			return id, true
		}
	}
	return NoTypeID, false
}

// FindValueByName returns the declared value nominal with the given name.
func (in *Interner) FindValueByName(name source.StringID) (TypeID, bool) {
	if in == nil || name == source.NoStringID {
		return NoTypeID, false
	}
	for id := TypeID(1); int(id) < len(in.types); id++ {
		if in.types[id].Kind != KindValue {
			continue
		}
		info := in.valueInfo(id)
		if info == nil || info.Origin != NoTypeID {
			continue
		}
		if info.Name == name {
			return id, true
		}
	}
	return NoTypeID, false
}
