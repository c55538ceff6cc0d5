package midi

// NoteKey is a root pitch class plus the set of classes belonging to the key,
// packed as a 12-bit membership mask alongside a 4-bit root index.
type NoteKey struct {
	notesWithRoot uint16
}

const notesMask = 0x0FFF

func (k NoteKey) withNote(n NoteClass) NoteKey {
	k.notesWithRoot |= 1 << uint16(n)
	return k
}

func (k NoteKey) withoutNote(n NoteClass) NoteKey {
	k.notesWithRoot &^= 1 << uint16(n)
	return k
}

// Major builds the major key rooted at root: offsets {0,2,4,5,7,9,11}.
func Major(root NoteClass) NoteKey {
	k := NoteKey{notesWithRoot: uint16(root) << 12}
	k = k.withNote(root)
	for _, off := range [...]int{2, 4, 5, 7, 9, 11} {
		k = k.withNote(root.Shift(off))
	}
	return k
}

// Minor builds the minor key rooted at root by flattening the major
// third, sixth and seventh of the major key at the same root.
func Minor(root NoteClass) NoteKey {
	k := Major(root)
	k = k.withoutNote(root.Shift(4)).withNote(root.Shift(3))
	k = k.withoutNote(root.Shift(9)).withNote(root.Shift(8))
	k = k.withoutNote(root.Shift(11)).withNote(root.Shift(10))
	return k
}

// Root returns the key's root pitch class.
func (k NoteKey) Root() NoteClass {
	return NoteClass((k.notesWithRoot >> 12) & 0xF)
}

// Contains reports whether n belongs to the key.
func (k NoteKey) Contains(n NoteClass) bool {
	return k.notesWithRoot&(1<<uint16(n)) != 0
}

// Len returns the number of distinct pitch classes in the key.
func (k NoteKey) Len() int {
	count := 0
	notes := k.notesWithRoot & notesMask
	for notes != 0 {
		count++
		notes &= notes - 1
	}
	return count
}

// Equivalent reports whether two keys contain the same set of pitch classes,
// irrespective of which one is recorded as the root.
func (k NoteKey) Equivalent(other NoteKey) bool {
	return k.notesWithRoot&notesMask == other.notesWithRoot&notesMask
}

// Nth returns the keystep-th class of the key starting at the root,
// wrapping (including for negative steps) modulo the key's length.
func (k NoteKey) Nth(keystep int) NoteClass {
	length := k.Len()
	mapped := keystep % length
	if mapped < 0 {
		mapped += length
	}
	note := k.Root()
	for step := 0; step < mapped; step++ {
		for !k.Contains(note.Shift(1)) {
			note = note.Shift(1)
		}
		note = note.Shift(1)
	}
	return note
}
