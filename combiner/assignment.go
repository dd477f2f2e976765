package combiner

// Unassigned marks a local vertex that has no combined vertex yet.
const Unassigned = -1

// Assignment maps the local vertex indices of one source mesh to combined
// vertex indices. Within one submesh pass a local index is assigned at most
// once; every later corner referencing it reuses the combined vertex.
type Assignment []int

// reset sizes a to n entries, all Unassigned, reusing its memory.
func (a *Assignment) reset(n int) {
	if cap(*a) < n {
		*a = make(Assignment, n)
	} else {
		*a = (*a)[:n]
	}
	for i := range *a {
		(*a)[i] = Unassigned
	}
}

// Lookup returns the combined vertex of local, if assigned.
func (a Assignment) Lookup(local int) (int, bool) {
	if local < 0 || local >= len(a) || a[local] == Unassigned {
		return Unassigned, false
	}
	return a[local], true
}

// Assigned counts the assigned entries.
func (a Assignment) Assigned() (n int) {
	for _, c := range a {
		if c != Unassigned {
			n++
		}
	}
	return
}
