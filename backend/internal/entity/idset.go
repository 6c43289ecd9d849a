package entity

// IDSet is an order-preserving set of entity identifiers. Follow and like
// edges are memberships in these sets, so repeating a toggle can never
// produce a duplicate edge.
type IDSet []string

// Has reports whether id is a member of the set.
func (s IDSet) Has(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Add inserts id and reports whether membership changed.
func (s *IDSet) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

// Remove deletes id and reports whether membership changed.
func (s *IDSet) Remove(id string) bool {
	for i, v := range *s {
		if v == id {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of members.
func (s IDSet) Len() int {
	return len(s)
}

// Values returns the members in insertion order.
func (s IDSet) Values() []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Clone returns an independent copy of the set.
func (s IDSet) Clone() IDSet {
	if s == nil {
		return nil
	}
	out := make(IDSet, len(s))
	copy(out, s)
	return out
}
