package cadstore

// PropertyChange is one recorded property mutation within a Transaction:
// object id, a caller-defined property-type tag, and the old/new values.
type PropertyChange struct {
	ObjectID       int64
	PropertyTypeID int
	OldValue       PropertyValue
	NewValue       PropertyValue
}

// Transaction is a change-set value object describing one user
// operation (C7): which objects it touched, and what property values
// changed on each.
type Transaction struct {
	ID       int64
	Text     string
	Undoable bool
	Affected ObjectIDSet
	Changes  map[int64][]PropertyChange
}

// NewTransaction returns an empty, undoable transaction with the given
// label. Its ID is -1 until Storage.SaveTransaction assigns one.
func NewTransaction(text string) *Transaction {
	return &Transaction{
		ID:       -1,
		Text:     text,
		Undoable: true,
		Affected: NewIDSet(),
		Changes:  make(map[int64][]PropertyChange),
	}
}

// AddChange records a property change on objectID, adding objectID to
// the affected set. Returns ErrInvalidTransaction if oldValue and
// newValue disagree on DataType.
func (t *Transaction) AddChange(objectID int64, propertyTypeID int, oldValue, newValue PropertyValue) error {
	if oldValue.Type != newValue.Type {
		return ErrInvalidTransaction
	}
	t.Affected.Add(objectID)
	t.Changes[objectID] = append(t.Changes[objectID], PropertyChange{
		ObjectID:       objectID,
		PropertyTypeID: propertyTypeID,
		OldValue:       oldValue,
		NewValue:       newValue,
	})
	return nil
}

// Validate checks the invariant that every object id named in Changes
// also appears in Affected.
func (t *Transaction) Validate() error {
	for objectID := range t.Changes {
		if !t.Affected.Contains(objectID) {
			return ErrInvalidTransaction
		}
	}
	return nil
}
