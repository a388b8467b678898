package models

// Account is one registered user: credential hash, contact email, and the
// owned task list. The username is the key of the account table and is never
// stored inside the record itself in the flat-file layout.
//
// Accounts are created only by completed registration and are never deleted
// by any flow.
type Account struct {
	Username     string `json:"-"`
	PasswordHash string `json:"password_hash"`
	Email        string `json:"email"`
	Tasks        []Task `json:"tasks"`
}

// Clone returns a deep copy so callers can hand out accounts without
// exposing store-internal slices.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Tasks = make([]Task, len(a.Tasks))
	copy(c.Tasks, a.Tasks)
	return &c
}

// GlobalOwner is the reserved owner of the single-user (legacy) task table.
// Tasks migrated from the old global CSV file live under this owner.
const GlobalOwner = ""
