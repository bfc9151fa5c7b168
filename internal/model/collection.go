package model

// Collection is the full ordered set of users held in the remote document.
// There is no index: lookups scan the whole slice.
type Collection struct {
	Users []User `json:"users"`

	dirty bool
}

// FindByEmail returns the user whose normalized email matches, or nil.
func (c *Collection) FindByEmail(email string) *User {
	normalized := NormalizeEmail(email)
	for i := range c.Users {
		if NormalizeEmail(c.Users[i].Email) == normalized {
			return &c.Users[i]
		}
	}
	return nil
}

// FindByID returns the user with the given id, or nil.
func (c *Collection) FindByID(id string) *User {
	for i := range c.Users {
		if c.Users[i].ID == id {
			return &c.Users[i]
		}
	}
	return nil
}

// Append adds a user and marks the collection as changed.
func (c *Collection) Append(u User) {
	c.Users = append(c.Users, u)
	c.dirty = true
}

// MarkDirty records that the collection was mutated in place and must be
// written back.
func (c *Collection) MarkDirty() {
	c.dirty = true
}

// Dirty reports whether the collection was changed since it was fetched.
func (c *Collection) Dirty() bool {
	return c.dirty
}

// Clone returns a deep copy. The copy is not dirty.
func (c Collection) Clone() Collection {
	users := make([]User, len(c.Users))
	for i, u := range c.Users {
		if u.LastLogin != nil {
			lastLogin := *u.LastLogin
			u.LastLogin = &lastLogin
		}
		users[i] = u
	}
	return Collection{Users: users}
}
