package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_FindByEmailIsCaseInsensitive(t *testing.T) {
	c := Collection{Users: []User{{ID: "u1", Email: "jane@example.com"}}}

	u := c.FindByEmail("  JANE@Example.COM ")
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)
	assert.Nil(t, c.FindByEmail("joe@example.com"))
}

func TestCollection_FindByIDReturnsLiveRecord(t *testing.T) {
	c := Collection{Users: []User{{ID: "u1", FullName: "Before"}}}

	c.FindByID("u1").FullName = "After"
	assert.Equal(t, "After", c.Users[0].FullName)
	assert.Nil(t, c.FindByID("missing"))
	assert.False(t, c.Dirty())
}

func TestCollection_AppendMarksDirty(t *testing.T) {
	var c Collection
	c.Append(User{ID: "u1"})

	assert.True(t, c.Dirty())
	assert.Len(t, c.Users, 1)
}

func TestCollection_CloneIsDeep(t *testing.T) {
	login := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Collection{Users: []User{{ID: "u1", LastLogin: &login}}}
	c.MarkDirty()

	clone := c.Clone()
	clone.Users[0].ID = "changed"
	*clone.Users[0].LastLogin = login.Add(time.Hour)

	assert.Equal(t, "u1", c.Users[0].ID)
	assert.True(t, login.Equal(*c.Users[0].LastLogin))
	assert.False(t, clone.Dirty())
}

func TestUser_PublicViewsOmitPassword(t *testing.T) {
	u := User{ID: "u1", FullName: "Jane", Email: "jane@example.com", PasswordHash: "$2a$10$secret", CreatedAt: time.Now()}

	public, err := json.Marshal(u.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(public), "password")
	assert.NotContains(t, string(public), "createdAt")

	profile, err := json.Marshal(u.Profile())
	require.NoError(t, err)
	assert.NotContains(t, string(profile), "$2a$")
	assert.Contains(t, string(profile), "createdAt")
	assert.NotContains(t, string(profile), "lastLogin")
}

func TestCollection_DocumentShape(t *testing.T) {
	c := Collection{Users: []User{{ID: "u1", Email: "a@b.co", PasswordHash: "h", IsActive: true}}}
	c.MarkDirty()

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc["users"], 1)
	assert.Equal(t, "h", doc["users"][0]["password"])
	assert.Nil(t, doc["users"][0]["lastLogin"])
	assert.Contains(t, doc["users"][0], "lastLogin")
	assert.NotContains(t, string(raw), "dirty")
}
