package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotClone_DoesNotShareState(t *testing.T) {
	km := 120.0
	orig := Snapshot{
		Sites: []Site{{ID: "1", SiteID: "P1", Name: "North"}},
		Loads: []Load{{ID: "9", Status: LoadDone, ActualKm: &km}},
	}

	c := orig.Clone()
	c.Sites[0].Name = "changed"
	*c.Loads[0].ActualKm = 1

	assert.Equal(t, "North", orig.Sites[0].Name)
	assert.Equal(t, 120.0, *orig.Loads[0].ActualKm)
	assert.Nil(t, c.Trucks)
}

func TestUser_PasswordNotSerialized(t *testing.T) {
	u := User{ID: "3", Login: "ana", Password: "secret", AccessLevel: AccessOperator, SiteID: "P1"}

	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")

	var back User
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "ana", back.Login)
	assert.Empty(t, back.Password)
}

func TestFinalizationApply(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	l := Load{ID: "1", Status: LoadPending}

	Finalization{ActualKm: 300, ActualArrival: at, GapMinutes: 15, GapNote: "traffic"}.Apply(&l)

	assert.Equal(t, LoadDone, l.Status)
	require.NotNil(t, l.ActualKm)
	assert.Equal(t, 300.0, *l.ActualKm)
	assert.True(t, at.Equal(*l.ActualArrival))
	assert.Equal(t, "traffic", l.GapNote)
	require.NotNil(t, l.DelayMinutes)
	assert.Equal(t, 0.0, *l.DelayMinutes)
}

func TestIsAdmin(t *testing.T) {
	var nilUser *User
	assert.False(t, nilUser.IsAdmin())
	assert.True(t, (&User{AccessLevel: AccessAdmin}).IsAdmin())
	assert.False(t, (&User{AccessLevel: AccessOperator}).IsAdmin())
}
