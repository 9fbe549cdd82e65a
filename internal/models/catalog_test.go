package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.NoError(t, c.Validate())

	assert.Equal(t, []float64{200, 250, 300, 400, 500}, c.PresetAmounts)
	assert.Len(t, c.PresetTimes, 13)
	assert.Equal(t, "10:00 PM", c.PresetTimes[len(c.PresetTimes)-1])
	assert.Len(t, c.Services, 9)
}

func TestCatalogLookups(t *testing.T) {
	c := DefaultCatalog()

	name, ok := c.ServiceName("deep_tissue")
	assert.True(t, ok)
	assert.Equal(t, "Deep Tissue", name)

	_, ok = c.ServiceName("unknown")
	assert.False(t, ok)

	staff, ok := c.StaffName("praw")
	assert.True(t, ok)
	assert.Equal(t, "Praw", staff)

	_, ok = c.StaffName("bob")
	assert.False(t, ok)
}

func TestCatalogValidate(t *testing.T) {
	c := DefaultCatalog()
	c.Services = append(c.Services, Service{ID: "thai", Name: "Thai again"})
	assert.ErrorContains(t, c.Validate(), "duplicate service id")

	c = DefaultCatalog()
	c.Durations = nil
	assert.ErrorContains(t, c.Validate(), "durations is empty")
}

func TestBookingHelpers(t *testing.T) {
	assert.Equal(t, StatusCompleted, StatusForSource(SourceStaff))
	assert.Equal(t, StatusPending, StatusForSource(SourceClient))

	b := &Booking{GroupChatID: -100, GroupMessageID: 7}
	assert.True(t, b.HasMirror())
	b.ClearMirror()
	assert.False(t, b.HasMirror())

	assert.Equal(t, "No Name", (&Client{}).DisplayName())
	assert.Equal(t, "Ann", (&Client{Name: "Ann"}).DisplayName())
}
