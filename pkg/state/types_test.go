package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLibraryVersion(t *testing.T) {
	day := time.Date(2023, 11, 2, 23, 59, 0, 0, time.UTC)

	tests := []struct {
		name         string
		v            LibraryVersion
		want         string
		experimental bool
	}{
		{name: "tagged", v: Tagged("v2.0"), want: "v2.0"},
		{name: "experimental default ref", v: Experimental("", day), want: "experimental-20231102", experimental: true},
		{name: "experimental branch", v: Experimental("master", day), want: "master-20231102", experimental: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
			assert.Equal(t, tt.experimental, tt.v.IsExperimental())
			assert.Equal(t, tt.v, ParseLibraryVersion(tt.want))
		})
	}
}

func TestLibraryVersion_StampIsFixed(t *testing.T) {
	clock := &FixedClock{Time: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)}
	v := Experimental("", clock.Now())
	clock.Time = clock.Time.AddDate(0, 0, 1)
	assert.Equal(t, "20240131", v.Stamp())
}

func TestParseLibraryVersion_NotAStamp(t *testing.T) {
	v := ParseLibraryVersion("release-99999999")
	assert.False(t, v.IsExperimental())
	assert.Equal(t, "release-99999999", v.String())
	assert.True(t, LibraryVersion{}.IsZero())
}
