package voting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsValidate(t *testing.T) {
	valid := DefaultSettings()
	require.NoError(t, valid.Validate())

	t.Run("support threshold above 100%", func(t *testing.T) {
		s := valid
		s.SupportThreshold = RatioBase + 1
		var oob *RatioOutOfBoundsError
		require.ErrorAs(t, s.Validate(), &oob)
		assert.Equal(t, RatioBase, oob.Limit)
		assert.Equal(t, RatioBase+1, oob.Actual)
	})

	t.Run("participation above 100%", func(t *testing.T) {
		s := valid
		s.MinParticipation = RatioBase + 1
		var oob *RatioOutOfBoundsError
		assert.ErrorAs(t, s.Validate(), &oob)
	})

	t.Run("duration below one hour", func(t *testing.T) {
		s := valid
		s.MinDuration = 59 * time.Minute
		var oob *DurationOutOfBoundsError
		require.ErrorAs(t, s.Validate(), &oob)
		assert.Equal(t, MinDurationFloor, oob.Limit)
	})

	t.Run("duration above one year", func(t *testing.T) {
		s := valid
		s.MinDuration = MinDurationCeiling + time.Second
		var oob *DurationOutOfBoundsError
		require.ErrorAs(t, s.Validate(), &oob)
		assert.Equal(t, MinDurationCeiling, oob.Limit)
	})

	t.Run("boundary durations are accepted", func(t *testing.T) {
		s := valid
		s.MinDuration = MinDurationFloor
		assert.NoError(t, s.Validate())
		s.MinDuration = MinDurationCeiling
		assert.NoError(t, s.Validate())
	})

	t.Run("exactly 100% ratios are accepted", func(t *testing.T) {
		s := valid
		s.SupportThreshold = RatioBase
		s.MinParticipation = RatioBase
		assert.NoError(t, s.Validate())
	})
}
