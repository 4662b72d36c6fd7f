package speedval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClamps(t *testing.T) {
	t.Run("clamps above one", func(t *testing.T) {
		assert.True(t, Full.Equal(New(1.5)))
	})

	t.Run("clamps below zero", func(t *testing.T) {
		assert.True(t, Zero.Equal(New(-0.3)))
	})

	t.Run("keeps in-range value", func(t *testing.T) {
		assert.Equal(t, "0.5000", New(0.5).String())
	})
}

func TestArithmeticExactness(t *testing.T) {
	t.Run("no float drift across repeated addition", func(t *testing.T) {
		s := Zero
		tenth := New(0.1)
		for i := 0; i < 10; i++ {
			s = s.Add(tenth)
		}
		assert.True(t, s.Clamp(Zero, Full).Equal(Full), "0.1 summed ten times must equal 1.0 exactly with decimal backing")
	})
}

func TestMarshalRoundTrip(t *testing.T) {
	s := New(0.8)
	data, err := s.MarshalJSON()
	assert.NoError(t, err)

	var out Speed
	assert.NoError(t, out.UnmarshalJSON(data))
	assert.True(t, s.Equal(out))
}
