package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalSubjectsAreDeviceScoped(t *testing.T) {
	assert.Equal(t, "tel.phone-a.motion", MotionSubject("phone-a"))
	assert.Equal(t, "tel.phone-a.press", PressSubject("phone-a"))
	assert.Equal(t, "tel.phone-a.lifecycle", LifecycleSubject("phone-a"))

	// Two paired devices on the same cluster must not share subjects.
	assert.NotEqual(t, MotionSubject("phone-a"), MotionSubject("phone-b"))
}
