package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversNextTick(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(e SystemMessage) { got = append(got, e.Text) })

	Emit(b, SystemMessage{Text: "hello"})
	assert.Equal(t, 1, Pending[SystemMessage](b))
	b.DispatchAll()
	assert.Empty(t, got, "not visible until swap")

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []string{"hello"}, got)
	assert.Zero(t, Pending[SystemMessage](b))
}

func TestBusDispatchOrderFollowsFirstEmission(t *testing.T) {
	b := NewBus()
	var order []string
	Subscribe(b, func(Disconnected) { order = append(order, "disconnected") })
	Subscribe(b, func(SystemMessage) { order = append(order, "sysmsg") })
	Subscribe(b, func(WeatherChanged) { order = append(order, "weather") })

	Emit(b, SystemMessage{})
	Emit(b, WeatherChanged{})
	Emit(b, Disconnected{})
	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []string{"sysmsg", "weather", "disconnected"}, order)
}

func TestBusReset(t *testing.T) {
	b := NewBus()
	calls := 0
	Subscribe(b, func(SystemMessage) { calls++ })
	Emit(b, SystemMessage{})
	b.SwapBuffers()
	Emit(b, SystemMessage{})
	b.Reset()
	b.DispatchAll()
	b.SwapBuffers()
	b.DispatchAll()
	assert.Zero(t, calls)
}
