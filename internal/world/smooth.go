package world

// Per-tile step durations in milliseconds.
const (
	walkStepMs = 200
	runStepMs  = 100
)

type moveStep struct {
	from, to Location
	dir      uint8
	duration int64
	elapsed  int64
}

// SmoothMovement interpolates queued one-tile steps per serial. Objects move
// through fractional locations; their game tile flips to the destination as
// soon as the step starts because tiles are the ceiling of each axis.
type SmoothMovement struct {
	steps map[Serial][]moveStep
}

func NewSmoothMovement() *SmoothMovement {
	return &SmoothMovement{steps: make(map[Serial][]moveStep)}
}

// Add queues a step from the end of the serial's current queue (or from) to to.
func (m *SmoothMovement) Add(serial Serial, from, to Location, dir uint8, run bool) {
	q := m.steps[serial]
	if n := len(q); n > 0 {
		from = q[n-1].to
	}
	d := int64(walkStepMs)
	if run {
		d = runStepMs
	}
	m.steps[serial] = append(q, moveStep{from: from, to: to, dir: dir, duration: d})
}

// Last returns the destination of the serial's final queued step.
func (m *SmoothMovement) Last(serial Serial) (Location, bool) {
	q := m.steps[serial]
	if len(q) == 0 {
		return Location{}, false
	}
	return q[len(q)-1].to, true
}

func (m *SmoothMovement) Has(serial Serial) bool { return len(m.steps[serial]) > 0 }

// Clear drops every queued step of serial.
func (m *SmoothMovement) Clear(serial Serial) { delete(m.steps, serial) }

func (m *SmoothMovement) Reset() { clear(m.steps) }

func (m *SmoothMovement) Len() int { return len(m.steps) }

// Update advances every queue by elapsed ms and reports the resulting
// location and facing through apply. Leftover time carries into the next step.
func (m *SmoothMovement) Update(elapsed int64, apply func(serial Serial, loc Location, dir uint8)) {
	for serial, q := range m.steps {
		left := elapsed
		var loc Location
		var dir uint8
		for len(q) > 0 {
			st := &q[0]
			st.elapsed += left
			dir = st.dir
			if st.elapsed < st.duration {
				f := float64(st.elapsed) / float64(st.duration)
				loc = Location{
					X: st.from.X + (st.to.X-st.from.X)*f,
					Y: st.from.Y + (st.to.Y-st.from.Y)*f,
					Z: st.from.Z + (st.to.Z-st.from.Z)*f,
				}
				left = 0
				break
			}
			left = st.elapsed - st.duration
			loc = st.to
			q = q[1:]
		}
		if len(q) == 0 {
			delete(m.steps, serial)
		} else {
			m.steps[serial] = q
		}
		apply(serial, loc, dir)
	}
}
