package sim

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/ChatImproVR/particle-life/internal/geom"
)

// ScheduleParams configures the event-driven integrator.
type ScheduleParams struct {
	// FrameDt is the frame's target time span. Every particle ends the
	// call advanced to exactly FrameDt.
	FrameDt float64
	// MaxSteps bounds the number of sub-steps any one particle may
	// take: the per-particle delta time is floored at FrameDt/MaxSteps.
	// Must be >= 1.
	MaxSteps int
	// Damping scales velocities by (1 - Damping) once per frame, after
	// the event queue drains.
	Damping float64
}

// DefaultScheduleParams returns stock event-driven settings.
func DefaultScheduleParams() ScheduleParams {
	return ScheduleParams{FrameDt: 2e-3, MaxSteps: 10, Damping: 0.1}
}

// Validate rejects parameter sets that would never terminate or divide
// by zero.
func (p ScheduleParams) Validate() error {
	if p.FrameDt <= 0 {
		return fmt.Errorf("frame dt must be positive, got %v", p.FrameDt)
	}
	if p.MaxSteps < 1 {
		return fmt.Errorf("max_steps must be >= 1, got %d", p.MaxSteps)
	}
	return nil
}

// event schedules a force re-evaluation for one particle.
type event struct {
	time float64
	idx  uint32
}

// eventQueue is a min-heap of events ordered by time only. Ties pop in
// arbitrary order; updates read extrapolated rather than live neighbor
// state, so tie order carries no correctness weight.
type eventQueue []event

func (q eventQueue) Len() int           { return len(q) }
func (q eventQueue) Less(i, j int) bool { return q[i].time < q[j].time }
func (q eventQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x any)        { *q = append(*q, x.(event)) }
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}

// extrapolate predicts particle j's position and velocity at time t
// from its own last update, without re-simulating it. This is what lets
// particles advance asynchronously.
func extrapolate(s *State, j uint32, t float64) (pos, vel geom.Vec3) {
	dt := t - s.LastTime[j]
	a := s.LastAccel[j]
	pos = s.Pos[j].Add(s.Vel[j].Scale(dt)).Add(a.Scale(dt * dt / 2))
	vel = s.Vel[j].Add(a.Scale(dt))
	return pos, vel
}

// nextDelta picks particle idx's own time step at the given global
// time: the shortest time over all neighbors for the pair to close its
// current separation at its current relative speed, floored at minDt.
// Acceleration is ignored here; the floor also covers near-zero
// relative velocities and isolated particles.
func nextDelta(s *State, cfg *SimConfig, idx uint32, globalTime, minDt float64) float64 {
	myPos, myVel := extrapolate(s, idx, globalTime)

	best := math.Inf(1)
	for _, j := range s.Index.Neighbors(s.Pos, idx, s.Pos[idx]) {
		jPos, jVel := extrapolate(s, j, globalTime)
		distSq := jPos.Sub(myPos).LengthSq()
		velSq := jVel.Sub(myVel).LengthSq()
		if velSq == 0 {
			continue
		}
		if t := distSq / velSq; t < best {
			best = t
		}
	}

	if math.IsInf(best, 1) {
		return minDt
	}
	dt := math.Sqrt(best)
	if dt < minDt {
		return minDt
	}
	return dt
}

// scheduledForce sums the force on idx standing at pos against the
// extrapolated positions of its neighbors at time t.
func scheduledForce(s *State, cfg *SimConfig, idx uint32, pos geom.Vec3, t float64) geom.Vec3 {
	var f geom.Vec3

	neighbors := s.Index.Neighbors(s.Pos, idx, pos)
	for _, j := range neighbors {
		jPos, _ := extrapolate(s, j, t)
		diff := jPos.Sub(pos)
		dist := diff.Length()
		behav := cfg.Behaviour(s.Types[idx], s.Types[j])
		f = f.Add(diff.Normalized().Scale(behav.Force(dist)))
	}

	return f
}

// ScheduledStep advances the population by FrameDt using per-particle
// individual time steps driven by a priority queue.
//
// Fast-interacting pairs re-evaluate forces often while distant
// particles coast on their last known trajectory, so the cost
// concentrates where the dynamics actually are. Each pop advances one
// particle with a second-order (velocity Verlet) update against
// extrapolated neighbor state, patches the index, and reschedules the
// particle until it reaches the frame boundary.
//
// Termination is bounded: every reschedule advances by at least
// FrameDt/MaxSteps, so the queue drains within MaxSteps+1 pops per
// particle.
func ScheduledStep(s *State, cfg *SimConfig, p ScheduleParams) {
	n := s.Len()
	minDt := p.FrameDt / float64(p.MaxSteps)

	// Each frame restarts the local clock at zero. Accelerations carry
	// over from the previous frame's last evaluation.
	for i := range s.LastTime {
		s.LastTime[i] = 0
	}

	q := make(eventQueue, 0, n)
	for i := 0; i < n; i++ {
		q = append(q, event{time: nextDelta(s, cfg, uint32(i), 0, minDt), idx: uint32(i)})
	}
	heap.Init(&q)

	for q.Len() > 0 {
		e := heap.Pop(&q).(event)
		// Never advance past the frame boundary.
		t := math.Min(e.time, p.FrameDt)
		idx := e.idx

		dt := t - s.LastTime[idx]

		// Position first (velocity Verlet), then the new acceleration
		// at the predicted position against extrapolated neighbors.
		oldAccel := s.LastAccel[idx]
		newPos := s.Pos[idx].Add(s.Vel[idx].Scale(dt)).Add(oldAccel.Scale(dt * dt / 2))
		newAccel := scheduledForce(s, cfg, idx, newPos, t)

		s.Vel[idx] = s.Vel[idx].Add(oldAccel.Add(newAccel).Scale(dt / 2))
		s.movePoint(idx, newPos)

		s.LastAccel[idx] = newAccel
		s.LastTime[idx] = t

		if t < p.FrameDt {
			next := nextDelta(s, cfg, idx, t, minDt)
			heap.Push(&q, event{time: t + next, idx: idx})
		}
	}

	// Damping is applied once per frame, globally.
	for i := range s.Vel {
		s.Vel[i] = s.Vel[i].Scale(1 - p.Damping)
	}
}
