// Package simulation provides a multi-tick test harness for validating the
// emergent dynamics and invariants of the colony model.
//
// The harness exercises the real model.Model with a seeded random source, no
// mocks. A Scenario describes the initial configuration, optional setup
// hooks and a tick count; the Runner captures a snapshot before and after
// every tick so that property assertions can compare consecutive states.
//
// Usage:
//
//	func TestTrailMonotonic(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:   "default-colony",
//	        Config: model.Config{NumAnts: 5, Width: 25, Height: 25},
//	        Seed:   7,
//	        Ticks:  200,
//	    })
//	    simulation.AssertPheromoneMonotonic(t, result)
//	}
package simulation
