package clock

import "errors"

// ErrSimulationDisabled is returned when an override is set while simulation
// mode is off.
var ErrSimulationDisabled = errors.New("clock simulation is disabled")
