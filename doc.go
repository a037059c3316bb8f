/*
Package setpoint plays back pre-programmed setpoint recipes on laboratory
equipment: motorized axes, temperature controllers, gas and vacuum channels.

A recipe is a list of records "duration;value;kind[;extra...]":

	5;10;s        jump to 10 and hold for 5 s
	10;20;r;2     ramp to 20 over 10 s in 2 s steps
	60;300;er     let the controller ramp to 300 on its own
	30;300;op;45  jump to 300 with secondary output 45
	30;80;opr;5   ramp the secondary output to 80 in 5 s steps

Every Start compiles the recipe against fresh limits and measurements
(parse, expand ramps, validate bounds, replicate loops). A recipe that fails
any check never reaches the device. The compiled steps are then played by a
cooperative sequencer that the host advances with Tick whenever its timer
fires.

# Usage

	eng, err := setpoint.New("furnace", device, limits,
		setpoint.WithCapabilities(domain.ProfileThermal),
		setpoint.WithTimer(timer),
	)
	if err != nil { ... }
	if err := eng.Start(ctx, recipe); err != nil { ... }
	// on every timer expiry:
	_ = eng.Tick(ctx)

For a goroutine-safe host with a wall-clock timer, see pkg/runner.
*/
package setpoint
