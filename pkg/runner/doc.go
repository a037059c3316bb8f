/*
Package runner hosts a setpoint engine on a goroutine of its own.

The engine is a cooperative state machine that must never be called
concurrently. A Driver owns one engine per axis and funnels every call
(Start, Stop, Preview, ...) and every wall-clock tick through a single loop,
so HTTP handlers, MCP tools and signal handlers can share an axis safely.

Ticks are tagged with the generation of the timer that produced them. Stopping
a run bumps the generation, which turns any tick already in flight into a no-op.

# Usage

	d, err := runner.NewDriver("furnace", sink, limits,
		runner.WithLogger(logger),
		runner.WithJournal(store),
		runner.WithEngineOptions(setpoint.WithCapabilities(domain.ProfileThermal)),
	)
	if err != nil {
		log.Fatal(err)
	}
	go d.Run(ctx)

	if err := d.Start(ctx, recipe); err != nil {
		log.Fatal(err)
	}
	state, err := d.Wait(ctx)
*/
package runner
