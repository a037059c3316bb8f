/*
Package domain contains the core models of the setpoint recipe engine.

It defines what an authored recipe is, what it compiles into, and what the
engine reports while it plays one back. The package is kept pure and free of
I/O, following Hexagonal Architecture principles.

# Key Entities

  - Recipe: A named list of authored records plus a loop count.
  - Segment: One parsed record (jump, ramp, native ramp, power jump, power ramp).
  - CompiledStep: One time-expanded, bounds-checked instruction.
  - Command: What the engine pushes to a device for a single step.
  - RunState: The snapshot of the sequencer (idle, running, finished, aborted).
  - Capabilities: What a device accepts (signed values or magnitude+direction,
    position tracking, native ramps, a secondary channel).
*/
package domain
