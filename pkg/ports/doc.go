/*
Package ports defines the driven ports (interfaces) of the setpoint engine.

These interfaces decouple the recipe engine from devices, configuration
storage and persistence, so the same engine drives a furnace, a linear stage
or a mass-flow controller.

# Key Interfaces

  - DeviceSink: Accepts Commands and reports live measurements.
  - LimitSource: Supplies the (live-reloadable) operating bounds.
  - Timer: Schedules the next tick; owned by the host's event loop.
  - RecipeLoader: Retrieves authored recipes per axis.
  - RunStore: Journals runs for later inspection.
  - DistributedLocker: Guarantees a single owner per axis across processes.
*/
package ports
