// Package integration contains the Integration bounded context.
// This context checks whether the external services the console is
// configured for can be reached.
//
// Key concepts:
//   - Probe: Port interface for a one-shot reachability check
//   - State: per-probe status shown by the integration test panel
//   - Channel names for the two real probes and the two demonstration channels
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
