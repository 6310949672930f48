// Package evaluator implements the batched neural-network inference
// dispatcher shared by AlphaZero-style self-play actors. Many actor
// goroutines call Inference/Evaluate/Prior concurrently; the Evaluator
// coalesces cache-missed requests into fixed-size batches and dispatches
// them to one or more model replicas through a DeviceManager.
//
// It is structured into small files by concern, the way a production
// dispatcher tends to accrete:
//
//   - types.go: the Game/Model contracts consumed from outside, and the
//     value types (InferenceInputs/InferenceOutputs) that cross them.
//   - config.go: Config and package defaults; New applies defaults.
//   - device.go: DeviceManager, the thin round-robin model-replica registry.
//   - errors.go: typed errors and IsShutdown/IsModelFailure predicates.
//   - lifecycle.go: StopToken, the cooperative shutdown signal.
//   - stats.go: batch-size statistics, mirrored into Prometheus collectors.
//   - runner.go: the batch-assembly loop run by each runner goroutine.
//   - evaluator.go: Evaluator construction and the public Inference/
//     Evaluate/Prior/Stop surface.
//   - tracing.go: optional OpenTelemetry spans around calls and batches.
//
// External packages should use only the exported surface (New, Inference,
// Evaluate, Prior, CacheInfo, BatchSizeStats, Stop, and the DeviceManager/
// Model/Game contracts); internal wiring is subject to change.
package evaluator
