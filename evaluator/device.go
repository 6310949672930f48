package evaluator

import "sync"

// DeviceManager holds one or more model replicas and hands out a reference
// per inference call. Selection policy is round-robin, which spec.md scopes
// as sufficient — heterogeneous multi-device load balancing is out of
// scope. If a concrete Model implementation requires exclusive use, it must
// serialize internally; the DeviceManager itself never blocks a caller.
type DeviceManager struct {
	mu     sync.Mutex
	models []Model
	next   int
}

// NewDeviceManager creates an empty DeviceManager. Call AddDevice at least
// once before any Get.
func NewDeviceManager() *DeviceManager {
	return &DeviceManager{}
}

// AddDevice registers a model replica.
func (d *DeviceManager) AddDevice(m Model) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.models = append(d.models, m)
}

// Get returns a reference to a replica chosen by round robin. hintBatchSize
// is passed through for symmetry with spec.md's device-selection hint; the
// round-robin policy here ignores it.
func (d *DeviceManager) Get(hintBatchSize int) *ModelRef {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.models) == 0 {
		return nil
	}
	m := d.models[d.next%len(d.models)]
	d.next++
	return &ModelRef{model: m}
}

// ModelRef is a reference to a single model replica, scoped to one
// inference call.
type ModelRef struct {
	model Model
}

// Inference runs the model synchronously with the caller's batch.
func (r *ModelRef) Inference(batch []InferenceInputs) ([]InferenceOutputs, error) {
	return r.model.Inference(batch)
}
