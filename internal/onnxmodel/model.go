// Package onnxmodel is a demonstration evaluator.Model backed by an ONNX
// Runtime session. It exists to give cmd/evalbench a real model to drive
// instead of a fixture: the Evaluator treats it as an opaque batched
// policy/value function, exactly the contract evaluator.Model requires.
//
// Session and tensor plumbing follows the single-session, persistent-tensor
// pattern used by a batched board-game evaluator elsewhere in this
// ecosystem: pre-allocate input/output tensors sized to the fixed
// batch_size, re-bind the backing slices each call, and invoke Run
// synchronously.
package onnxmodel

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Skizdukion/my-open-spiel/evaluator"
)

// Shape describes the fixed tensor dimensions a Model session is built for.
// ObservationSize is the length of one flattened observation tensor;
// PolicySize is the number of columns in the model's raw policy output
// (indexed by action id 0..PolicySize-1).
type Shape struct {
	BatchSize       int
	ObservationSize int
	PolicySize      int
}

// Model runs a fixed-shape ONNX session against batches the Evaluator hands
// it. Inference calls on one Model are serialized by an internal mutex,
// because the DeviceManager's round robin can hand the same replica to
// several runners whose batches are in flight at once.
type Model struct {
	shape Shape

	mu      sync.Mutex
	session *ort.AdvancedSession

	obsInput    []float32
	policyOut   []float32
	valueOut    []float32
	inputTensor *ort.Tensor[float32]
	policyT     *ort.Tensor[float32]
	valueT      *ort.Tensor[float32]
}

var _ evaluator.Model = (*Model)(nil)

// New builds a Model by loading an ONNX session from modelPath with
// libPath pointing at the ONNX Runtime shared library. The session's
// input/output tensors are pre-allocated at shape.BatchSize and reused for
// every Inference call, so the accelerator never sees a varying tensor
// shape across calls — the same discipline the dispatcher's own padding
// enforces upstream.
func New(modelPath, libPath string, shape Shape) (*Model, error) {
	if !ort.IsInitialized() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("onnxmodel: initialize runtime: %w", err)
		}
	}

	obsInput := make([]float32, shape.BatchSize*shape.ObservationSize)
	policyOut := make([]float32, shape.BatchSize*shape.PolicySize)
	valueOut := make([]float32, shape.BatchSize)

	inShape := ort.NewShape(int64(shape.BatchSize), int64(shape.ObservationSize))
	policyShape := ort.NewShape(int64(shape.BatchSize), int64(shape.PolicySize))
	valueShape := ort.NewShape(int64(shape.BatchSize))

	inputTensor, err := ort.NewTensor(inShape, obsInput)
	if err != nil {
		return nil, fmt.Errorf("onnxmodel: create input tensor: %w", err)
	}
	policyTensor, err := ort.NewTensor(policyShape, policyOut)
	if err != nil {
		return nil, fmt.Errorf("onnxmodel: create policy tensor: %w", err)
	}
	valueTensor, err := ort.NewTensor(valueShape, valueOut)
	if err != nil {
		return nil, fmt.Errorf("onnxmodel: create value tensor: %w", err)
	}

	so, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnxmodel: create session options: %w", err)
	}
	defer so.Destroy()

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"observation"},
		[]string{"policy", "value"},
		[]ort.Value{inputTensor},
		[]ort.Value{policyTensor, valueTensor},
		so,
	)
	if err != nil {
		return nil, fmt.Errorf("onnxmodel: create session: %w", err)
	}

	return &Model{
		shape:       shape,
		session:     session,
		obsInput:    obsInput,
		policyOut:   policyOut,
		valueOut:    valueOut,
		inputTensor: inputTensor,
		policyT:     policyTensor,
		valueT:      valueTensor,
	}, nil
}

// Inference implements evaluator.Model. batch must contain exactly
// shape.BatchSize entries — the runner always pads to that size before
// calling, per spec.md §4.4 step 5, so this never runs a partial shape.
func (m *Model) Inference(batch []evaluator.InferenceInputs) ([]evaluator.InferenceOutputs, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(batch) != m.shape.BatchSize {
		return nil, fmt.Errorf("onnxmodel: expected batch of %d, got %d", m.shape.BatchSize, len(batch))
	}

	for i, in := range batch {
		copy(m.obsInput[i*m.shape.ObservationSize:], in.Observation)
	}

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("onnxmodel: session run: %w", err)
	}

	out := make([]evaluator.InferenceOutputs, len(batch))
	for i, in := range batch {
		row := m.policyOut[i*m.shape.PolicySize : (i+1)*m.shape.PolicySize]
		policy := make(evaluator.Policy, len(in.LegalActions))
		var sum float64
		for _, a := range in.LegalActions {
			v := float64(row[a])
			if v < 0 {
				v = 0
			}
			policy[a] = v
			sum += v
		}
		if sum > 0 {
			for a := range policy {
				policy[a] /= sum
			}
		}
		out[i] = evaluator.InferenceOutputs{Value: m.valueOut[i], Policy: policy}
	}
	return out, nil
}

// Close releases the session and its bound tensors. Call once, after the
// Evaluator that holds this Model has been stopped.
func (m *Model) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
	for _, v := range []ort.Value{m.inputTensor, m.policyT, m.valueT} {
		if v != nil {
			v.Destroy()
		}
	}
}
