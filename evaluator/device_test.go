package evaluator

import "testing"

type stubModel struct{ id int }

func (m stubModel) Inference(batch []InferenceInputs) ([]InferenceOutputs, error) {
	return make([]InferenceOutputs, len(batch)), nil
}

func TestDeviceManagerGetOnEmptyReturnsNil(t *testing.T) {
	dm := NewDeviceManager()
	if dm.Get(1) != nil {
		t.Fatalf("Get() on empty manager should return nil")
	}
}

func TestDeviceManagerRoundRobin(t *testing.T) {
	dm := NewDeviceManager()
	dm.AddDevice(stubModel{id: 0})
	dm.AddDevice(stubModel{id: 1})

	var seen []int
	for i := 0; i < 4; i++ {
		ref := dm.Get(1)
		seen = append(seen, ref.model.(stubModel).id)
	}
	want := []int{0, 1, 0, 1}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("round robin order = %v, want %v", seen, want)
		}
	}
}
