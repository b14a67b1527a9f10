package utils

import (
	"fmt"
	"sync"
)

// DynamicFanOut copies every input value into all currently spawned outputs.
// Outputs live as long as the input and every one of them has to be drained.
type DynamicFanOut[T any] struct {
	input    <-chan T
	inputCap int

	closed  bool
	mutex   sync.Mutex
	outputs []chan T
}

func NewDynamicFanOut[T any](input <-chan T) *DynamicFanOut[T] {
	f := DynamicFanOut[T]{
		input:    input,
		inputCap: cap(input),
	}
	go f.run()
	return &f
}

func (f *DynamicFanOut[T]) run() {
	for e := range f.input {
		f.mutex.Lock()
		for _, o := range f.outputs {
			o <- e
		}
		f.mutex.Unlock()
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.closed = true
	for _, o := range f.outputs {
		close(o)
	}
	f.outputs = nil
}

// SpawnOutput creates new output channel, closed together with the input.
// Output channel has the size of input channel, at least 1.
func (f *DynamicFanOut[T]) SpawnOutput() (<-chan T, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return nil, fmt.Errorf("input channel is closed")
	}

	ocap := f.inputCap
	if ocap == 0 {
		ocap = 1
	}
	output := make(chan T, ocap)
	f.outputs = append(f.outputs, output)
	return output, nil
}

// FanOut duplicates input into two outputs, both have to be drained
func FanOut[T any](input <-chan T) (<-chan T, <-chan T) {
	size := cap(input)
	if size == 0 {
		size = 1
	}
	var output1 = make(chan T, size)
	var output2 = make(chan T, size)

	go func() {
		for v := range input {
			output1 <- v
			output2 <- v
		}
		close(output1)
		close(output2)
	}()
	return output1, output2
}
