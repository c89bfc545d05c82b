// Package wasm evaluates coalition utilities with a WebAssembly module. The
// module must export a function taking the coalition bitmask as i64 and
// returning the utility as f64.
package wasm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/absmach/shapley/pkg/coalition"
	"github.com/absmach/shapley/pkg/utility"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

const DefaultFunction = "utility"

var (
	ErrFunctionNotFound  = errors.New("failed to find exported utility function")
	ErrInvalidSignature  = errors.New("utility function must have signature (i64) -> f64")
	ErrEmptyModuleBinary = errors.New("empty wasm module")
)

var _ utility.Evaluator = (*Evaluator)(nil)

type Evaluator struct {
	// A module instance is not safe for concurrent calls.
	mu      sync.Mutex
	runtime wazero.Runtime
	fn      api.Function
}

func New(ctx context.Context, wasmBinary []byte, functionName string) (*Evaluator, error) {
	if len(wasmBinary) == 0 {
		return nil, ErrEmptyModuleBinary
	}
	if functionName == "" {
		functionName = DefaultFunction
	}

	r := wazero.NewRuntime(ctx)

	// Instantiate WASI, which implements host functions needed for TinyGo to
	// implement `panic`.
	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	module, err := r.InstantiateWithConfig(ctx, wasmBinary, wazero.NewModuleConfig().WithStartFunctions("_initialize"))
	if err != nil {
		_ = r.Close(ctx)

		return nil, errors.Join(errors.New("failed to instantiate Wasm module"), err)
	}

	fn := module.ExportedFunction(functionName)
	if fn == nil {
		_ = r.Close(ctx)

		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, functionName)
	}

	def := fn.Definition()
	params, results := def.ParamTypes(), def.ResultTypes()
	if len(params) != 1 || params[0] != api.ValueTypeI64 || len(results) != 1 || results[0] != api.ValueTypeF64 {
		_ = r.Close(ctx)

		return nil, fmt.Errorf("%w: %s", ErrInvalidSignature, functionName)
	}

	return &Evaluator{
		runtime: r,
		fn:      fn,
	}, nil
}

func NewFromFile(ctx context.Context, path, functionName string) (*Evaluator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wasm module: %w", err)
	}

	return New(ctx, data, functionName)
}

func (e *Evaluator) Evaluate(ctx context.Context, c coalition.Coalition) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	results, err := e.fn.Call(ctx, c.Key())
	if err != nil {
		return 0, fmt.Errorf("failed to call utility function: %w", err)
	}

	return api.DecodeF64(results[0]), nil
}

func (e *Evaluator) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}
