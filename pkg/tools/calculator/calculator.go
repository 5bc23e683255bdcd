// Package calculator provides arithmetic tools.
package calculator

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolchat/pkg/schema"
	"github.com/effective-security/toolchat/pkg/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolchat", "calculator")

// CalculationResult is the structured result of an arithmetic operation.
type CalculationResult struct {
	Operation string    `json:"operation" jsonschema:"title=operation,description=Arithmetic operation that was performed."`
	Operands  []float64 `json:"operands" jsonschema:"title=operands,description=Numbers that were used in the calculation."`
	Result    float64   `json:"result" jsonschema:"title=result,description=Result of the arithmetic operation."`
}

// AddRequest is the input of the add_numbers tool.
type AddRequest struct {
	Values []float64 `json:"values" jsonschema:"title=values,description=Numbers to add together."`
}

// SubtractRequest is the input of the subtract tool.
type SubtractRequest struct {
	Minuend    float64 `json:"minuend" jsonschema:"title=minuend,description=Number to subtract from."`
	Subtrahend float64 `json:"subtrahend" jsonschema:"title=subtrahend,description=Number to subtract."`
}

// MultiplyRequest is the input of the multiply_numbers tool.
type MultiplyRequest struct {
	Values []float64 `json:"values" jsonschema:"title=values,description=Numbers to multiply together."`
}

// AddTool adds numbers together.
type AddTool struct {
	funcParams any
}

var (
	_ tools.Tool[AddRequest, CalculationResult]      = (*AddTool)(nil)
	_ tools.Tool[SubtractRequest, CalculationResult] = (*SubtractTool)(nil)
	_ tools.Tool[MultiplyRequest, CalculationResult] = (*MultiplyTool)(nil)
	_ tools.IMCPTool                                 = (*AddTool)(nil)
	_ tools.IMCPTool                                 = (*SubtractTool)(nil)
	_ tools.IMCPTool                                 = (*MultiplyTool)(nil)
)

// NewAdd returns the add_numbers tool.
func NewAdd() (*AddTool, error) {
	sc, err := schema.New(reflect.TypeOf(AddRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &AddTool{funcParams: sc.Parameters}, nil
}

func (t *AddTool) Name() string {
	return "add_numbers"
}

func (t *AddTool) Description() string {
	return "Add numbers together and return the sum."
}

func (t *AddTool) Parameters() any {
	return t.funcParams
}

func (t *AddTool) Run(ctx context.Context, req *AddRequest) (*CalculationResult, error) {
	if len(req.Values) == 0 {
		return nil, errors.New("at least one value is required to perform addition")
	}
	var sum float64
	for _, v := range req.Values {
		sum += v
	}
	logger.ContextKV(ctx, xlog.DEBUG, "tool", t.Name(), "operands", len(req.Values), "result", sum)
	return &CalculationResult{
		Operation: "addition",
		Operands:  req.Values,
		Result:    sum,
	}, nil
}

func (t *AddTool) Call(ctx context.Context, input string) (string, error) {
	var req AddRequest
	if err := json.Unmarshal([]byte(input), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	return runJSON(ctx, t, &req)
}

func (t *AddTool) RegisterMCP(registrator tools.McpServerRegistrator) error {
	return registrator.RegisterTool(t)
}

// SubtractTool subtracts the second number from the first.
type SubtractTool struct {
	funcParams any
}

// NewSubtract returns the subtract tool.
func NewSubtract() (*SubtractTool, error) {
	sc, err := schema.New(reflect.TypeOf(SubtractRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &SubtractTool{funcParams: sc.Parameters}, nil
}

func (t *SubtractTool) Name() string {
	return "subtract"
}

func (t *SubtractTool) Description() string {
	return "Subtract the second number from the first and return the difference."
}

func (t *SubtractTool) Parameters() any {
	return t.funcParams
}

func (t *SubtractTool) Run(ctx context.Context, req *SubtractRequest) (*CalculationResult, error) {
	result := req.Minuend - req.Subtrahend
	logger.ContextKV(ctx, xlog.DEBUG, "tool", t.Name(), "result", result)
	return &CalculationResult{
		Operation: "subtraction",
		Operands:  []float64{req.Minuend, req.Subtrahend},
		Result:    result,
	}, nil
}

func (t *SubtractTool) Call(ctx context.Context, input string) (string, error) {
	var req SubtractRequest
	if err := json.Unmarshal([]byte(input), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	return runJSON(ctx, t, &req)
}

func (t *SubtractTool) RegisterMCP(registrator tools.McpServerRegistrator) error {
	return registrator.RegisterTool(t)
}

// MultiplyTool multiplies numbers together.
type MultiplyTool struct {
	funcParams any
}

// NewMultiply returns the multiply_numbers tool.
func NewMultiply() (*MultiplyTool, error) {
	sc, err := schema.New(reflect.TypeOf(MultiplyRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &MultiplyTool{funcParams: sc.Parameters}, nil
}

func (t *MultiplyTool) Name() string {
	return "multiply_numbers"
}

func (t *MultiplyTool) Description() string {
	return "Multiply numbers together and return the product."
}

func (t *MultiplyTool) Parameters() any {
	return t.funcParams
}

func (t *MultiplyTool) Run(ctx context.Context, req *MultiplyRequest) (*CalculationResult, error) {
	if len(req.Values) == 0 {
		return nil, errors.New("at least one value is required to perform multiplication")
	}
	product := 1.0
	for _, v := range req.Values {
		product *= v
	}
	logger.ContextKV(ctx, xlog.DEBUG, "tool", t.Name(), "operands", len(req.Values), "result", product)
	return &CalculationResult{
		Operation: "multiplication",
		Operands:  req.Values,
		Result:    product,
	}, nil
}

func (t *MultiplyTool) Call(ctx context.Context, input string) (string, error) {
	var req MultiplyRequest
	if err := json.Unmarshal([]byte(input), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	return runJSON(ctx, t, &req)
}

func (t *MultiplyTool) RegisterMCP(registrator tools.McpServerRegistrator) error {
	return registrator.RegisterTool(t)
}

// All returns all calculator tools.
func All() ([]tools.IMCPTool, error) {
	add, err := NewAdd()
	if err != nil {
		return nil, err
	}
	sub, err := NewSubtract()
	if err != nil {
		return nil, err
	}
	mul, err := NewMultiply()
	if err != nil {
		return nil, err
	}
	return []tools.IMCPTool{add, sub, mul}, nil
}

func runJSON[I any](ctx context.Context, t tools.Tool[I, CalculationResult], req *I) (string, error) {
	out, err := t.Run(ctx, req)
	if err != nil {
		return "", err
	}
	bs, err := json.Marshal(out)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal output")
	}
	return string(bs), nil
}
