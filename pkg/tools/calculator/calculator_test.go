package calculator_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/effective-security/toolchat/pkg/tools"
	"github.com/effective-security/toolchat/pkg/tools/calculator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Add(t *testing.T) {
	tool, err := calculator.NewAdd()
	require.NoError(t, err)
	assert.Equal(t, "add_numbers", tool.Name())
	assert.NotEmpty(t, tool.Description())
	assert.NotNil(t, tool.Parameters())

	res, err := tool.Run(context.Background(), &calculator.AddRequest{Values: []float64{3, 4}})
	require.NoError(t, err)
	assert.Equal(t, "addition", res.Operation)
	assert.Equal(t, []float64{3, 4}, res.Operands)
	assert.Equal(t, float64(7), res.Result)

	_, err = tool.Run(context.Background(), &calculator.AddRequest{})
	require.EqualError(t, err, "at least one value is required to perform addition")
}

func Test_Add_Call(t *testing.T) {
	tool, err := calculator.NewAdd()
	require.NoError(t, err)

	out, err := tool.Call(context.Background(), `{"values": [1.5, 2, 3]}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"operation":"addition","operands":[1.5,2,3],"result":6.5}`, out)

	_, err = tool.Call(context.Background(), `{not json`)
	require.ErrorIs(t, err, tools.ErrFailedUnmarshalInput)
}

func Test_Subtract(t *testing.T) {
	tool, err := calculator.NewSubtract()
	require.NoError(t, err)
	assert.Equal(t, "subtract", tool.Name())

	res, err := tool.Run(context.Background(), &calculator.SubtractRequest{Minuend: 10, Subtrahend: 4})
	require.NoError(t, err)
	assert.Equal(t, "subtraction", res.Operation)
	assert.Equal(t, []float64{10, 4}, res.Operands)
	assert.Equal(t, float64(6), res.Result)

	out, err := tool.Call(context.Background(), `{"minuend": 2, "subtrahend": 5}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"operation":"subtraction","operands":[2,5],"result":-3}`, out)
}

func Test_Multiply(t *testing.T) {
	tool, err := calculator.NewMultiply()
	require.NoError(t, err)
	assert.Equal(t, "multiply_numbers", tool.Name())

	res, err := tool.Run(context.Background(), &calculator.MultiplyRequest{Values: []float64{2, 3, 4}})
	require.NoError(t, err)
	assert.Equal(t, "multiplication", res.Operation)
	assert.Equal(t, float64(24), res.Result)

	_, err = tool.Run(context.Background(), &calculator.MultiplyRequest{})
	require.EqualError(t, err, "at least one value is required to perform multiplication")
}

func Test_All(t *testing.T) {
	list, err := calculator.All()
	require.NoError(t, err)
	require.Len(t, list, 3)

	names := make([]string, 0, len(list))
	for _, tool := range list {
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{"add_numbers", "subtract", "multiply_numbers"}, names)
}

func Test_Parameters_Schema(t *testing.T) {
	tool, err := calculator.NewAdd()
	require.NoError(t, err)

	js, err := json.Marshal(tool.Parameters())
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(js, &parsed))
	assert.Equal(t, "object", parsed["type"])
	props, ok := parsed["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "values")
}
