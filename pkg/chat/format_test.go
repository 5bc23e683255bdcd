package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FormatArguments(t *testing.T) {
	tcases := []struct {
		raw string
		exp string
	}{
		{`{}`, `{}`},
		{``, `{}`},
		{`{"values": [3, 4]}`, `{'values': [3, 4]}`},
		{`{"state_abbreviated": "WA"}`, `{'state_abbreviated': 'WA'}`},
		{`{"latitude": 39.0997, "longitude": -94.5783}`, `{'latitude': 39.0997, 'longitude': -94.5783}`},
		{`{"b": 2, "a": 1}`, `{'b': 2, 'a': 1}`},
		{`{"flag": true, "none": null}`, `{'flag': True, 'none': None}`},
		{`{"text": "it's"}`, `{'text': 'it\'s'}`},
		{`{"nested": {"x": [1, {"y": "z"}]}}`, `{'nested': {'x': [1, {'y': 'z'}]}}`},
	}
	for _, tc := range tcases {
		t.Run(tc.raw, func(t *testing.T) {
			args, err := parseArguments(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.exp, formatArguments(args))
		})
	}
}

func Test_ParseArguments_Invalid(t *testing.T) {
	_, err := parseArguments(`{not json`)
	require.Error(t, err)
	_, err = parseArguments(`[1, 2]`)
	require.Error(t, err)
}

func Test_FormatValue_Numbers(t *testing.T) {
	assert.Equal(t, "3", formatValue(float64(3)))
	assert.Equal(t, "3.5", formatValue(3.5))
	assert.Equal(t, "-94.5783", formatValue(-94.5783))
}
