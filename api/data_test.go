package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2024-01-10", want: "2024-01-10"},
		{in: " 2024-01-10 ", want: "2024-01-10"},
		{in: "2024-01-10T00:00:00.000Z", want: "2024-01-10"},
		{in: "2024-01-10T23:30:00Z", want: "2024-01-10"},
		{in: "10/01/2024", wantErr: true},
		{in: "2024-13-01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := parseDate(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
			assert.Equal(t, time.UTC, d.Location())
		})
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		Due date `json:"due"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-01-10"}`), &v))
	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2024-01-10"}`, string(out))

	v.Due = date{}
	out, err = json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":null}`, string(out))
}

func TestTaskStatusValid(t *testing.T) {
	for _, s := range taskStatuses {
		assert.True(t, s.valid(), s)
	}
	assert.False(t, taskStatus("Done").valid())
	assert.False(t, taskStatus("").valid())
}
