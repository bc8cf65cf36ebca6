package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in       string
		want     time.Time
		wantZero bool
		wantErr  bool
	}{
		{in: `"2024-03-01"`, want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{in: `"2024-03-01T10:30"`, want: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)},
		{in: `"2024-03-01T10:30:00+05:30"`, want: time.Date(2024, 3, 1, 5, 0, 0, 0, time.UTC)},
		{in: `""`, wantZero: true},
		{in: `"  "`, wantZero: true},
		{in: `null`, wantZero: true},
		{in: `"yesterday"`, wantErr: true},
		{in: `20240301`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if tt.wantZero {
				assert.True(t, d.IsZero())
				return
			}
			assert.True(t, tt.want.Equal(d.Time), d.Time)
		})
	}
}

func TestNilIfZero(t *testing.T) {
	assert.Nil(t, NilIfZero(nil))
	assert.Nil(t, NilIfZero(&Date{}))
	d := NewDate(time.Now())
	assert.Same(t, d, NilIfZero(d))
}
