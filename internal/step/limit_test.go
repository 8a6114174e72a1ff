package step

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimit(t *testing.T) {
	tests := []struct {
		old, new string
		want     int
	}{
		{"1.2", "1.1", 1},
		{"1.1", "1.2", 1},
		{"1", "1.1", Infinity},
		{"1", "2.1", 2},
		{"2.1", "1", 2},
		{"1", "2", Infinity},
		{"root", "1.1", 1},
		{"1.1", "root", 1},
		{"root", "root", Infinity},
		{"1.3", "3.1", Infinity},
	}
	for _, tt := range tests {
		t.Run(tt.old+"->"+tt.new, func(t *testing.T) {
			old, err := ParseID(tt.old)
			if err != nil {
				t.Fatal(err)
			}
			new, err := ParseID(tt.new)
			if err != nil {
				t.Fatal(err)
			}
			assert.Equal(t, tt.want, Limit(old, new))
		})
	}
}

func TestFormatLimit(t *testing.T) {
	assert.Equal(t, "infinity", FormatLimit(Infinity))
	assert.Equal(t, "2", FormatLimit(2))
}
