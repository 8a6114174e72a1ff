package step

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		history []string
		offset  int
		want    ID
	}{
		{"no steps", []string{"Initial commit"}, 0, Sub(1, 1)},
		{"empty history", nil, 0, Sub(1, 1)},
		{"after sub step", []string{"Step 1.1: x", "Initial commit"}, 0, Sub(1, 2)},
		{"after super step", []string{"Step 1: x", "Step 1.1: y", "Initial commit"}, 0, Sub(2, 1)},
		{"skips non-step commits", []string{"wip", "Step 2.3: x", "Step 2.2: y"}, 0, Sub(2, 4)},
		{"offset skips head", []string{"Step 1.2: dummy", "Step 1.2: new", "Step 1.1: dummy"}, 1, Sub(1, 3)},
		{"offset on super closes step", []string{"Step 1: tag", "Step 1.3: dummy", "Step 1.2: new"}, 1, Super(1)},
		{"offset on first super", []string{"Step 1: tag", "Initial commit"}, 1, Super(1)},
		{"offset on super after super", []string{"Step 3: tag", "Step 2: tag"}, 1, Super(3)},
		{"offset with nothing before", []string{"Step 4.4: x", "Initial commit"}, 1, Sub(1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.history, tt.offset))
		})
	}
}

func TestNextSuper(t *testing.T) {
	assert.Equal(t, 1, NextSuper(nil, 0))
	assert.Equal(t, 1, NextSuper([]string{"Step 1.2: x"}, 0))
	assert.Equal(t, 2, NextSuper([]string{"Step 1: x"}, 0))
	assert.Equal(t, 2, NextSuper([]string{"Step 2: x", "Step 1: y"}, 1))
}

func TestCurrent(t *testing.T) {
	assert.Nil(t, Current([]string{"Initial commit"}))
	d := Current([]string{"fixup", "Step 2.1: x"})
	if assert.NotNil(t, d) {
		assert.Equal(t, Sub(2, 1), d.ID)
	}
}
