package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type volume struct {
	ID    string `col:"id"`
	Size  string `col:"size"`
	Idle  string `col:"idle,metric"`
	skip  string `col:"skip"`
	Count int    `col:"count"`
	Note  string
}

func TestColumns(t *testing.T) {
	assert.Equal(t, []string{"id", "size"}, Columns(volume{}, false))
	assert.Equal(t, []string{"id", "size", "idle"}, Columns(&volume{}, true))
}

func TestOf(t *testing.T) {
	v := volume{ID: "vol-1", Size: "8", Idle: "97.5", skip: "x", Note: "n"}

	assert.Equal(t, Record{"id": "vol-1", "size": "8", "idle": "97.5"}, Of(&v))
	assert.Equal(t, "x", v.skip)
}
