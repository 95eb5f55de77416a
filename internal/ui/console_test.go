package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPrintTable(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	c := &Console{Out: &buf}

	c.PrintTable([]string{"index", "value"}, [][]string{
		{"ndvi", "0.75"},
		{"rendvi", "0.3208"},
	})
	assert.Equal(t, "index   value\nndvi    0.75\nrendvi  0.3208\n", buf.String())
}

func TestPrintMessages(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	c := &Console{Out: &buf}

	c.PrintWarning("no scenes found")
	c.PrintError("boom")
	c.PrintSuccess("map saved")
	assert.Equal(t, "Warning: no scenes found\n\nError: boom\n\nmap saved\n", buf.String())
}
