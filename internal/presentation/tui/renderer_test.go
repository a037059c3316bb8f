package tui

import (
	"bytes"
	"testing"
	"time"

	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepsMarkdown(t *testing.T) {
	up := domain.DirectionUp
	sec := 2.5
	steps := []domain.CompiledStep{
		{Kind: domain.StepHold, Value: 10, Duration: 5 * time.Second},
		{Kind: domain.StepNativeRamp, From: 10, Value: 20, Duration: 10 * time.Second, Slope: 1},
		{Kind: domain.StepHold, Value: 1.25, Duration: time.Second, Direction: &up, Secondary: &sec},
	}

	md := StepsMarkdown("warmup", steps, 100)

	assert.Contains(t, md, "## warmup")
	assert.Contains(t, md, "3 steps, 16s total")
	assert.Contains(t, md, "| 0 | 100 | hold | 10 | 5s | - | - |")
	assert.Contains(t, md, "| 1 | 105 | native_ramp | 10 → 20 | 10s | - | - |")
	assert.Contains(t, md, "| 2 | 115 | hold | 1.25 | 1s | UP | 2.5 |")
}

func TestWritePoints(t *testing.T) {
	var buf bytes.Buffer
	err := WritePoints(&buf, []domain.Point{{T: 0, V: 10}, {T: 5.5, V: 12.125}})
	require.NoError(t, err)
	assert.Equal(t, "0 10\n5.5 12.125\n", buf.String())
}

func TestNewRenderer_PlainOutsideTerminal(t *testing.T) {
	var buf bytes.Buffer
	render := NewRenderer(&buf)

	out, err := render("## title\n")
	require.NoError(t, err)
	assert.Equal(t, "## title\n", out)
	assert.False(t, IsTerminal(&buf))
}

func TestPrintBanner_NoColorOutsideTerminal(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|___/")
	assert.NotContains(t, buf.String(), "\x1b[")
}
