package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevColor := Out, colorEnabled
	Out = &buf
	SetColor(false)
	t.Cleanup(func() {
		Out = prevOut
		SetColor(prevColor)
	})
	return &buf
}

func TestBar(t *testing.T) {
	assert.Equal(t, "[█████░░░░░] 5/10", Bar(5, 10, 10))
	assert.Equal(t, "[██████████] 15/10", Bar(15, 10, 10), "overshoot is clamped")
	assert.Equal(t, "[░░░░░░░░░░] 0/0", Bar(0, 0, 10))
}

func TestColorDisabled(t *testing.T) {
	capture(t)
	assert.Equal(t, "plain", Red("plain"))

	SetColor(true)
	assert.Equal(t, "\033[31mplain\033[0m", Red("plain"))
}

func TestPrintJob(t *testing.T) {
	buf := capture(t)

	PrintJob(JobLine{Class: "Angus", Term: "angus cow", Count: 10, Target: 10})
	PrintJob(JobLine{Class: "Angus", Term: "angus calf", Count: 3, Target: 10, Aborted: true})
	PrintJob(JobLine{Class: "Angus", Term: "angus bull", Count: 4, Target: 10, Err: errors.New("boom")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "[DONE] Angus \"angus cow\""))
	assert.Contains(t, lines[1], "[STOPPED: DUPLICATES]")
	assert.Contains(t, lines[2], "[INCOMPLETE]")
}

func TestPrintSummary(t *testing.T) {
	buf := capture(t)

	PrintSummary([]SummaryRow{
		{Class: "Angus", Jobs: 11, Images: 1000, Target: 1000},
		{Class: "Hereford", Jobs: 2, Images: 40, Target: 500},
	})

	out := buf.String()
	assert.Contains(t, out, "[SCRAPING SUMMARY]")
	assert.Contains(t, out, "CLASS")
	assert.Contains(t, out, "1000/1000")
	assert.Contains(t, out, "40/500")
}

func TestPrompter(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("Angus\n 3 \nlots\n"), &out)

	class, err := p.Class([]string{"Angus", "Holstein"})
	require.NoError(t, err)
	assert.Equal(t, "Angus", class)
	assert.Contains(t, out.String(), "Available classes: Angus, Holstein")

	n, err := p.Int("How many")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = p.Int("How many")
	assert.Error(t, err)

	_, err = p.String("Anything else")
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestPrompterLastLineWithoutNewline(t *testing.T) {
	p := NewPrompter(strings.NewReader("Holstein"), &bytes.Buffer{})
	answer, err := p.String("Class")
	require.NoError(t, err)
	assert.Equal(t, "Holstein", answer)
}
