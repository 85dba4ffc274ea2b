package progress

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/panbanda/scry/pkg/analyzer"
)

func TestNewTracker(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "Analyzing")

	if tracker.bar == nil {
		t.Fatal("tracker.bar should not be nil")
	}
	if tracker.label != "Analyzing" {
		t.Errorf("tracker.label = %q, want %q", tracker.label, "Analyzing")
	}
}

func TestUpdateGrowsTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "Analyzing")

	tracker.Update(1, 4, "a.js")
	if got := tracker.bar.GetMax(); got != 4 {
		t.Errorf("max = %d, want 4", got)
	}

	tracker.Update(2, 8, "b.js")
	if got := tracker.bar.GetMax(); got != 8 {
		t.Errorf("max = %d, want 8", got)
	}
	tracker.FinishSuccess()
}

func TestFuncDrivesBarFromTracker(t *testing.T) {
	var buf bytes.Buffer
	bar := NewTracker(&buf, "Analyzing")
	tr := analyzer.NewTracker(bar.Func())
	tr.Add(50)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Tick("f.js")
		}()
	}
	wg.Wait()

	if got := bar.bar.GetMax(); got != 50 {
		t.Errorf("max = %d, want 50", got)
	}
	bar.FinishSuccess()
}

func TestSpinner(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Scanning")
	for i := 0; i < 5; i++ {
		s.Tick()
	}
	s.FinishSuccess()
}

func TestFinishMessages(t *testing.T) {
	t.Run("skipped", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewTracker(&buf, "dependencies")
		tracker.FinishSkipped("no manifest")
		if !strings.Contains(buf.String(), "dependencies skipped (no manifest)") {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("error", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewTracker(&buf, "analysis")
		tracker.FinishError(errors.New("boom"))
		if !strings.Contains(buf.String(), "analysis error: boom") {
			t.Errorf("output = %q", buf.String())
		}
	})
}
