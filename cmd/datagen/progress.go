package main

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/fastygo/shopgen/repository"
)

// stageBars draws one progress bar per generation stage on stderr.
type stageBars struct {
	visible bool
	bar     *progressbar.ProgressBar
}

func newStageBars(visible bool) *stageBars {
	return &stageBars{visible: visible}
}

func (s *stageBars) StageStarted(entity string, total int) {
	s.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(entity),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetVisibility(s.visible),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { _, _ = os.Stderr.WriteString("\n") }),
	)
}

func (s *stageBars) RowsGenerated(n int) {
	if s.bar != nil {
		_ = s.bar.Add(n)
	}
}

func (s *stageBars) StageFinished(string, int) {
	if s.bar != nil {
		_ = s.bar.Finish()
	}
}

// tableBar advances once per table copied into the source database.
func tableBar(visible bool) repository.TableObserver {
	bar := progressbar.NewOptions(4,
		progressbar.OptionSetDescription("loading tables"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionShowCount(),
	)
	return func(table string, _ int64) {
		bar.Describe("loaded " + table)
		_ = bar.Add(1)
	}
}
