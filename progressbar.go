package zipcore

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// NewProgressBarReporter returns a ProgressReporter backed by a terminal progress bar, one bar per member,
// reset at the start of each new name and finalized when done is true.
func NewProgressBarReporter(options ...progressbar.Option) ProgressReporter {
	var bar *progressbar.ProgressBar
	var name string
	var total int64

	return func(entryName string, written int64, done bool) {
		if entryName != name || bar == nil {
			if bar != nil {
				_ = bar.Close()
			}
			name = entryName
			total = -1
			bar = progressbar.NewOptions64(total, append([]progressbar.Option{
				progressbar.OptionSetDescription(fmt.Sprintf("extracting %s", name)),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetWidth(10),
				progressbar.OptionThrottle(100 * 1_000_000),
				progressbar.OptionFullWidth(),
			}, options...)...)
		}

		_ = bar.Set64(written)
		if done {
			_ = bar.Close()
			bar = nil
		}
	}
}
