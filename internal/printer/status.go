package printer

import (
	"receipt-print/internal/session"
	"receipt-print/internal/tspl"
)

var statusBits = []struct {
	bit  byte
	flag session.StatusFlags
}{
	{tspl.StatusHeadOpen, session.StatusCoverOpen},
	{tspl.StatusPaperJam, session.StatusPaperJam},
	{tspl.StatusPaperOut, session.StatusPaperOut},
	{tspl.StatusRibbonOut, session.StatusRibbonOut},
	{tspl.StatusPaused, session.StatusPaused},
	{tspl.StatusPrinting, session.StatusPrinting},
	{tspl.StatusOther, session.StatusError},
}

// decodeStatus maps a TSPL status byte to status flags
func decodeStatus(b byte) session.StatusFlags {
	var f session.StatusFlags
	for _, s := range statusBits {
		if b&s.bit != 0 {
			f |= s.flag
		}
	}
	return f
}
