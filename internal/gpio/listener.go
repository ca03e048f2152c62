package gpio

import (
	"log/slog"

	"github.com/sweeney/breathwork/internal/phase"
	"github.com/sweeney/breathwork/internal/session"
)

// Follow returns a session listener that mirrors the displayed colour onto
// light. The LED is lit only while chromotherapy is active and is only
// written when the colour changes.
func Follow(light Light, logger *slog.Logger) func(session.State) {
	if logger == nil {
		logger = slog.Default()
	}
	lit := false
	var last phase.RGB
	return func(s session.State) {
		if !s.ChromotherapyActive {
			if !lit {
				return
			}
			lit = false
			if err := light.Off(); err != nil {
				logger.Warn("led off failed", "error", err)
			}
			return
		}
		if lit && s.Color == last {
			return
		}
		lit, last = true, s.Color
		if err := light.SetColor(s.Color); err != nil {
			logger.Warn("led update failed", "color", s.Color.Hex(), "error", err)
		}
	}
}
