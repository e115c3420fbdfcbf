package wwv

/*------------------------------------------------------------------
 *
 * Purpose:	Thin structured-logging handle shared by every detector
 *		that wants to log without importing charmbracelet/log
 *		directly (keeps this package's public surface free of a
 *		third-party logger type in every constructor signature).
 *
 *----------------------------------------------------------------*/

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the package-wide default, configured for CSV-adjacent plain
// text output at Info level. Callers (typically cmd/wwvsyncd) may replace
// it with a differently configured logger before building detectors.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "wwv",
})
