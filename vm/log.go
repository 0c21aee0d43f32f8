package vm

import "github.com/tliron/commonlog"

var (
	log = commonlog.GetLogger("kestrel.vm")

	// asCodingLog receives script coding errors: writes to read-only
	// properties, bad watch requests and the like. They never abort the
	// running action.
	asCodingLog = commonlog.GetLogger("kestrel.ascoding")
)

// CodingErrorLogger returns the logger used for script coding errors so
// other packages report them on the same channel.
func CodingErrorLogger() commonlog.Logger {
	return asCodingLog
}
