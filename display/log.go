package display

import (
	"github.com/chazu/kestrel/vm"
	"github.com/tliron/commonlog"
)

var (
	log         = commonlog.GetLogger("kestrel.display")
	asCodingLog = vm.CodingErrorLogger()
)
