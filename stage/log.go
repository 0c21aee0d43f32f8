package stage

import (
	"github.com/chazu/kestrel/vm"
	"github.com/tliron/commonlog"
)

var (
	log         = commonlog.GetLogger("kestrel.stage")
	loaderLog   = commonlog.GetLogger("kestrel.loader")
	asCodingLog = vm.CodingErrorLogger()
)
