package config

import (
	"github.com/tliron/commonlog"
)

// ConfigureLogging applies the [log] section to commonlog. A backend
// must already be registered, normally by importing
// github.com/tliron/commonlog/simple in the binary.
func (c *Config) ConfigureLogging() {
	var path *string
	if p := c.LogFilePath(); p != "" {
		path = &p
	}
	commonlog.Configure(c.Log.Verbosity, path)
	if !c.Log.ASCodingErrors {
		commonlog.SetMaxLevel(commonlog.None, "kestrel.ascoding")
	}
}
