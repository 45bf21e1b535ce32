package ptt

import (
	"github.com/gookit/color"
)

// Global variables
var (
	portageConfigRoot = "/etc/portage"
	emergeBinary      = "emerge"
	logDir            string
	Debug             bool
	ConfigFile        = "/etc/pkg-testing-tool.conf"
	version           = "dev" // overridden at build time
)

// Safety features appended to FEATURES for every run. A fresh, sandboxed,
// unprivileged build is a correctness requirement of the test, so these are
// not configurable.
const safetyFeatures = "multilib-strict collision-protect sandbox userpriv usersandbox"

// color helpers
var (
	colInfo    = color.Info // style provided by gookit/color
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)
