package meshpanel

import _ "embed"

// Version is the release of the panel, read from the VERSION file.
//
//go:embed VERSION
var Version string
