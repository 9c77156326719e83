package plugin

import (
	root "github.com/tonightapp/tonight"
)

var manifest = root.Manifest
