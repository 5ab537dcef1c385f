package appidentityassets

import _ "embed"

// YAML is the embedded application identity used when no `.fulmen/app.yaml`
// is found next to the binary or in a parent directory.
//
//go:embed app.yaml
var YAML []byte
