package openapi

import _ "embed"

//go:embed openapi.json
var JSON []byte

//go:embed openapi.yml
var YAML []byte
