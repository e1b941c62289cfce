package config

import _ "embed"

//go:embed contract-addresses.yaml
var ContractAddresses []byte
