package schema

import _ "embed"

//go:embed contract-source-metadata.schema.json
var ContractSourceMetadataSchema []byte

//go:embed whitelist.schema.json
var WhitelistSchema []byte
