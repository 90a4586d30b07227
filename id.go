package pension

import "github.com/xraph/pension/id"

// ID is the identifier type for records Pension generates.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
