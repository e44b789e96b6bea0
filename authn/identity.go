// Package authn carries the verified identity the auth layer hands to the
// core. Token verification itself happens upstream; the core trusts these
// claims as-is.
package authn

import (
	"github.com/google/uuid"
	"github.com/spendkit/spend_service/spend_model"
)

type Identity struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Role           spend_model.Role
}
