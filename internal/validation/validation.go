package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// AccountPrefix marks ad account ids on the upstream platform.
const AccountPrefix = "act_"

var (
	// tenantIDRegex matches identifiers that are safe to embed in URL paths
	tenantIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:@-]{1,128}$`)

	// objectIDRegex matches upstream object ids: numeric, optionally act_ prefixed,
	// optionally composite (owner_local)
	objectIDRegex = regexp.MustCompile(`^(act_)?[0-9]+(_[0-9]+)*$`)
)

// CompositeID is an upstream object id of the form "ownerId_localId", such as
// a page post ("pageId_postId") or a comment ("postId_commentId").
type CompositeID struct {
	OwnerID string
	LocalID string
}

// ParseCompositeID splits id at the first "_". When id has no delimiter the
// owner is the whole id and LocalID is empty.
func ParseCompositeID(id string) CompositeID {
	owner, local, found := strings.Cut(id, "_")
	if !found {
		return CompositeID{OwnerID: id}
	}
	return CompositeID{OwnerID: owner, LocalID: local}
}

// NormalizeAccountID adds the act_ prefix to a bare numeric account id.
func NormalizeAccountID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, AccountPrefix) {
		return id
	}
	return AccountPrefix + id
}

// ValidateTenantID checks a tenant identifier
func ValidateTenantID(id string) error {
	if id == "" {
		return fmt.Errorf("tenant ID cannot be empty")
	}
	if !tenantIDRegex.MatchString(id) {
		return fmt.Errorf("invalid tenant ID format: %s", id)
	}
	return nil
}

// ValidateObjectID checks an upstream object id before it is placed in a
// request path.
func ValidateObjectID(field, id string) error {
	if id == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if !objectIDRegex.MatchString(id) {
		return fmt.Errorf("invalid %s: %s", field, id)
	}
	return nil
}

// ValidateAccountID checks an ad account id, with or without the act_ prefix.
func ValidateAccountID(id string) error {
	return ValidateObjectID("account ID", NormalizeAccountID(id))
}
