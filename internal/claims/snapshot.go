// Package claims keeps the identity provider's per-user custom-claims blob in
// step with the locally stored user and site state. The provider is the system
// of record for the blob and other subsystems own fields in it, so every
// update is a fresh read, an explicit merge of only the fields this service
// owns, and a single replace call.
package claims

import (
	"fmt"
	"time"
)

// Claim keys, matching the wire format consumed by the frontend.
const (
	ClaimPlan               = "pl"
	ClaimStatus             = "st"
	ClaimMaxSites           = "maxSites"
	ClaimSiteCount          = "siteCount"
	ClaimEmailNotifications = "emailNotificationsEnabled"
	ClaimLastMessage        = "msg"
	ClaimMessages           = "msgs"
)

// StatusActive is the only account status this service ever writes.
const StatusActive = "active"

// Patch carries the claim fields owned by this service. Nil fields are left
// untouched in the provider's blob.
type Patch struct {
	Plan                      *string
	Status                    *string
	MaxSites                  *int
	SiteCount                 *int64
	EmailNotificationsEnabled *bool
}

// Merge overlays a patch onto a snapshot of the provider's claims and returns
// the result as a new map. Fields not owned by this service pass through
// unchanged; the inputs are never mutated.
func Merge(snapshot map[string]interface{}, patch Patch) map[string]interface{} {
	merged := make(map[string]interface{}, len(snapshot)+5)
	for k, v := range snapshot {
		merged[k] = v
	}
	if patch.Plan != nil {
		merged[ClaimPlan] = *patch.Plan
	}
	if patch.Status != nil {
		merged[ClaimStatus] = *patch.Status
	}
	if patch.MaxSites != nil {
		merged[ClaimMaxSites] = *patch.MaxSites
	}
	if patch.SiteCount != nil {
		merged[ClaimSiteCount] = *patch.SiteCount
	}
	if patch.EmailNotificationsEnabled != nil {
		merged[ClaimEmailNotifications] = *patch.EmailNotificationsEnabled
	}
	return merged
}

// MessagesFromSnapshot extracts the msgs history from a claims snapshot.
// Claims round-trip through JSON, so the stored list comes back as
// []interface{}; non-string entries are dropped.
func MessagesFromSnapshot(snapshot map[string]interface{}) []string {
	raw, ok := snapshot[ClaimMessages].([]interface{})
	if !ok {
		if typed, ok := snapshot[ClaimMessages].([]string); ok {
			return append([]string(nil), typed...)
		}
		return nil
	}
	msgs := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			msgs = append(msgs, s)
		}
	}
	return msgs
}

// EmailNotificationsCategory prefixes every email-preference toggle message;
// only the most recent message of this category is retained in the history.
const EmailNotificationsCategory = "info.Notifications email "

// SiteCreatedMessage builds the event message recorded after a site creation.
func SiteCreatedMessage(siteName string, createdAt time.Time) string {
	return fmt.Sprintf("success.Site %q créé le %s", siteName, createdAt.UTC().Format(time.RFC3339))
}

// EmailNotificationsMessage builds the event message for an email-preference toggle.
func EmailNotificationsMessage(enabled bool, at time.Time) string {
	statusText := "désactivées"
	if enabled {
		statusText = "activées"
	}
	return fmt.Sprintf("%s%s le %s", EmailNotificationsCategory, statusText, at.UTC().Format(time.RFC3339))
}
