package domain

import "strings"

// MyshopifyDomainSuffix is the suffix of every canonical shop domain.
const MyshopifyDomainSuffix = ".myshopify.com"

// Session represents a merchant install session holding the offline access token
// obtained through token exchange. One offline session exists per shop; its ID is
// derived deterministically from the shop domain so re-provisioning always
// overwrites instead of appending.
type Session struct {
	ID          string `json:"id" bson:"_id"`
	Shop        string `json:"shop" bson:"shop"`
	IsOnline    bool   `json:"is_online" bson:"is_online"`
	AccessToken string `json:"access_token" bson:"access_token"`
	Scope       string `json:"scope" bson:"scope"`
}

// OfflineSessionID returns the deterministic session ID for a shop's offline session.
func OfflineSessionID(shop string) string {
	return "offline_" + shop
}

// NewOfflineSession builds a provisioned offline session for a shop.
func NewOfflineSession(shop, accessToken, scope string) *Session {
	return &Session{
		ID:          OfflineSessionID(shop),
		Shop:        shop,
		IsOnline:    false,
		AccessToken: accessToken,
		Scope:       scope,
	}
}

// Provisioned reports whether the session carries a usable access token.
// An empty token means the session exists but was never provisioned; the gate
// must not trust it.
func (s *Session) Provisioned() bool {
	return s != nil && s.AccessToken != ""
}

// ShopHandle derives the store handle used in admin URLs from the canonical
// shop domain, e.g. "foo.myshopify.com" -> "foo".
func ShopHandle(shop string) string {
	return strings.TrimSuffix(shop, MyshopifyDomainSuffix)
}
