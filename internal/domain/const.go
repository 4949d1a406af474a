package domain

import "time"

const (
	RequesterIDCtxKey      = "sl-requesterId"
	RequesterAddressCtxKey = "sl-requesterAddress"
)

const (
	TokenIssuer     = "securelance"
	SessionTokenTTL = 30 * 24 * time.Hour
)
