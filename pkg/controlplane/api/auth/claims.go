// Package auth provides JWT authentication for the EmuDecky API.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents JWT claims for an API client.
//
// Tokens identify the calling client (typically the frontend) rather than a
// user: the shim runs on a single device and has no user accounts.
type Claims struct {
	jwt.RegisteredClaims

	// Client names the caller the token was minted for.
	Client string `json:"client"`
}
