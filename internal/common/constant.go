package common

import "time"

const (
	// AuthorizationHeaderName is the HTTP header carrying the bearer token.
	AuthorizationHeaderName = "Authorization"

	// AuthorizationMetadataKey is the gRPC metadata key carrying the bearer
	// token. gRPC lowercases metadata keys.
	AuthorizationMetadataKey = "authorization"

	// BearerPrefix is the scheme marker the credential must start with.
	BearerPrefix = "Bearer "

	// SecretKeySize is the length of the process secret key (AES-256, HS256).
	SecretKeySize = 32

	// DefaultTokenValidity is how long a minted token stays valid.
	DefaultTokenValidity = time.Hour
)
