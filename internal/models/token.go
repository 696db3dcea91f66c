package models

// TokenPair holds the credentials issued to a client on login or refresh.
// Expiry timestamps are unix seconds; they mirror the exp claims inside the
// tokens so clients can schedule renewal without decoding JWTs.
type TokenPair struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	AccessExpiresAt  int64  `json:"accessExpiresAt"`
	RefreshExpiresAt int64  `json:"refreshExpiresAt"`
}
