package credentials

import "github.com/papercomputeco/novelist/pkg/auth"

// Tokens represents the session tokens stored in tokens.toml.
type Tokens struct {
	Version      int    `toml:"version"`
	Token        string `toml:"token"`
	RefreshToken string `toml:"refresh_token"`
}

// Pair converts the stored tokens to an auth.TokenPair.
func (t *Tokens) Pair() auth.TokenPair {
	return auth.TokenPair{AccessToken: t.Token, RefreshToken: t.RefreshToken}
}

func tokensFromPair(pair auth.TokenPair) *Tokens {
	return &Tokens{
		Version:      currentVersion,
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
}
