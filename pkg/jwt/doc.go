// Package jwt signs and verifies HMAC-SHA256 JSON Web Tokens.
//
//	svc, err := jwt.NewFromString(secret, jwt.WithTTL(24*time.Hour))
//	token, err := svc.ModelToJWT(user) // "Bearer eyJ..."
//
//	var claims jwt.StandardClaims
//	err = svc.Parse(token, &claims)
//	if errors.Is(err, jwt.ErrExpiredToken) {
//	    // ask the user to log in again
//	}
//
// [SecretFromFile] keeps a generated secret on disk so tokens survive restarts
// when no secret is configured.
package jwt
