package auth

import (
	"context"
	"errors"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"
)

// Identity is what a verified bearer token says about the caller.
type Identity struct {
	MemberID string
	Email    string
	Name     string
	IsAdmin  bool
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// JWTVerifier accepts access tokens minted by a Signer with the same secret.
type JWTVerifier struct {
	signer *Signer
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{signer: NewSigner(secret)}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	claims, err := v.signer.Parse(token, KindAccess)
	if err != nil {
		return nil, err
	}
	return &Identity{
		MemberID: claims.MemberID,
		Email:    claims.Email,
		IsAdmin:  claims.IsAdmin(),
	}, nil
}

// FirebaseClient is the subset of *firebase auth.Client used here.
type FirebaseClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
}

// FirebaseVerifier accepts Firebase ID tokens. Admins carry the custom
// claim admin=true.
type FirebaseVerifier struct {
	client FirebaseClient
}

func NewFirebaseVerifier(client FirebaseClient) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		if fbauth.IsIDTokenExpired(err) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if tok.UID == "" {
		return nil, ErrInvalidToken
	}

	id := &Identity{MemberID: tok.UID}
	id.Email, _ = tok.Claims["email"].(string)
	id.Name, _ = tok.Claims["name"].(string)
	id.IsAdmin, _ = tok.Claims["admin"].(bool)
	return id, nil
}

// GrantAdmin sets the admin custom claim. It takes effect on the member's
// next token refresh.
func (v *FirebaseVerifier) GrantAdmin(ctx context.Context, uid string) error {
	return v.setAdmin(ctx, uid, true)
}

func (v *FirebaseVerifier) RevokeAdmin(ctx context.Context, uid string) error {
	return v.setAdmin(ctx, uid, false)
}

func (v *FirebaseVerifier) setAdmin(ctx context.Context, uid string, admin bool) error {
	if uid == "" {
		return errors.New("uid is required")
	}
	return v.client.SetCustomUserClaims(ctx, uid, map[string]interface{}{"admin": admin})
}
