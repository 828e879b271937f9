package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtIssuer   = "triplea-api"
	jwtAudience = "triplea-members"

	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidRole      = errors.New("invalid role")
	ErrEmptyJWTSecret   = errors.New("jwt secret cannot be empty")
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

func ValidRole(role string) bool {
	return role == RoleMember || role == RoleAdmin
}

type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

func (k TokenKind) ttl() time.Duration {
	if k == KindRefresh {
		return RefreshTokenTTL
	}
	return AccessTokenTTL
}

// Claims identify a member of the gym. A token whose role is not a known
// member role never verifies.
type Claims struct {
	MemberID string    `json:"member_id"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	Kind     TokenKind `json:"token_type"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims have been checked.
func (c *Claims) Validate() error {
	if c.MemberID == "" {
		return ErrInvalidToken
	}
	if !ValidRole(c.Role) {
		return ErrInvalidRole
	}
	if c.Kind != KindAccess && c.Kind != KindRefresh {
		return ErrInvalidTokenType
	}
	return nil
}

func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Tokens is the pair handed out on register and login.
type Tokens struct {
	Access  string
	Refresh string
}

// Signer issues and parses HS256 member tokens. Access and refresh tokens
// share one secret and are told apart by their kind claim.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

func (s *Signer) Issue(memberID, email, role string) (Tokens, error) {
	access, err := s.Sign(KindAccess, memberID, email, role)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := s.Sign(KindRefresh, memberID, email, role)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{Access: access, Refresh: refresh}, nil
}

func (s *Signer) Sign(kind TokenKind, memberID, email, role string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrEmptyJWTSecret
	}
	if !ValidRole(role) {
		return "", ErrInvalidRole
	}

	now := s.now()
	claims := &Claims{
		MemberID: memberID,
		Email:    email,
		Role:     role,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Subject:   memberID,
			Audience:  []string{jwtAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(kind.ttl())),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies token and requires it to be of the given kind.
func (s *Signer) Parse(token string, want TokenKind) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrEmptyJWTSecret
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithAudience(jwtAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, ErrInvalidRole), errors.Is(err, ErrInvalidTokenType):
		return nil, err
	default:
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if claims.Kind != want {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports false for profiles created without a password.
func CheckPassword(hashed, plain string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
