package jwt

import (
	"context"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/auth"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Actor is the authenticated caller as carried by an access token.
type Actor struct {
	UserID     string
	Email      string
	EmployeeID *string
	IsAdmin    bool
}

// Employee returns the caller's employee id, or false for accounts without one.
func (a Actor) Employee() (string, bool) {
	if a.EmployeeID == nil || *a.EmployeeID == "" {
		return "", false
	}
	return *a.EmployeeID, true
}

type actorKey struct{}

// ContextWithActor stores the caller; the auth middleware calls it after the
// token is verified.
func ContextWithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFromContext(ctx context.Context) (Actor, error) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || a.UserID == "" {
		return Actor{}, auth.ErrInvalidToken
	}
	return a, nil
}

// ActorFromClaims reads an access token's claims.
func ActorFromClaims(claims map[string]interface{}) (Actor, error) {
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return Actor{}, auth.ErrInvalidToken
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return Actor{}, auth.ErrInvalidToken
	}
	a := Actor{UserID: userID}
	a.Email, _ = claims["email"].(string)
	a.IsAdmin, _ = claims["is_admin"].(bool)
	if employeeID, ok := claims["employee_id"].(string); ok && employeeID != "" {
		a.EmployeeID = &employeeID
	}
	return a, nil
}

type Service interface {
	GenerateAccessToken(a Actor) (token string, expiresAt int64, err error)
	GenerateSSEToken(employeeID string) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (employeeID string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
	now                   func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpiration time.Duration) Service {
	return &JWTService{
		accessTokenExpiration: accessTokenExpiration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                   time.Now,
	}
}

func (j *JWTService) GenerateAccessToken(a Actor) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpiration).Unix()

	claims := map[string]interface{}{
		"user_id":  a.UserID,
		"email":    a.Email,
		"is_admin": a.IsAdmin,
		"type":     "access",
		"exp":      expiresAt,
	}
	if employeeID, ok := a.Employee(); ok {
		claims["employee_id"] = employeeID
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// GenerateSSEToken generates a short-lived token for SSE connections
func (j *JWTService) GenerateSSEToken(employeeID string) (token string, expiresIn int, err error) {
	// SSE tokens are short-lived (5 minutes)
	expiresIn = 300
	expiresAt := j.now().Add(5 * time.Minute).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"employee_id": employeeID,
		"type":        "sse",
		"exp":         expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresIn, nil
}

// ValidateSSEToken validates an SSE token and returns the employee ID
func (j *JWTService) ValidateSSEToken(tokenString string) (employeeID string, err error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != "sse" {
		return "", jwt.ErrInvalidJWT()
	}

	value, ok := token.Get("employee_id")
	if !ok {
		return "", jwt.ErrInvalidJWT()
	}

	employeeID, ok = value.(string)
	if !ok || employeeID == "" {
		return "", jwt.ErrInvalidJWT()
	}

	return employeeID, nil
}
