package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"weather-display-backend/internal/models"

	"go.uber.org/zap"
)

// Policy configures authentication for one protected route: which
// methods are accepted (in order of preference) and which roles may
// pass. Empty Methods means both, session first. Empty Roles means any
// authenticated user.
type Policy struct {
	Methods []Method
	Roles   []string
}

// DefaultPolicy accepts both methods, session tried first
func DefaultPolicy() Policy {
	return Policy{Methods: []Method{MethodSession, MethodAPIKey}}
}

// Result is the outcome of a successful authentication
type Result struct {
	User   *models.User
	Method Method
}

// Denial is a structured authentication or authorization failure
type Denial struct {
	Status     int
	Error      string
	Hint       string
	Challenges []string
}

// Engine orchestrates the configured authenticators. It holds no
// mutable state; all serialization happens in the credential store.
type Engine struct {
	authenticators map[Method]Authenticator
	basicRealm     string
	bearerRealm    string
	log            *zap.Logger
}

func NewEngine(session, apiKey Authenticator, basicRealm, bearerRealm string, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		authenticators: map[Method]Authenticator{
			MethodSession: session,
			MethodAPIKey:  apiKey,
		},
		basicRealm:  basicRealm,
		bearerRealm: bearerRealm,
		log:         log,
	}
}

// Authenticate tries each accepted method in order and stops at the
// first one that resolves a principal. Methods are never attempted
// concurrently.
func (e *Engine) Authenticate(ctx context.Context, header string, policy Policy) (*Result, *Denial) {
	methods := policy.Methods
	if len(methods) == 0 {
		methods = DefaultPolicy().Methods
	}

	var result *Result
	for _, method := range methods {
		authenticator, ok := e.authenticators[method]
		if !ok {
			continue
		}
		if user := authenticator.Authenticate(ctx, header); user != nil {
			result = &Result{User: user, Method: method}
			break
		}
	}

	if result == nil {
		// Advertise a challenge for every configured method so the
		// client can discover all acceptable schemes in one round trip.
		return nil, &Denial{
			Status:     http.StatusUnauthorized,
			Error:      "Authentication required",
			Hint:       "Use Basic Auth (username:password) or Bearer token (key_id:key_secret)",
			Challenges: e.challenges(methods),
		}
	}

	if len(policy.Roles) > 0 && !containsRole(policy.Roles, result.User.Role) {
		return nil, &Denial{
			Status: http.StatusForbidden,
			Error:  fmt.Sprintf("Insufficient permissions. Required role: %s", strings.Join(policy.Roles, ", ")),
		}
	}

	return result, nil
}

func (e *Engine) challenges(methods []Method) []string {
	challenges := make([]string, 0, len(methods))
	for _, method := range methods {
		switch method {
		case MethodSession:
			challenges = append(challenges, fmt.Sprintf("Basic realm=%q", e.basicRealm))
		case MethodAPIKey:
			challenges = append(challenges, fmt.Sprintf("Bearer realm=%q", e.bearerRealm))
		}
	}
	return challenges
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
