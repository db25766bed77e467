package service

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/campushub/college-api/internal/models"
	appErrors "github.com/campushub/college-api/pkg/errors"
)

// Operation identifies an attendance action subject to authorization.
type Operation string

const (
	OpViewSummary    Operation = "attendance.view_summary"
	OpMarkAttendance Operation = "attendance.mark"
	OpViewRoster     Operation = "attendance.view_roster"
)

// Target scopes an operation to the records it touches.
type Target struct {
	StudentID   string
	SubjectCode string
}

type teachingDirectory interface {
	Teaches(ctx context.Context, facultyID, subjectCode string) (bool, error)
}

// GateConfig carries token verification parameters.
type GateConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

// AccessGate verifies identity tokens and enforces the role/ownership policy.
// Roles form a closed set with no hierarchy; every permission below is checked
// explicitly. Denials are uniform so callers cannot probe resource existence.
type AccessGate struct {
	directory teachingDirectory
	config    GateConfig
	logger    *zap.Logger
}

// NewAccessGate constructs the gate.
func NewAccessGate(directory teachingDirectory, config GateConfig, logger *zap.Logger) *AccessGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessGate{directory: directory, config: config, logger: logger}
}

// Authenticate verifies the token's signature and expiry and returns the
// decoded claims. Client-side payload decoding is never trusted; the gate
// re-verifies everything server-side.
func (g *AccessGate) Authenticate(tokenString string) (*models.TokenClaims, error) {
	if tokenString == "" {
		return nil, appErrors.Clone(appErrors.ErrAuthentication, "missing bearer token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if g.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(g.config.Issuer))
	}
	for _, aud := range g.config.Audience {
		opts = append(opts, jwt.WithAudience(aud))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(g.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrAuthentication.Code, appErrors.ErrAuthentication.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrAuthentication, "invalid token claims")
	}
	if claims.IdentityID == "" || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrAuthentication, "token carries no usable identity")
	}

	return claims, nil
}

// Authorize decides whether the actor may perform the operation on the target.
func (g *AccessGate) Authorize(ctx context.Context, claims *models.TokenClaims, op Operation, target Target) error {
	if claims == nil {
		return appErrors.Clone(appErrors.ErrAuthentication, "missing bearer token")
	}

	switch op {
	case OpViewSummary:
		switch claims.Role {
		case models.RoleAdmin:
			return nil
		case models.RoleStudent:
			if target.StudentID == claims.IdentityID {
				return nil
			}
		case models.RoleFaculty:
			if target.SubjectCode != "" {
				return g.requireTeaches(ctx, claims.IdentityID, target.SubjectCode)
			}
		}
	case OpMarkAttendance, OpViewRoster:
		switch claims.Role {
		case models.RoleAdmin:
			return nil
		case models.RoleFaculty:
			return g.requireTeaches(ctx, claims.IdentityID, target.SubjectCode)
		}
	}

	return appErrors.ErrAuthorization
}

func (g *AccessGate) requireTeaches(ctx context.Context, facultyID, subjectCode string) error {
	if subjectCode == "" {
		return appErrors.ErrAuthorization
	}
	teaches, err := g.directory.Teaches(ctx, facultyID, subjectCode)
	if err != nil {
		g.logger.Error("teaching assignment lookup failed", zap.String("faculty_id", facultyID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "directory unavailable")
	}
	if !teaches {
		// Same denial whether the subject exists or not.
		return appErrors.ErrAuthorization
	}
	return nil
}
