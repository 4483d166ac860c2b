package middleware

import (
	"net/http"
	"strings"

	"github.com/sebastiangaticacl/stvaldivia/internal/apierror"
	"github.com/sebastiangaticacl/stvaldivia/internal/model"
	"github.com/sebastiangaticacl/stvaldivia/internal/service"

	"github.com/gin-gonic/gin"
)

const ClaimsKey = "claims"

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("authentication required"))
			return
		}

		claims, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("invalid or expired token"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireCargo rejects requests whose cargo is not in the allowed list.
// "admin" always passes.
func RequireCargo(cargos ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(cargos))
	for _, cg := range cargos {
		allowed[cg] = true
	}
	return func(c *gin.Context) {
		claims, ok := c.MustGet(ClaimsKey).(*service.Claims)
		if !ok || (!allowed[claims.Cargo] && claims.Cargo != "admin") {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	claims, _ := c.MustGet(ClaimsKey).(*service.Claims)
	return claims
}

// Actor builds the employee identity the services operate on from the
// validated claims.
func Actor(c *gin.Context) *model.Employee {
	claims := GetClaims(c)
	return &model.Employee{
		ID:          claims.EmployeeID,
		Name:        claims.Name,
		Cargo:       claims.Cargo,
		IsCashier:   claims.IsCashier,
		IsBartender: claims.IsBartender,
	}
}
