package middlewares

import (
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"brs/src/db"
	"brs/src/models"
	"brs/src/types"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(401)
		return
	}
	parts := strings.Split(bearerToken, " ")
	if len(parts) < 2 || parts[1] == "" {
		ctx.AbortWithStatus(401)
		return
	}
	reqToken := parts[1]
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		if err == jwt.ErrSignatureInvalid || err == jwt.ErrTokenMalformed {
			ctx.AbortWithStatus(401)
			return
		}
		ctx.AbortWithError(401, err)
		return
	}
	if !tkn.Valid {
		ctx.AbortWithStatus(401)
		return
	}

	// The bypass operator session is not backed by an account row.
	if claims.Subject == types.ADMIN_SENTINEL_ID {
		ctx.Set("email", types.ADMIN_SENTINEL_EMAIL)
		ctx.Set("id", types.ADMIN_SENTINEL_ID)
		ctx.Set("role", string(types.ROLE_ADMIN))
		return
	}

	accountId, err := uuid.Parse(claims.Subject)
	if err != nil {
		log.Println("error parsing claims:", err.Error())
		ctx.AbortWithStatus(401)
		return
	}
	db := db.GetDb()
	var account models.Account
	db.Model(&models.Account{}).Where(&models.Account{ID: accountId}).Find(&account)

	if accountId != account.ID || account.ID == uuid.Nil {
		ctx.AbortWithStatus(401)
		return
	}
	if account.Status == string(types.ACCOUNT_DEACTIVATED) {
		ctx.AbortWithStatus(401)
		return
	}
	ctx.Set("email", account.Email)
	ctx.Set("id", account.ID.String())
	ctx.Set("role", account.Role)
}

// RoleMiddleware gates staff endpoints on the role set by AuthMiddleware.
func RoleMiddleware(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role := ctx.GetString("role")
		for _, r := range roles {
			if role == r {
				return
			}
		}
		ctx.AbortWithStatus(403)
	}
}
