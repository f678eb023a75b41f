package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"brs/src/controllers"
	"brs/src/db"
	"brs/src/lib"
	"brs/src/models"
	"brs/src/types"
	"brs/src/utils"
)

func accountHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/me", func(ctx *gin.Context) {
			accountId := ctx.GetString("id")
			session, err := lib.GetCachedSession(context.Background(), accountId)
			if err == nil && session != nil {
				ctx.JSON(http.StatusOK, gin.H{"data": session})
				return
			}

			if accountId == types.ADMIN_SENTINEL_ID {
				ctx.JSON(http.StatusOK, gin.H{"data": &types.SessionData{
					AccountID: types.ADMIN_SENTINEL_ID,
					Email:     types.ADMIN_SENTINEL_EMAIL,
					Role:      string(types.ROLE_ADMIN),
					FullName:  types.ADMIN_SENTINEL_NAME,
				}})
				return
			}

			id, err := uuid.Parse(accountId)
			if err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			conn := db.GetDb()
			var account models.Account
			if err := conn.
				Model(&models.Account{}).
				Where(&models.Account{ID: id}).
				Preload("Customer").
				First(&account).
				Error; err != nil {
				log.Printf("Error retrieving account [%s]: %s\n", accountId, err.Error())
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusBadRequest)
				return
			}
			fullName := account.Email
			if account.Customer != nil {
				fullName = utils.ComposeFullName(account.Customer.FirstName, account.Customer.MiddleName, account.Customer.LastName)
			}
			session = &types.SessionData{
				AccountID: account.ID.String(),
				Email:     account.Email,
				Role:      account.Role,
				FullName:  fullName,
			}
			go lib.CacheSession(context.Background(), session)
			ctx.JSON(http.StatusOK, gin.H{"data": session})
		}).
		POST("/auth/logout", func(ctx *gin.Context) {
			status, err := controllers.Logout(ctx)
			if err != nil {
				log.Printf("[Logout] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(status)
		})
	return g
}
