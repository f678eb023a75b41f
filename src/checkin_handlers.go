package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"brs/src/common"
	"brs/src/lib"
	"brs/src/middlewares"
	"brs/src/types"
)

func checkInHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	checkin := g.Group("/checkin")
	checkin.Use(middlewares.RoleMiddleware(string(types.ROLE_ADMIN)))
	checkin.
		POST("/find", func(ctx *gin.Context) {
			var body types.FindReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			reservation, verdict, err := common.FindReservation(body.Query)
			if err != nil {
				if errors.Is(err, types.ErrReservationMissing) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "query": body.Query})
					return
				}
				log.Printf("[FindReservation] error: %s\n", err.Error())
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservation, "verdict": verdict})
		}).
		POST("/decode", func(ctx *gin.Context) {
			var body types.DecodePayloadRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			query := lib.DecodePayload(body.Payload)
			reservation, verdict, err := common.FindReservation(query)
			if err != nil {
				if errors.Is(err, types.ErrReservationMissing) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "query": query})
					return
				}
				log.Printf("[FindReservation] error: %s\n", err.Error())
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservation, "verdict": verdict})
		}).
		POST("/confirm", func(ctx *gin.Context) {
			var body types.ConfirmCheckInRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			actorId := ctx.GetString("id")
			reservation, err := common.ConfirmCheckIn(actorId, body.ReservationID, body.GcashRefNo)
			if err != nil {
				switch {
				case errors.Is(err, types.ErrMissingReference):
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				case errors.Is(err, types.ErrReservationMissing):
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				default:
					log.Printf("[ConfirmCheckIn] error: %s\n", err.Error())
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				}
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservation})
		})
	return g
}
