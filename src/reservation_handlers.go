package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	awslib "brs/src/lib/aws"

	"brs/src/config"
	"brs/src/db"
	"brs/src/lib"
	"brs/src/models"
	"brs/src/types"
)

func reservationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/reservations", func(ctx *gin.Context) {
			var query struct {
				Status string `form:"status"`
				Date   string `form:"date"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rd := lib.GetRedisClient()
			unfiltered := query.Status == "" && query.Date == ""
			if rd != nil && unfiltered {
				if cached := rd.Get(context.Background(), config.RESERVATIONS_CACHE_KEY).Val(); cached != "" {
					ctx.Data(http.StatusOK, "application/json", []byte(cached))
					return
				}
			}
			conn := db.GetDb()
			ss := conn.Session(&gorm.Session{PrepareStmt: true}).
				Model(&models.Reservation{}).
				Preload("Table")
			if query.Status != "" {
				ss = ss.Where("status = ?", query.Status)
			}
			if query.Date != "" {
				ss = ss.Where("reservation_date = ?", query.Date)
			}
			var reservations []models.Reservation
			if err := ss.
				Order("created_at DESC").
				Limit(100).
				Find(&reservations).
				Error; err != nil {
				log.Printf("Error retrieving reservations: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			if rd != nil && unfiltered {
				if body, err := json.Marshal(gin.H{"data": reservations}); err == nil {
					rd.SetEx(context.Background(), config.RESERVATIONS_CACHE_KEY, string(body), 5*time.Minute)
				}
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservations})
		}).
		GET("/reservations/suggestions", func(ctx *gin.Context) {
			var query struct {
				Q string `form:"q" binding:"required"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			conn := db.GetDb()
			var numbers []string
			if err := conn.
				Model(&models.Reservation{}).
				Where("reservation_no LIKE ?", query.Q+"%").
				Order("created_at DESC").
				Limit(10).
				Pluck("reservation_no", &numbers).
				Error; err != nil {
				log.Printf("Error retrieving suggestions: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": numbers})
		}).
		GET("/tables", func(ctx *gin.Context) {
			conn := db.GetDb()
			var tables []models.BilliardTable
			if err := conn.Find(&tables).Error; err != nil {
				log.Printf("Error retrieving tables: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tables})
		}).
		GET("/reservations/:id/slip", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			conn := db.GetDb()
			var reservation models.Reservation
			if err := conn.
				Model(&models.Reservation{}).
				Where(&models.Reservation{ID: params.ID}).
				Preload("Table").
				First(&reservation).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusBadRequest)
				return
			}

			filename := slug.Make(fmt.Sprintf("reservation_%s", reservation.ReservationNo))
			rd := lib.GetRedisClient()
			if rd != nil {
				cached := rd.Get(context.Background(), filename).Val()
				if cached != "" {
					ctx.JSON(http.StatusOK, gin.H{"url": cached})
					return
				}
			}

			filepath, err := lib.GenerateSlip(reservation.ReservationNo, reservation.Table.Name)
			if err != nil {
				log.Printf("Error generating slip for [%s]: %s\n", reservation.ReservationNo, err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			appEnv := os.Getenv("APP_ENV")
			if appEnv != "local" {
				url, err := awslib.S3UploadAsset(filename, filepath)
				if err != nil {
					log.Printf("Error uploading asset to S3 bucket: %s\n", err.Error())
					ctx.Status(http.StatusBadRequest)
					return
				}
				if rd != nil {
					rd.SetEx(context.Background(), filename, *url, 2*time.Hour)
				}
				ctx.JSON(http.StatusOK, gin.H{"url": *url})
				return
			}
			ctx.FileAttachment(filepath, "slip.jpeg")
		}).
		GET("/reservations/:id/proof", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			conn := db.GetDb()
			var reservation models.Reservation
			if err := conn.
				Model(&models.Reservation{}).
				Where(&models.Reservation{ID: params.ID}).
				First(&reservation).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusBadRequest)
				return
			}
			if reservation.ProofOfPayment == nil || *reservation.ProofOfPayment == "" {
				ctx.Status(http.StatusNotFound)
				return
			}
			name := *reservation.ProofOfPayment
			if err := awslib.S3DownloadAsset(name); err != nil {
				log.Printf("Error downloading asset [%s] from S3 bucket: %s\n", name, err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			wd, _ := os.Getwd()
			tempdir := os.Getenv("TEMP_DIR")
			filepath := path.Join(wd, tempdir, fmt.Sprintf("%s.jpeg", name))
			ctx.FileAttachment(filepath, "proof-of-payment.jpeg")
		})
	return g
}
