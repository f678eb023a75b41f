package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"brs/src/common"
	"brs/src/db"
	"brs/src/lib"
	"brs/src/lib/mailer"
	"brs/src/models"
	"brs/src/types"
	"brs/src/utils"
)

type LoginResult struct {
	Session  *types.SessionData `json:"session"`
	Token    string             `json:"token"`
	Warnings []string           `json:"warnings,omitempty"`
}

func AuthLogin(ctx *gin.Context) (result *LoginResult, status int, err error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}

	session, err := common.AuthenticateLocal(ctx, body.Email, body.Password)
	if err != nil {
		return nil, statusForAuthError(err), err
	}

	jwt, err := utils.GenerateJWT(session.Email, session.AccountID, session.Role)
	if err != nil {
		log.Printf("Error generating token for [%s]: %s\n", session.AccountID, err.Error())
		return nil, http.StatusInternalServerError, err
	}
	return &LoginResult{Session: session, Token: jwt}, http.StatusOK, nil
}

// AuthGoogle finishes an external sign-in. VerifyIdToken has already
// authenticated the provider token and stashed the uid on the context.
func AuthGoogle(ctx *gin.Context) (result *LoginResult, status int, err error) {
	uid := ctx.GetString("uid")
	fauth, err := lib.GetFirebaseAuth()
	if err != nil {
		log.Printf("Error initializing FirebaseAuth client: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	record, err := fauth.GetUser(context.Background(), uid)
	if err != nil {
		log.Printf("error from Firebase: %s\n", err.Error())
		return nil, http.StatusUnauthorized, err
	}
	if record.Email == "" {
		err := errors.New("provider user carries no email")
		return nil, http.StatusUnauthorized, err
	}

	user := &types.ProviderUser{
		Email:       record.Email,
		DisplayName: record.DisplayName,
		AvatarURL:   record.PhotoURL,
		Phone:       record.PhoneNumber,
	}
	session, warnings, err := common.AuthenticateExternal(ctx, uid, user)
	if err != nil {
		return nil, statusForAuthError(err), err
	}

	jwt, err := utils.GenerateJWT(session.Email, session.AccountID, session.Role)
	if err != nil {
		log.Printf("Error generating token for [%s]: %s\n", session.AccountID, err.Error())
		return nil, http.StatusInternalServerError, err
	}

	go func() {
		rd := lib.GetRedisClient()
		if rd == nil {
			return
		}
		token := rd.JSONGet(context.Background(), fmt.Sprintf("%s:fcm", uid), "$.token").Val()
		if token == "" {
			return
		}
		fcm, err := lib.GetFirebaseMessaging()
		if err != nil {
			log.Printf("Could not retrieve FCM instance: %s\n", err.Error())
			return
		}
		if _, err := fcm.SubscribeToTopic(context.Background(), []string{token}, "Notifications"); err != nil {
			log.Printf("Error subscribing device for [%s]: %s\n", session.AccountID, err.Error())
		}
	}()
	return &LoginResult{Session: session, Token: jwt, Warnings: warnings}, http.StatusOK, nil
}

// AuthRegister provisions a local email/password account. The account and
// customer inserts follow the same compensated two-step as external
// provisioning.
func AuthRegister(ctx *gin.Context) (session *types.SessionData, status int, err error) {
	var body types.RegisterRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}

	norm := utils.NormalizeEmail(body.Email)
	hashed, err := utils.HashPassword(body.Password)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	conn := db.GetDb()
	account := models.Account{
		Email:        norm,
		Role:         string(types.ROLE_CUSTOMER),
		Status:       string(types.ACCOUNT_ACTIVE),
		AuthProvider: string(types.PROVIDER_LOCAL),
		Password:     &hashed,
	}
	if err := conn.Create(&account).Error; err != nil {
		log.Printf("Error creating account for [%s]: %s\n", norm, err.Error())
		if errors.Is(utils.ClassifyStoreError(err), types.ErrConstraintViolation) {
			return nil, http.StatusConflict, errors.New("an account with this email already exists")
		}
		return nil, http.StatusBadRequest, err
	}
	var middle *string
	if body.MiddleName != "" {
		middle = &body.MiddleName
	}
	var gender *string
	if body.Gender != "" {
		gender = &body.Gender
	}
	customer := models.Customer{
		AccountID:     account.ID,
		FirstName:     body.FirstName,
		MiddleName:    middle,
		LastName:      body.LastName,
		Email:         norm,
		ContactNumber: body.ContactNumber,
		Username:      body.Username,
		Birthdate:     body.Birthdate,
		Gender:        gender,
	}
	if err := conn.Create(&customer).Error; err != nil {
		log.Printf("Error creating customer for [%s]: %s\n", norm, err.Error())
		if delErr := conn.Unscoped().Delete(&models.Account{}, account.ID).Error; delErr != nil {
			log.Printf("Compensating delete failed for account [%s]: %s\n", account.ID, delErr.Error())
		}
		return nil, http.StatusBadRequest, types.ErrProvisioningFailed
	}
	account.Customer = &customer

	go func() {
		input := lib.SendMailInput{
			From:     os.Getenv("MAIL_FROM"),
			FromName: "Billiard Reservations",
			To:       []string{norm},
			Subject:  "Welcome!",
			Body:     fmt.Sprintf("Hi %s, your account is ready. You can now book a table.", body.FirstName),
		}
		if err := mailer.NewMailerMessage(&input); err != nil {
			log.Printf("Error queueing welcome email for [%s]: %s\n", norm, err.Error())
		}
	}()

	session, err = common.AuthenticateLocal(ctx, norm, body.Password)
	if err != nil {
		return nil, statusForAuthError(err), err
	}
	return session, http.StatusCreated, nil
}

func Logout(ctx *gin.Context) (status int, err error) {
	accountId := ctx.GetString("id")
	lib.ClearSession(context.Background(), accountId)
	return http.StatusOK, nil
}

func statusForAuthError(err error) int {
	var deact *types.AccountDeactivatedError
	switch {
	case errors.Is(err, types.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.As(err, &deact):
		return http.StatusForbidden
	case errors.Is(err, types.ErrProvisioningFailed), errors.Is(err, types.ErrProfileNotFound):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
