package lib

import (
	"context"
	"log"
	"os"
	"path"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var innerApp *firebase.App
var innerAuth *auth.Client
var innerMessaging *messaging.Client

func getOpts() *option.ClientOption {
	secretsPath := os.Getenv("SECRETS_DIR")
	opt := option.WithCredentialsFile(path.Join(secretsPath, "admin-sdk-credentials.json"))
	return &opt
}

func GetFirebaseAuth() (*auth.Client, error) {
	if innerAuth != nil {
		return innerAuth, nil
	}
	opt := getOpts()
	if innerApp == nil {
		app, err := firebase.NewApp(context.Background(), nil, *opt)
		if err != nil {
			log.Fatalf("error initializing app: %v\n", err.Error())
		}
		innerApp = app
	}

	auth, err := innerApp.Auth(context.Background())
	if err != nil {
		log.Fatalf("error initializing Firebase Auth: %v\n", err.Error())
	}
	innerAuth = auth

	return auth, nil
}

func GetFirebaseMessaging() (*messaging.Client, error) {
	if innerMessaging != nil {
		return innerMessaging, nil
	}
	opt := getOpts()
	if innerApp == nil {
		app, err := firebase.NewApp(context.Background(), nil, *opt)
		if err != nil {
			log.Fatalf("error intializing app: %v\n", err.Error())
		}
		innerApp = app
	}

	msg, err := innerApp.Messaging(context.Background())
	if err != nil {
		log.Fatalf("error initializing FCM: %v\n", err.Error())
	}
	innerMessaging = msg
	return msg, nil
}

func NewFirebaseApp(app *firebase.App) {
	innerApp = app
	auth, err := innerApp.Auth(context.Background())
	if err != nil {
		log.Fatalf("error initializing Firebase Auth: %s\n", err.Error())
	}
	innerAuth = auth
}

// PushCheckInAlert sends an FCM data message to subscribed devices after a
// confirmed check-in. Skipped when no service credentials are mounted.
func PushCheckInAlert(ctx context.Context, reservationNo string, tableName string) {
	secretsPath := os.Getenv("SECRETS_DIR")
	if _, err := os.Stat(path.Join(secretsPath, "admin-sdk-credentials.json")); err != nil {
		return
	}
	fcm, err := GetFirebaseMessaging()
	if err != nil {
		log.Printf("Could not retrieve FCM instance: %s\n", err.Error())
		return
	}
	res, err := fcm.Send(ctx, &messaging.Message{
		Data: map[string]string{
			"reservationNo": reservationNo,
			"table":         tableName,
		},
		Topic: "Notifications",
	})
	if err != nil {
		log.Printf("Error sending check-in push for [%s]: %s\n", reservationNo, err.Error())
		return
	}
	log.Printf("Sent check-in push: %s\n", res)
}

// RevokeProviderSession signs the external identity out so a retried sign-in
// starts clean after a failed reconciliation.
func RevokeProviderSession(ctx context.Context, uid string) {
	if uid == "" {
		return
	}
	fauth, err := GetFirebaseAuth()
	if err != nil {
		log.Printf("Could not retrieve Firebase Auth instance: %s\n", err.Error())
		return
	}
	if err := fauth.RevokeRefreshTokens(ctx, uid); err != nil {
		log.Printf("Error revoking provider session for [%s]: %s\n", uid, err.Error())
	}
}
