package aws

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

func GetSESClient() *ses.Client {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Printf("Could not load default config: %s\n", err.Error())
		return nil
	}
	svc := ses.NewFromConfig(cfg)
	return svc
}

func SESSendMessage(from *string, destination *types.Destination, message *types.Message) {
	c := GetSESClient()
	input := &ses.SendEmailInput{
		Destination: destination,
		Source:      from,
		Message:     message,
	}
	out, err := c.SendEmail(context.TODO(), input)
	if err != nil {
		log.Printf("Error sending email: %s\n", err.Error())
		return
	}
	log.Printf("Sent email with id: %s\n", *out.MessageId)
}

// SESSendCheckInReceipt emails a receipt for a confirmed check-in.
func SESSendCheckInReceipt(to string, reservationNo string, tableName string) {
	from := os.Getenv("MAIL_FROM")
	subject := fmt.Sprintf("Checked in: reservation %s", reservationNo)
	body := fmt.Sprintf("Your reservation %s at %s has been checked in. Enjoy your game!", reservationNo, tableName)
	SESSendMessage(aws.String(from), &types.Destination{
		ToAddresses: []string{to},
	}, &types.Message{
		Subject: &types.Content{Data: aws.String(subject)},
		Body: &types.Body{
			Text: &types.Content{Data: aws.String(body)},
		},
	})
}
