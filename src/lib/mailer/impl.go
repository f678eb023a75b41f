package mailer

import (
	"encoding/json"
	"fmt"
	"os"

	"brs/src/lib"
	"brs/src/types"
	"brs/src/utils"
)

// NewMailerMessage queues an outbound email. Local environments mirror the
// message onto the kafka topic so the worker can be exercised without AWS.
func NewMailerMessage(input *lib.SendMailInput) error {
	emailQueue := os.Getenv("EMAIL_QUEUE")
	apiEnv := os.Getenv("API_ENV")
	emailBody := types.JSONB{
		"from":      input.From,
		"from-name": input.FromName,
		"to":        input.To,
		"reply-to":  input.ReplyTo,
		"body":      input.Body,
		"html":      input.Html,
		"subject":   input.Subject,
	}
	if apiEnv == "local" {
		if err := lib.KafkaProduceMessage(utils.WithSuffix(emailQueue), emailBody); err != nil {
			return fmt.Errorf("error sending message to queue: %s", err.Error())
		}
	}
	body, err := json.Marshal(&emailBody)
	if err != nil {
		return err
	}
	if err := lib.SQSProduceMessage(utils.WithSuffix(emailQueue), string(body)); err != nil {
		return fmt.Errorf("error sending message to queue: %s", err.Error())
	}
	return nil
}

// ProcessMailerMessage is the queue consumer side of NewMailerMessage.
func ProcessMailerMessage(body string) {
	var payload types.JSONB
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return
	}
	to, _ := payload["to"].([]any)
	recipients := make([]string, 0, len(to))
	for _, t := range to {
		if s, ok := t.(string); ok {
			recipients = append(recipients, s)
		}
	}
	input := lib.SendMailInput{
		From:     fmt.Sprint(payload["from"]),
		FromName: fmt.Sprint(payload["from-name"]),
		To:       recipients,
		Subject:  fmt.Sprint(payload["subject"]),
		Body:     fmt.Sprint(payload["body"]),
	}
	if html, ok := payload["html"].(bool); ok {
		input.Html = html
	}
	if rt, ok := payload["reply-to"].(string); ok {
		input.ReplyTo = rt
	}
	lib.SendMail(&input)
}
