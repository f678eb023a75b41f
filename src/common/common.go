package common

import (
	"log"
	"os"

	"github.com/tidwall/gjson"

	"brs/src/lib"
	awslib "brs/src/lib/aws"
	"brs/src/lib/mailer"
	"brs/src/utils"
)

// SQSConsumers wires the background queue workers. The email queue drains
// into the SMTP sender; the check-in queue feeds the front desk display.
func SQSConsumers() {
	dlq := awslib.NewSQSConsumer(utils.WithSuffix("DLQ"), func(payload string) {
		log.Println("DLQ: message received")
	})
	dlq.Listen()
	emails := awslib.NewSQSConsumer(utils.WithSuffix("Emails"), mailer.ProcessMailerMessage)
	emails.Listen()
	checkins := awslib.NewSQSConsumer(utils.WithSuffix("CheckIns"), func(payload string) {
		no := gjson.Get(payload, "reservation_no").String()
		log.Printf("CheckIns: reservation %s confirmed\n", no)
		inbox := os.Getenv("FRONTDESK_EMAIL")
		if inbox == "" {
			return
		}
		table := gjson.Get(payload, "table").String()
		awslib.SESSendCheckInReceipt(inbox, no, table)
	})
	checkins.Listen()
}

func SNSSubscribes() {
	checkins := awslib.NewSNSSubscriber(utils.WithSuffix("CheckIns"))
	checkins.Subscribe("sqs", lib.GetQueueArn(utils.WithSuffix("CheckIns")))
}
