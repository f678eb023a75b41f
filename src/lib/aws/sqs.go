package aws

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"brs/src/lib"
	"brs/src/types"
)

// SQSConsumer drains one queue and hands each raw body to its handler. Emails
// and check-in receipts both ride this path.
type SQSConsumer struct {
	Name    string
	handler *types.Handler
}

func NewSQSConsumer(queue string, handler types.Handler) *SQSConsumer {
	c := SQSConsumer{
		Name:    queue,
		handler: &handler,
	}
	return &c
}

func (s *SQSConsumer) Listen() {
	go func() {
		qname := s.Name
		client := lib.AWSGetSQSClient()
		qurl, err := client.GetQueueUrl(context.TODO(), &sqs.GetQueueUrlInput{
			QueueName: aws.String(qname),
		})
		if err != nil {
			log.Printf("Failed to retrieve queue URL for %s: %s\n", qname, err.Error())
			return
		}
		log.Printf("%s: Listening for messages...", qname)

		messagesChan := make(chan *sqstypes.Message, 5)
		go s.poll(client, qurl.QueueUrl, messagesChan)

		for m := range messagesChan {
			body := strings.Clone(*m.Body)
			h := *s.handler
			go h(body)
			go lib.SQSDeleteMessage(client, qurl.QueueUrl, m)
		}
	}()
}

// poll long-polls forever. A receive error backs off instead of killing the
// consumer: a dropped broker connection must not silence check-in receipts.
func (s *SQSConsumer) poll(client *sqs.Client, qurl *string, chn chan<- *sqstypes.Message) {
	backoff := time.Second
	for {
		output, err := client.ReceiveMessage(context.Background(), &sqs.ReceiveMessageInput{
			QueueUrl:            qurl,
			WaitTimeSeconds:     20,
			MaxNumberOfMessages: 10,
		})
		if err != nil {
			log.Printf("[SQS] Error receiving messages on %s: %s\n", s.Name, err.Error())
			time.Sleep(backoff)
			if backoff < time.Minute {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		for _, m := range output.Messages {
			chn <- &m
		}
	}
}
