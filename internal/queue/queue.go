package queue

const (
	RequestQueue  = "transcode.request"
	ProgressQueue = "transcode.progress"
	ResponseQueue = "transcode.response"
)

// Queues lists every queue the worker uses.
var Queues = []string{RequestQueue, ProgressQueue, ResponseQueue}

type Channel interface {
	// Consume fetches at most one message from queue and decodes it into
	// data. ok is false when the queue is empty. The returned delivery must
	// be acked or nacked.
	Consume(queue string, data interface{}) (ok bool, delivery Delivery, err error)
	Publish(queue string, data interface{}) (err error)
	CreateQueue(queue string) (err error)
	Close() error
}

type Delivery interface {
	Ack() error
	Nack(requeue bool) error
}
