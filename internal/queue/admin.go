package queue

import (
	rabbithole "github.com/michaelklishin/rabbit-hole/v2"
	"github.com/pkg/errors"
)

const DefaultVhost = "/"

// Admin reads queue depths from the RabbitMQ management API.
type Admin struct {
	client *rabbithole.Client
	vhost  string
}

type Stats struct {
	Name      string
	Ready     int
	Unacked   int
	Total     int
	Consumers int
}

func NewAdmin(uri, user, pass string) (*Admin, error) {
	client, err := rabbithole.NewClient(uri, user, pass)

	if err != nil {
		return nil, errors.Wrap(err, "rabbitmq admin client")
	}

	return &Admin{client: client, vhost: DefaultVhost}, nil
}

func (a *Admin) Stats(queues ...string) ([]Stats, error) {
	stats := make([]Stats, 0, len(queues))

	for _, name := range queues {
		info, err := a.client.GetQueue(a.vhost, name)

		if err != nil {
			return nil, errors.Wrapf(err, "get queue info '%s'", name)
		}

		stats = append(stats, Stats{
			Name:      name,
			Ready:     info.MessagesReady,
			Unacked:   info.MessagesUnacknowledged,
			Total:     info.Messages,
			Consumers: info.Consumers,
		})
	}

	return stats, nil
}
