package chatgw

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messagesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_gateway_messages_ingested_total",
	Help: "Inbound chat messages accepted by the gateway",
}, []string{"kind"})

var outboxPublished = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_gateway_outbox_published_total",
	Help: "Outbound messages published to the outbox",
})

var outboxDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_gateway_outbox_dropped_total",
	Help: "Outbound messages dropped because a subscriber was not keeping up",
})

var outboxSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "warden_gateway_outbox_subscribers",
	Help: "Currently connected outbox websocket subscribers",
})
