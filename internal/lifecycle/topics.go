package lifecycle

const (
	TopicOrderLifecycle = "order.lifecycle"
	TopicSLABreached    = "order.sla.breached"
	TopicCompliance     = "order.compliance.flagged"
)

// Partition key = order id, so all events for one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
