package warehouse

const (
	TopicOrderCreated = "warehouse.order.created"
	TopicOrderShipped = "warehouse.order.shipped"
)

// Partition key = order id, so all events for one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
