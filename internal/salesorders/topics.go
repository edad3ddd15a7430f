package salesorders

import "strconv"

// PartitionKey keeps every event of one order on the same partition, in order.
func PartitionKey(orderID int64) []byte { return []byte(strconv.FormatInt(orderID, 10)) }
