package common

import "time"

// DefaultQueueName is the queue that carries activation notices from the
// server to the consumer.
const DefaultQueueName = "email_notifications"

// DefaultCodeTTL is how long an activation code stays valid after issue.
const DefaultCodeTTL = time.Minute
