package notification

// Email is a single outbound mail delivery request.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Mailer accepts send requests for asynchronous delivery. Delivery is
// at-least-once with bounded retries; callers never block on or roll back
// due to a delivery failure.
type Mailer interface {
	Enqueue(email Email)
}
