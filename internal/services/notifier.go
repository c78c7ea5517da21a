package services

// Notifier pushes change events to a user's live connections.
type Notifier interface {
	Notify(userID, action string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
