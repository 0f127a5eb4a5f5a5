package email

import (
	"context"
	"sort"
	"sync"
)

// Handler sends a single email through a provider. Implementations register
// themselves the way database/sql drivers do.
type Handler interface {
	// SendMail delivers the message and returns the provider message id
	SendMail(ctx context.Context, from string, to string, subject string, htmlBody string, textBody string) (string, error)
}

var (
	handlersMu sync.RWMutex
	handlers   = make(map[string]Handler)
)

// Register makes an email handler available under the given domain.
// It panics when the handler is nil or the domain is registered twice.
func Register(domain string, handler Handler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	if handler == nil {
		panic("email: Register handler is nil")
	}
	if _, dup := handlers[domain]; dup {
		panic("email: Register called twice for domain " + domain)
	}
	handlers[domain] = handler
}

// GetHandler returns the handler registered for the domain, or nil
func GetHandler(domain string) Handler {
	handlersMu.RLock()
	defer handlersMu.RUnlock()
	return handlers[domain]
}

// Handlers returns a sorted list of registered domains
func Handlers() []string {
	handlersMu.RLock()
	defer handlersMu.RUnlock()
	list := make([]string, 0, len(handlers))
	for domain := range handlers {
		list = append(list, domain)
	}
	sort.Strings(list)
	return list
}

// UnregisterAllHandlers removes all registered handlers (tests only)
func UnregisterAllHandlers() {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	handlers = make(map[string]Handler)
}
