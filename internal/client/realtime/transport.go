package realtime

import (
	"context"
	"encoding/json"
)

//go:generate moq -out transport_mock.go . Transport

// EventHandler получает payload события подписанного топика
type EventHandler func(payload json.RawMessage)

// Transport is the push channel to the server. A topic has at most one
// handler; joining an already joined topic replaces its handler.
type Transport interface {
	// Join подписывается на топик
	Join(ctx context.Context, topic string, handler EventHandler) error

	// Leave отписывается от топика. Отписка от неизвестного топика не ошибка.
	Leave(ctx context.Context, topic string) error

	// Close закрывает соединение
	Close() error
}
