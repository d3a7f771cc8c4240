// Package realtime publica y entrega los eventos de cambio por tabla (feed de invalidación).
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/agro-inventario/internal/application/ports"
	"github.com/jhoicas/agro-inventario/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const defaultChannelPrefix = "agro:changes"

// RedisConfig conexión a Redis.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
}

// RedisNotifier implementa ports.ChangeNotifier con Redis Pub/Sub: un canal por tabla
// (<prefijo>:<tabla>) y mensajes JSON.
type RedisNotifier struct {
	client *redis.Client
	prefix string
	log    *logger.Logger
}

var _ ports.ChangeNotifier = (*RedisNotifier)(nil)

// NewRedisNotifier conecta con Redis y verifica la conexión con PING.
func NewRedisNotifier(ctx context.Context, cfg RedisConfig, log *logger.Logger) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisNotifierWithClient(client, cfg.ChannelPrefix, log), nil
}

// NewRedisNotifierWithClient usa un cliente existente (el llamador conserva su ciclo de vida).
func NewRedisNotifierWithClient(client *redis.Client, prefix string, log *logger.Logger) *RedisNotifier {
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	return &RedisNotifier{client: client, prefix: prefix, log: log}
}

func (n *RedisNotifier) channel(table string) string {
	return n.prefix + ":" + table
}

// Publish envía el evento al canal de su tabla.
func (n *RedisNotifier) Publish(ctx context.Context, evt ports.ChangeEvent) error {
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel(evt.Table), data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe escucha los canales de las tablas pedidas hasta que ctx termine.
func (n *RedisNotifier) Subscribe(ctx context.Context, tables []string, fn func(ports.ChangeEvent)) error {
	if len(tables) == 0 {
		return fmt.Errorf("subscribe: sin tablas")
	}
	channels := make([]string, 0, len(tables))
	for _, t := range tables {
		channels = append(channels, n.channel(t))
	}
	pubsub := n.client.Subscribe(ctx, channels...)
	defer pubsub.Close()

	// Confirmación de la suscripción
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var evt ports.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				n.log.Warn().Err(err).Str("channel", msg.Channel).Msg("evento de cambio inválido")
				continue
			}
			fn(evt)
		}
	}
}

// Close cierra el cliente de Redis.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
