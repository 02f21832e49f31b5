package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kazmiyai/favuls/internal/logger"
	"github.com/kazmiyai/favuls/internal/utils"
)

const (
	// keyPrefix namespaces all synced keys in Redis.
	keyPrefix = "favuls:kv:"
	// changeChannel is the pub/sub channel for change notifications.
	changeChannel = "favuls:changes"
)

// Redis implements Store over a shared Redis instance. Bulk reads use
// MGET, bulk writes a pipeline, and change notifications ride pub/sub so
// every open instance hears about every save.
type Redis struct {
	client *redis.Client
	sender string
	log    logger.Logger
}

// NewRedis creates a Redis-backed store. sender tags published events with
// this instance's identity.
func NewRedis(client *redis.Client, sender string, log logger.Logger) *Redis {
	return &Redis{client: client, sender: sender, log: log}
}

func prefixed(key string) string { return keyPrefix + key }

func (r *Redis) Get(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = prefixed(k)
	}

	vals, err := r.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: mget failed: %v", ErrUnavailable, err)
	}

	out := make(map[string]string, len(keys))
	for i, v := range vals {
		if v == nil {
			continue // absent keys are silently omitted
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		out[keys[i]] = s
	}
	return out, nil
}

func (r *Redis) Set(ctx context.Context, items map[string]string) error {
	if len(items) == 0 {
		return nil
	}
	newSize, err := checkItems(items)
	if err != nil {
		return err
	}

	// Quota check: current usage minus the keys being overwritten plus
	// the new payload must fit. Checked before any write so a failed Set
	// leaves the store untouched.
	usage, err := r.Usage(ctx)
	if err != nil {
		return err
	}
	oldSize, err := r.sizeOf(ctx, items)
	if err != nil {
		return err
	}
	if usage-oldSize+newSize > QuotaBytes {
		return ErrQuotaExceeded
	}

	pipe := r.client.Pipeline()
	for k, v := range items {
		pipe.Set(ctx, prefixed(k), v, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: pipelined set failed: %v", ErrUnavailable, err)
	}

	changes := make(map[string]Change, len(items))
	for k, v := range items {
		changes[k] = Change{NewValue: strptr(v)}
	}
	r.publish(ctx, changes)
	return nil
}

func (r *Redis) Remove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = prefixed(k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("%w: del failed: %v", ErrUnavailable, err)
	}

	changes := make(map[string]Change, len(keys))
	for _, k := range keys {
		changes[k] = Change{}
	}
	r.publish(ctx, changes)
	return nil
}

// Usage sums key and value lengths over the synced namespace, mirroring
// the accounting the quota is defined against.
func (r *Redis) Usage(ctx context.Context) (int, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("%w: scan failed: %v", ErrUnavailable, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.StrLen(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: strlen failed: %v", ErrUnavailable, err)
	}

	total := 0
	for i, cmd := range cmds {
		total += len(keys[i]) - len(keyPrefix) + int(cmd.Val())
	}
	return total, nil
}

func (r *Redis) Subscribe(ctx context.Context) (<-chan Event, error) {
	sub := r.client.Subscribe(ctx, changeChannel)
	// Confirm the subscription before returning so callers never miss
	// events published after Subscribe returns.
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("%w: subscribe failed: %v", ErrUnavailable, err)
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		defer utils.Close(sub)

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					r.log.Warn("dropping malformed change notification", logger.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// sizeOf returns the current stored size of the keys about to be written.
func (r *Redis) sizeOf(ctx context.Context, items map[string]string) (int, error) {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.StrLen(ctx, prefixed(k))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: strlen failed: %v", ErrUnavailable, err)
	}

	total := 0
	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			total += len(keys[i]) + int(cmd.Val())
		}
	}
	return total, nil
}

// publish sends a change notification. Best-effort: a publish failure is
// logged, never surfaced, because the write itself already succeeded.
func (r *Redis) publish(ctx context.Context, changes map[string]Change) {
	payload, err := json.Marshal(Event{Sender: r.sender, Changes: changes})
	if err != nil {
		r.log.Warn("failed to encode change notification", logger.Error(err))
		return
	}
	if err := r.client.Publish(ctx, changeChannel, payload).Err(); err != nil {
		r.log.Warn("failed to publish change notification", logger.Error(err))
	}
}
