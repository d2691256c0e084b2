package db

import (
	"context"
	"fmt"

	"github.com/acorn-io/dnswatch/pkg/model"
	"github.com/redis/rueidis"
)

const redisKeyPrefix = "dnswatch:records:"

type redisDatabase struct {
	client rueidis.Client
}

// NewRedis returns a store keeping one JSON snapshot per domain under
// dnswatch:records:<domain>.
func NewRedis(addr string, index int) (Database, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{addr},
		SelectDB:    index,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &redisDatabase{client: client}, nil
}

func (r *redisDatabase) GetSnapshot(ctx context.Context, domain string) (model.Snapshot, bool, error) {
	value, err := r.client.Do(ctx, r.client.B().Get().Key(redisKeyPrefix+domain).Build()).ToString()
	return snapshotFromReply(domain, value, err)
}

// snapshotFromReply maps a GET reply to a snapshot. A nil reply means the
// domain has never been stored.
func snapshotFromReply(domain, value string, err error) (model.Snapshot, bool, error) {
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading snapshot for %s: %w", domain, err)
	}

	snapshot, err := model.UnmarshalSnapshot(value)
	if err != nil {
		return nil, false, fmt.Errorf("reading snapshot for %s: %w", domain, err)
	}
	return snapshot, true, nil
}

func (r *redisDatabase) PutSnapshot(ctx context.Context, domain string, snapshot model.Snapshot) error {
	value, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	if err := r.client.Do(ctx, r.client.B().Set().Key(redisKeyPrefix+domain).Value(value).Build()).Error(); err != nil {
		return fmt.Errorf("storing snapshot for %s: %w", domain, err)
	}
	return nil
}

func (r *redisDatabase) Close() error {
	r.client.Close()
	return nil
}
