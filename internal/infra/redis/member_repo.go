package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"telegram-ai-relay/internal/domain/ports/repository"
)

var _ repository.MemberRepository = (*MemberRepo)(nil)

// MemberRepo stores the member list as a JSON array under a single key.
// SET replaces the value in one command, so readers never see a partial list.
type MemberRepo struct {
	client RedisClient
	key    string
}

func NewMemberRepo(client RedisClient, key string) *MemberRepo {
	if key == "" {
		key = "members"
	}
	return &MemberRepo{client: client, key: "group_members:" + key}
}

func (r *MemberRepo) Load(ctx context.Context) ([]string, error) {
	data, err := r.client.Get(ctx, r.key)
	if errors.Is(err, Nil) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.key, err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (r *MemberRepo) Save(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, data, 0)
}
