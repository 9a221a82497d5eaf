package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"
)

type ValkeyConfig struct {
	Address  string
	Password string
	UseTLS   bool
}

type ValkeyClient struct {
	Client valkey.Client
}

// NewValkeyClient connects and pings once so a bad address shows up at
// startup rather than on the first cache lookup.
func NewValkeyClient(ctx context.Context, cfg ValkeyConfig) (*ValkeyClient, error) {
	opts := valkey.ClientOption{
		InitAddress: []string{
			cfg.Address,
		},
		Password:         cfg.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}

	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey",
		slog.String("address", cfg.Address))

	return &ValkeyClient{Client: client}, nil
}

func (vc *ValkeyClient) Close() {
	vc.Client.Close()
}

// Get returns the stored bytes and whether the key existed.
func (vc *ValkeyClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := vc.Client.Do(ctx, vc.Client.B().Get().Key(key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (vc *ValkeyClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	cmd := vc.Client.B().Set().Key(key).Value(valkey.BinaryString(value)).ExSeconds(seconds).Build()
	return vc.Client.Do(ctx, cmd).Error()
}
