package sequence

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"smallbiznis-rewards/pkg/rediskey"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("sequence",
	fx.Provide(NewRedisGenerator),
)

// Generator issues human-readable, day-scoped reference codes.
type Generator interface {
	NextPaymentReference(ctx context.Context, day time.Time) (string, error)
}

type RedisGenerator struct {
	rdb *redis.Client
}

type Params struct {
	fx.In

	Redis *redis.Client
}

func NewRedisGenerator(p Params) Generator {
	return &RedisGenerator{
		rdb: p.Redis,
	}
}

// NextPaymentReference returns codes like PAY-261019-00AK7.
func (g *RedisGenerator) NextPaymentReference(ctx context.Context, day time.Time) (string, error) {
	return g.nextDailyCode(ctx, "PAY", day)
}

func (g *RedisGenerator) nextDailyCode(ctx context.Context, prefix string, day time.Time) (string, error) {
	stamp := day.UTC().Format("060102")
	key := rediskey.BuildSequenceKey(prefix, stamp)

	seq, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		return "", err
	}

	if seq == 1 {
		_ = g.rdb.Expire(ctx, key, 48*time.Hour).Err()
	}

	return FormatCode(prefix, stamp, seq)
}

// FormatCode renders prefix-stamp-SEQ36 followed by two random characters.
func FormatCode(prefix, stamp string, seq int64) (string, error) {
	encodedSeq := strings.ToUpper(strconv.FormatInt(seq, 36))
	if len(encodedSeq) < 3 {
		encodedSeq = strings.Repeat("0", 3-len(encodedSeq)) + encodedSeq
	}

	suffix, err := randomAlphaNumeric(2)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%s%s", prefix, stamp, encodedSeq, suffix), nil
}

func randomAlphaNumeric(n int) (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		b[i] = chars[num.Int64()]
	}
	return string(b), nil
}
