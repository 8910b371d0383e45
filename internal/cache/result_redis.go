package cache

import (
    "context"
    "encoding/hex"
    "encoding/json"
    "fmt"
    "strconv"
    "time"

    redis "github.com/redis/go-redis/v9"
    "golang.org/x/crypto/blake2b"

    "github.com/local/plandetect/internal/analyzer"
    "github.com/local/plandetect/internal/score"
)

// ResultCache caches finished analysis results in Redis, keyed by document
// digest plus the ranking parameters. Identical uploads skip the whole
// rendering/OCR pipeline.
type ResultCache struct {
    client *redis.Client
    ttl    time.Duration
    keyNS  string
}

// New connects to Redis and returns a ResultCache.
func New(redisURL string, ttl time.Duration) (*ResultCache, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil {
        return nil, err
    }
    c := redis.NewClient(opt)
    if err := c.Ping(context.Background()).Err(); err != nil {
        return nil, err
    }
    return &ResultCache{client: c, ttl: ttl, keyNS: "plan"}, nil
}

// Digest returns the hex BLAKE2b-256 digest of the document bytes.
func Digest(data []byte) string {
    sum := blake2b.Sum256(data)
    return hex.EncodeToString(sum[:])
}

// Key builds the cache key for a document digest and ranking parameters.
func (c *ResultCache) Key(digest string, topK int, minScore float64) string {
    return fmt.Sprintf("%s:%s:%d:%s", c.keyNS, digest, topK, strconv.FormatFloat(minScore, 'g', -1, 64))
}

// Get returns a cached result and whether it was present.
func (c *ResultCache) Get(ctx context.Context, key string) (analyzer.Result, bool, error) {
    raw, err := c.client.Get(ctx, key).Bytes()
    if err == redis.Nil {
        return analyzer.Result{}, false, nil
    }
    if err != nil {
        return analyzer.Result{}, false, err
    }
    var res cachedResult
    if err := json.Unmarshal(raw, &res); err != nil {
        return analyzer.Result{}, false, err
    }
    return analyzer.Result{BestPage: res.BestPage, HasBest: res.HasBest, Candidates: res.Candidates}, true, nil
}

// Set stores a result under key with the configured TTL.
func (c *ResultCache) Set(ctx context.Context, key string, res analyzer.Result) error {
    b, err := json.Marshal(cachedResult{BestPage: res.BestPage, HasBest: res.HasBest, Candidates: res.Candidates})
    if err != nil {
        return err
    }
    return c.client.Set(ctx, key, b, c.ttl).Err()
}

func (c *ResultCache) Close() error { return c.client.Close() }

// cachedResult mirrors analyzer.Result but persists the HasBest flag, which
// the API type deliberately leaves out of its JSON form.
type cachedResult struct {
    BestPage   int               `json:"best_page"`
    HasBest    bool              `json:"has_best"`
    Candidates []score.Candidate `json:"candidates"`
}
