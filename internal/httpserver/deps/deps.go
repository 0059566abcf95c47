package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tenancy/internal/domain"
	"github.com/MrSnakeDoc/tenancy/internal/httpserver/mw"
	"github.com/MrSnakeDoc/tenancy/internal/logger"
	"github.com/MrSnakeDoc/tenancy/internal/mounts"
	redisstore "github.com/MrSnakeDoc/tenancy/internal/store/redis"
)

// UsageStore records and reports per-service request counters.
type UsageStore interface {
	IncrementUsage(ctx context.Context, service string) error
	Usage(ctx context.Context) ([]redisstore.ServiceUsage, error)
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time  // for testing, defaults to time.Now
	AllowedCIDRS []string          // IPs allowed to access infra endpoints
	TrustProxy   bool              // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CatalogFile  string            // path of the catalog file, reported by /infra
	Catalog      *domain.Catalog   // ordered services, read-only
	FS           domain.FileSystem // filesystem holding the services
	Middleware   *mw.Registry      // named middleware services opt into
	Mounts       *mounts.Cache     // routers built per service
	RedisClient  *redis.Client     // nil when usage tracking is disabled
	Usage        UsageStore        // nil when usage tracking is disabled
}
