package database

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cedra_variant_editor/internal/config"
)

// Clients regroupe les connexions partagées par le service
type Clients struct {
	Scylla  *gocql.Session
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
}

// Connect ouvre toutes les connexions. La première erreur interrompt l'initialisation.
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Clients, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	scylla, err := ConnectScylla(cfg.Scylla)
	if err != nil {
		return nil, err
	}
	logger.Info("✅ Connecté à ScyllaDB", zap.String("keyspace", cfg.Scylla.Keyspace), zap.String("user", cfg.Scylla.Username))

	rdb, err := ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		scylla.Close()
		return nil, err
	}
	logger.Info("✅ Connecté à Redis", zap.String("addr", cfg.Redis.Addr))

	es, err := ConnectElastic(cfg.Elastic)
	if err != nil {
		scylla.Close()
		rdb.Close()
		return nil, err
	}
	logger.Info("✅ Connecté à Elasticsearch", zap.String("url", cfg.Elastic.URL))

	mc, err := ConnectMinIO(ctx, cfg.MinIO, logger)
	if err != nil {
		scylla.Close()
		rdb.Close()
		return nil, err
	}
	logger.Info("✅ Connecté à MinIO", zap.String("endpoint", cfg.MinIO.Endpoint))

	return &Clients{Scylla: scylla, Redis: rdb, Elastic: es, MinIO: mc}, nil
}

// Close ferme les connexions qui en ont une
func (c *Clients) Close() {
	if c.Scylla != nil {
		c.Scylla.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

// ConnectScylla crée la session du keyspace produits
func ConnectScylla(cfg config.ScyllaConfig) (*gocql.Session, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = cfg.Timeout
	cluster.NumConns = cfg.NumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("création session ScyllaDB pour %s: %w", cfg.Keyspace, err)
	}
	return session, nil
}

func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connexion Redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func ConnectElastic(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("création client Elasticsearch: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("connexion Elasticsearch %s: %w", cfg.URL, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("réponse Elasticsearch: %s", res.Status())
	}
	return client, nil
}

// ConnectMinIO crée le client et le bucket des images s'il manque
func ConnectMinIO(ctx context.Context, cfg config.MinIOConfig, logger *zap.Logger) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("création client MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("vérification bucket MinIO %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("création bucket MinIO %s: %w", cfg.Bucket, err)
		}
		logger.Info("🪣 Bucket créé", zap.String("bucket", cfg.Bucket))
	}
	return client, nil
}
