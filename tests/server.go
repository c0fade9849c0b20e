package tests

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	ckafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/nimeshabuddhika/account-service-go/app"
	"github.com/nimeshabuddhika/account-service-go/pkg"
	"github.com/nimeshabuddhika/account-service-go/pkg/utils"
	"github.com/testcontainers/testcontainers-go"
	tckafkamod "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	kafkaBootstrap string
	kafkaTopic     = "account.events.test"
)

func GetKafkaBootstrap() string { return kafkaBootstrap }
func GetKafkaTopic() string     { return kafkaTopic }

// SkipUnlessE2E gates the black-box suite. The suite needs Docker for
// disposable Postgres/Kafka/Redis containers, so it only runs when APP_E2E is set.
func SkipUnlessE2E(t *testing.T) {
	t.Helper()
	if utils.IsEmpty(os.Getenv("APP_E2E")) {
		t.Skip("APP_E2E not set; skipping end-to-end tests")
	}
}

// StartAccountAPIServer starts the account service in-process using NewApp
// against a disposable Postgres container. Event publishing is disabled.
// It returns the base URL and a cleanup function that should be deferred in tests.
func StartAccountAPIServer(t *testing.T) (baseURL string, cleanup func()) {
	t.Helper()
	SkipUnlessE2E(t)

	dsnNoProto, pgTerminate, err := startPostgresForTests()
	if err != nil {
		t.Fatalf("failed to start postgres: %v", err)
	}

	return startApp(t, map[string]string{
		"APP_PRIMARY_DB_ADDR": dsnNoProto,
		"APP_REPLICA_DB_ADDR": dsnNoProto,
	}, pgTerminate)
}

// StartAccountAPIServerWithKafka also provisions a Kafka container so tests
// can consume the published account lifecycle events.
func StartAccountAPIServerWithKafka(t *testing.T) (baseURL, bootstrap string, cleanup func()) {
	t.Helper()
	SkipUnlessE2E(t)

	// Start disposable containers: Postgres and Kafka concurrently
	type pgResult struct {
		dsnNoProto string
		terminate  func()
		err        error
	}
	type kResult struct {
		bootstrap string
		terminate func()
		err       error
	}
	pgCh := make(chan pgResult, 1)
	kCh := make(chan kResult, 1)
	go func() {
		dsn, term, err := startPostgresForTests()
		pgCh <- pgResult{dsnNoProto: dsn, terminate: term, err: err}
	}()
	go func() {
		boot, term, err := StartKafkaForTests()
		kCh <- kResult{bootstrap: boot, terminate: term, err: err}
	}()

	var (
		pgRes = <-pgCh
		kRes  = <-kCh
	)
	if pgRes.err != nil || kRes.err != nil {
		// Best-effort cleanup if any started successfully
		if pgRes.err == nil && pgRes.terminate != nil {
			pgRes.terminate()
		}
		if kRes.err == nil && kRes.terminate != nil {
			kRes.terminate()
		}
		t.Fatalf("failed to start dependencies: postgres err=%v, kafka err=%v", pgRes.err, kRes.err)
	}

	// Ensure the topic exists before starting the app
	ensureKafkaTopic(t, kRes.bootstrap, kafkaTopic, 4)

	terminate := func() {
		pgRes.terminate()
		kRes.terminate()
	}
	baseURL, cleanup = startApp(t, map[string]string{
		"APP_PRIMARY_DB_ADDR":     pgRes.dsnNoProto,
		"APP_REPLICA_DB_ADDR":     pgRes.dsnNoProto,
		"APP_KAFKA_BROKERS":       kRes.bootstrap,
		"APP_KAFKA_ACCOUNT_TOPIC": kafkaTopic,
	}, terminate)
	return baseURL, kRes.bootstrap, cleanup
}

// StartAccountAPIServerWithRedis runs the service with a Redis container and a
// request rate limit so tests can drive the limiter over its burst.
func StartAccountAPIServerWithRedis(t *testing.T, rps, burst int) (baseURL string, cleanup func()) {
	t.Helper()
	SkipUnlessE2E(t)

	dsnNoProto, pgTerminate, err := startPostgresForTests()
	if err != nil {
		t.Fatalf("failed to start postgres: %v", err)
	}
	redisAddr, redisTerminate, err := StartRedisForTests()
	if err != nil {
		pgTerminate()
		t.Fatalf("failed to start redis: %v", err)
	}

	terminate := func() {
		pgTerminate()
		redisTerminate()
	}
	return startApp(t, map[string]string{
		"APP_PRIMARY_DB_ADDR":  dsnNoProto,
		"APP_REPLICA_DB_ADDR":  dsnNoProto,
		"APP_REDIS_ADDR":       redisAddr,
		"APP_RATE_LIMIT_RPS":   fmt.Sprintf("%d", rps),
		"APP_RATE_LIMIT_BURST": fmt.Sprintf("%d", burst),
	}, terminate)
}

// managedEnv lists every variable startApp controls. Unsetting them first keeps
// configuration from one in-process server leaking into the next.
var managedEnv = []string{
	"APP_PORT",
	"APP_PRIMARY_DB_ADDR",
	"APP_REPLICA_DB_ADDR",
	"APP_KAFKA_BROKERS",
	"APP_KAFKA_ACCOUNT_TOPIC",
	"APP_REDIS_ADDR",
	"APP_RATE_LIMIT_RPS",
	"APP_RATE_LIMIT_BURST",
}

func startApp(t *testing.T, env map[string]string, terminate func()) (baseURL string, cleanup func()) {
	t.Helper()

	port, err := getFreePort()
	if err != nil {
		terminate()
		t.Fatalf("failed to get free port: %v", err)
	}

	// Configure environment variables
	for _, k := range managedEnv {
		_ = os.Unsetenv(k)
	}
	_ = os.Setenv("APP_PORT", fmt.Sprintf("%d", port))
	_ = os.Setenv("GIN_MODE", "test")
	for k, v := range env {
		_ = os.Setenv(k, v)
	}

	// Build app and run server
	pkg.InitLogger()
	logger := pkg.Logger
	srv, appCleanup, err := app.NewApp(context.Background(), logger)
	if err != nil {
		terminate()
		t.Fatalf("failed to build account service app: %v", err)
	}

	baseURL = fmt.Sprintf("http://127.0.0.1:%d", port)

	go func() {
		_ = srv.ListenAndServe()
	}()

	// Wait for readiness with timeout, allow time for migrations
	wctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := waitForReady(wctx, baseURL+"/health"); err != nil {
		_ = srv.Close()
		appCleanup()
		terminate()
		t.Fatalf("account service failed to become ready: %v", err)
	}

	cleanup = func() {
		// Graceful shutdown
		ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
		defer c()
		_ = srv.Shutdown(ctx)
		appCleanup()
		terminate()
	}
	return baseURL, cleanup
}

// startPostgresForTests starts a PostgreSQL testcontainer. It returns a DSN
// without the `postgres://` prefix to match the app's expectations (the app
// prepends the protocol internally), and a termination func for cleanup.
func startPostgresForTests() (dsnNoProto string, terminate func(), err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	const (
		user     = "db_user"
		password = "db_password"
		dbName   = "accounts"
	)

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": password,
			"POSTGRES_DB":       dbName,
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, e := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if e != nil {
		err = fmt.Errorf("failed to start postgres test container: %w", e)
		return
	}

	// Build connection string
	host, e := pgC.Host(ctx)
	if e != nil {
		_ = pgC.Terminate(context.Background())
		err = fmt.Errorf("failed to get postgres host: %w", e)
		return
	}
	port, e := pgC.MappedPort(ctx, "5432/tcp")
	if e != nil {
		_ = pgC.Terminate(context.Background())
		err = fmt.Errorf("failed to get mapped port: %w", e)
		return
	}
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port.Port(), dbName)

	terminate = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = pgC.Terminate(ctx)
	}

	dsnNoProto = strings.TrimPrefix(connStr, "postgres://")
	return
}

// StartKafkaForTests starts a Kafka test container and returns its bootstrap address.
func StartKafkaForTests() (bootstrap string, terminate func(), err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	kc, e := tckafkamod.RunContainer(ctx)
	if e != nil {
		err = fmt.Errorf("failed to start kafka test container: %w", e)
		return
	}

	// Derive bootstrap from mapped port
	host, e := kc.Host(ctx)
	if e != nil {
		_ = kc.Terminate(context.Background())
		err = fmt.Errorf("failed to get kafka host: %w", e)
		return
	}
	mapped, e := kc.MappedPort(ctx, "9092/tcp")
	if e != nil {
		// try alternative default external port used by some images
		mapped, e = kc.MappedPort(ctx, "9093/tcp")
		if e != nil {
			_ = kc.Terminate(context.Background())
			err = fmt.Errorf("failed to get kafka mapped port: %w", e)
			return
		}
	}
	bootstrap = fmt.Sprintf("%s:%s", host, mapped.Port())
	kafkaBootstrap = bootstrap

	terminate = func() {
		ctx, c := context.WithTimeout(context.Background(), 30*time.Second)
		defer c()
		_ = kc.Terminate(ctx)
	}
	return
}

// StartRedisForTests spins up a Redis container and returns host:port and a terminate function.
func StartRedisForTests() (addr string, terminate func(), err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	rc, e := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if e != nil {
		err = fmt.Errorf("failed to start redis test container: %w", e)
		return
	}

	host, e := rc.Host(ctx)
	if e != nil {
		_ = rc.Terminate(context.Background())
		err = fmt.Errorf("failed to get redis host: %w", e)
		return
	}
	mapped, e := rc.MappedPort(ctx, "6379/tcp")
	if e != nil {
		_ = rc.Terminate(context.Background())
		err = fmt.Errorf("failed to get redis mapped port: %w", e)
		return
	}
	addr = fmt.Sprintf("%s:%s", host, mapped.Port())

	terminate = func() {
		ctx, c := context.WithTimeout(context.Background(), 30*time.Second)
		defer c()
		_ = rc.Terminate(ctx)
	}
	return
}

func ensureKafkaTopic(t *testing.T, bootstrap, topic string, partitions int) {
	admin, err := ckafka.NewAdminClient(&ckafka.ConfigMap{"bootstrap.servers": bootstrap})
	if err != nil {
		t.Logf("kafka admin create failed: %v", err)
		return
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	specs := []ckafka.TopicSpecification{{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	}}
	_, _ = admin.CreateTopics(ctx, specs)
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func waitForReady(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 500 * time.Millisecond}
	for {
		if ctx.Err() != nil {
			return fmt.Errorf("timeout waiting for %s", url)
		}
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 500 {
				return nil
			}
		}
		time.Sleep(150 * time.Millisecond)
	}
}
