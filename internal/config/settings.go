package config

import (
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/api/resource"
)

// Setting names, each read from the environment variable or file key of
// the same name.
const (
	OMBKubeconfigEnv           = "OMB_KUBECONFIG"
	KafkaKubeconfigEnv         = "KAFKA_KUBECONFIG"
	EnableMetricsEnv           = "ENABLE_METRICS"
	OMBTestDurationEnv         = "OMB_TEST_DURATION"
	OMBWarmupDurationEnv       = "OMB_WARMUP_DURATION"
	ApplyBrokerQuotaEnv        = "APPLY_BROKER_QUOTA"
	MaxExecLogCharactersEnv    = "STRIMZI_EXEC_MAX_LOG_OUTPUT_CHARACTERS"
	OMBCollectLogEnv           = "OMB_COLLECT_LOG"
	KafkaCollectLogEnv         = "KAFKA_COLLECT_LOG"
	MaxKafkaInstancesEnv       = "MAX_KAFKA_INSTANCES"
	NumIngressControllersEnv   = "NUM_INGRESS_CONTROLLERS"
	ProvidedKafkaClustersEnv   = "PROVIDED_KAFKA_CLUSTERS_FILE"
	ConsumerPerSubscriptionEnv = "CONSUMER_PER_SUBSCRIPTION"
	TargetRateEnv              = "TARGET_RATE"
	WorkersPerInstanceEnv      = "WORKERS_PER_INSTANCE"
	TopicsPerKafkaEnv          = "TOPICS_PER_KAFKA"
	ProducersPerTopicEnv       = "PRODUCERS_PER_TOPIC"
	PayloadFileSizeEnv         = "PAYLOAD_FILE_SIZE"
)

const (
	defaultTestDuration         = time.Minute
	defaultWarmupDuration       = time.Minute
	defaultMaxExecLogCharacters = 20000
	defaultTargetRate           = 2000
	defaultWorkersPerInstance   = 2
	defaultPayloadFileSize      = "1Ki"
)

// Settings is the resolved performance suite configuration. It is built
// once by Load and not modified afterwards.
type Settings struct {
	ConfigPath string

	OMBKubeconfig   string
	KafkaKubeconfig string

	EnableMetrics     bool
	OMBTestDuration   time.Duration
	OMBWarmupDuration time.Duration
	ApplyBrokerQuota  bool

	MaxExecLogCharacters int
	OMBCollectLog        bool
	KafkaCollectLog      bool

	MaxKafkaInstances         int
	NumIngressControllers     int
	ProvidedKafkaClustersFile string

	ConsumerPerSubscription int
	TargetRate              int
	WorkersPerInstance      int
	TopicsPerKafka          int
	ProducersPerTopic       int
	PayloadFileSize         resource.Quantity

	// Resolved lists every setting in resolution order with its origin.
	Resolved []Entry
}

// DefaultSuiteRoot returns the working directory, the base for the default
// kubeconfig and cluster file locations.
func DefaultSuiteRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

// Load resolves the whole settings catalog in a fixed order. The first
// conversion failure aborts loading.
func Load(r *Resolver, suiteRoot string) (Settings, error) {
	s := Settings{
		ConfigPath:      r.ConfigPath(),
		OMBKubeconfig:   r.ResolveString(OMBKubeconfigEnv, filepath.Join(suiteRoot, "client-config")),
		KafkaKubeconfig: r.ResolveString(KafkaKubeconfigEnv, filepath.Join(suiteRoot, "kafka-config")),
	}

	l := loader{r: r}
	s.EnableMetrics = l.boolean(EnableMetricsEnv, true)
	s.OMBTestDuration = l.duration(OMBTestDurationEnv, defaultTestDuration)
	s.OMBWarmupDuration = l.duration(OMBWarmupDurationEnv, defaultWarmupDuration)
	s.ApplyBrokerQuota = l.boolean(ApplyBrokerQuotaEnv, true)
	s.MaxExecLogCharacters = l.integer(MaxExecLogCharactersEnv, defaultMaxExecLogCharacters)
	s.OMBCollectLog = l.boolean(OMBCollectLogEnv, false)
	s.KafkaCollectLog = l.boolean(KafkaCollectLogEnv, false)
	s.MaxKafkaInstances = l.integer(MaxKafkaInstancesEnv, math.MaxInt32)
	s.NumIngressControllers = l.integer(NumIngressControllersEnv, 1)
	s.ProvidedKafkaClustersFile = l.path(ProvidedKafkaClustersEnv, filepath.Join(suiteRoot, "provided_clusters.yaml"))
	s.ConsumerPerSubscription = l.integer(ConsumerPerSubscriptionEnv, 1)
	s.TargetRate = l.integer(TargetRateEnv, defaultTargetRate)
	s.WorkersPerInstance = l.integer(WorkersPerInstanceEnv, defaultWorkersPerInstance)
	s.TopicsPerKafka = l.integer(TopicsPerKafkaEnv, 1)
	s.ProducersPerTopic = l.integer(ProducersPerTopicEnv, 1)
	s.PayloadFileSize = l.quantity(PayloadFileSizeEnv, resource.MustParse(defaultPayloadFileSize))

	if l.err != nil {
		return Settings{}, l.err
	}

	s.Resolved = r.Record().Entries()
	return s, nil
}

// LogSettings writes the configuration path and every resolved setting at
// info level.
func LogSettings(logger *zap.Logger, s Settings) {
	logger.Info("used environment variables")
	logger.Info("setting", zap.String("name", "CONFIG"), zap.String("value", s.ConfigPath))
	for _, entry := range s.Resolved {
		logger.Info("setting",
			zap.String("name", entry.Name),
			zap.String("value", entry.Value),
			zap.String("origin", string(entry.Origin)),
		)
	}
}

// loader resolves settings until the first error, after which every call
// returns the zero value.
type loader struct {
	r   *Resolver
	err error
}

func resolveWith[T any](l *loader, name string, conv Converter[T], def T) T {
	if l.err != nil {
		var zero T
		return zero
	}
	value, err := Resolve(l.r, name, conv, def)
	if err != nil {
		l.err = err
	}
	return value
}

func (l *loader) boolean(name string, def bool) bool {
	return resolveWith(l, name, Bool, def)
}

func (l *loader) integer(name string, def int) int {
	return resolveWith(l, name, Int, def)
}

func (l *loader) duration(name string, def time.Duration) time.Duration {
	return resolveWith(l, name, Duration, def)
}

func (l *loader) path(name, def string) string {
	return resolveWith(l, name, Path, def)
}

func (l *loader) quantity(name string, def resource.Quantity) resource.Quantity {
	return resolveWith(l, name, Quantity, def)
}
