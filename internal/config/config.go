package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"yqhp/rpc-checker/internal/registry"
	"yqhp/rpc-checker/pkg/logger"
	"yqhp/rpc-checker/pkg/types"
)

// DefaultURL is the public mainnet endpoint used when no URL is given.
const DefaultURL = "https://api.mainnet-beta.solana.com"

// Config represents the complete configuration of a benchmark run.
type Config struct {
	Endpoint EndpointConfig `yaml:"endpoint"`
	Run      RunConfig      `yaml:"run"`
	Probe    ProbeConfig    `yaml:"probe"`
	Logging  LoggingConfig  `yaml:"logging"`
	Outputs  []OutputConfig `yaml:"outputs"`
}

// EndpointConfig holds the target node settings.
type EndpointConfig struct {
	URL     string            `yaml:"url" env:"RPCC_ENDPOINT_URL"`
	Timeout time.Duration     `yaml:"timeout" env:"RPCC_ENDPOINT_TIMEOUT"`
	Headers map[string]string `yaml:"headers" env:"RPCC_ENDPOINT_HEADERS"`
}

// RunConfig holds how attempts are issued.
type RunConfig struct {
	Iterations int           `yaml:"iterations" env:"RPCC_RUN_ITERATIONS"`
	Parallel   bool          `yaml:"parallel" env:"RPCC_RUN_PARALLEL"`
	Progress   bool          `yaml:"progress" env:"RPCC_RUN_PROGRESS"`
	Delay      time.Duration `yaml:"delay" env:"RPCC_RUN_DELAY"`
}

// ProbeConfig holds the sample data used to build method parameters.
type ProbeConfig struct {
	Account      string `yaml:"account" env:"RPCC_PROBE_ACCOUNT"`
	Owner        string `yaml:"owner" env:"RPCC_PROBE_OWNER"`
	TokenProgram string `yaml:"token_program" env:"RPCC_PROBE_TOKEN_PROGRAM"`
	FallbackSlot uint64 `yaml:"fallback_slot" env:"RPCC_PROBE_FALLBACK_SLOT"`
	SlotLag      uint64 `yaml:"slot_lag" env:"RPCC_PROBE_SLOT_LAG"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"RPCC_LOG_LEVEL"`
	Format     string `yaml:"format" env:"RPCC_LOG_FORMAT"`
	Output     string `yaml:"output" env:"RPCC_LOG_OUTPUT"`
	FilePath   string `yaml:"file_path" env:"RPCC_LOG_FILE_PATH"`
	MaxSize    int    `yaml:"max_size" env:"RPCC_LOG_MAX_SIZE"`
	MaxBackups int    `yaml:"max_backups" env:"RPCC_LOG_MAX_BACKUPS"`
	MaxAge     int    `yaml:"max_age" env:"RPCC_LOG_MAX_AGE"`
}

// OutputConfig selects one report output, written as type=arg on the command line.
type OutputConfig struct {
	Type string `yaml:"type"`
	Arg  string `yaml:"arg"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			URL:     DefaultURL,
			Timeout: 15 * time.Second,
			Headers: make(map[string]string),
		},
		Run: RunConfig{
			Iterations: 3,
			Parallel:   false,
			Progress:   true,
			Delay:      100 * time.Millisecond,
		},
		Probe: ProbeConfig{
			Account:      registry.DefaultAccount,
			Owner:        registry.DefaultAccount,
			TokenProgram: registry.DefaultTokenProgram,
			FallbackSlot: registry.DefaultFallbackSlot,
			SlotLag:      registry.DefaultSlotLag,
		},
		Logging: LoggingConfig{
			Level:      "warn",
			Format:     "console",
			Output:     "stderr",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	envPrefix  string
	cmdArgs    map[string]string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: "RPCC_",
		cmdArgs:   make(map[string]string),
	}
}

// WithConfigPath sets the path to the YAML configuration file.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the prefix for environment variables.
// Tags are written with the default RPCC_ prefix, which is swapped for this one.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithCmdArgs sets command-line overrides keyed by dot-notation path, e.g. "run.iterations".
func (l *Loader) WithCmdArgs(args map[string]string) *Loader {
	l.cmdArgs = args
	return l
}

// Load loads configuration from all sources with proper precedence:
// defaults < YAML file < environment variables < command-line flags
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("从文件加载配置失败: %w", err)
		}
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("应用环境变量覆盖失败: %w", err)
	}

	if err := l.applyCmdOverrides(cfg); err != nil {
		return nil, fmt.Errorf("应用命令行参数覆盖失败: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}

	return nil
}

func (l *Loader) applyEnvOverrides(cfg *Config) error {
	return l.applyEnvToStruct(reflect.ValueOf(cfg).Elem())
}

// applyEnvToStruct recursively applies environment variables to struct fields.
func (l *Loader) applyEnvToStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := l.applyEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}
		envKey := l.envPrefix + strings.TrimPrefix(envTag, "RPCC_")

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("从环境变量 %s 设置字段 %s 失败: %w", envKey, fieldType.Name, err)
		}
	}

	return nil
}

func (l *Loader) applyCmdOverrides(cfg *Config) error {
	for key, value := range l.cmdArgs {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("设置配置值 %s 失败: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a configuration value by dot-notation path.
func setConfigValue(cfg *Config, path, value string) error {
	parts := strings.Split(path, ".")
	v := reflect.ValueOf(cfg).Elem()

	for i, part := range parts {
		name := strings.ReplaceAll(part, "_", "")
		field := v.FieldByNameFunc(func(fieldName string) bool {
			return strings.EqualFold(fieldName, name)
		})
		if !field.IsValid() {
			return fmt.Errorf("未知的配置路径: %s", path)
		}

		if i == len(parts)-1 {
			return setFieldValue(field, value)
		}

		if field.Kind() != reflect.Struct {
			return fmt.Errorf("期望 %s 是结构体，实际是 %s", part, field.Kind())
		}
		v = field
	}

	return nil
}

// setFieldValue sets a reflect.Value from a string value.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("无法设置字段")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("无效的时间格式: %w", err)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("无效的整数: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("无效的无符号整数: %w", err)
		}
		field.SetUint(u)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("无效的布尔值: %w", err)
		}
		field.SetBool(b)

	case reflect.Map:
		// key=value,key=value
		if field.Type().Key().Kind() != reflect.String || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("不支持的 map 类型")
		}
		m := make(map[string]string)
		for _, pair := range strings.Split(value, ",") {
			kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
			if len(kv) == 2 {
				m[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
			}
		}
		field.Set(reflect.ValueOf(m))

	default:
		return fmt.Errorf("不支持的字段类型: %s", field.Kind())
	}

	return nil
}

// ParseOutput parses a type=arg output argument. The arg part is optional.
func ParseOutput(s string) (OutputConfig, error) {
	typ, arg, _ := strings.Cut(s, "=")
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return OutputConfig{}, fmt.Errorf("无效的输出参数 %q，期望 type=arg", s)
	}
	return OutputConfig{Type: typ, Arg: strings.TrimSpace(arg)}, nil
}

// Mode returns the execution mode selected by run.parallel.
func (c *Config) Mode() types.ExecutionMode {
	if c.Run.Parallel {
		return types.ExecutionModeParallel
	}
	return types.ExecutionModeSequential
}

// EndpointConfig returns the read-only input of the run.
func (c *Config) EndpointConfig() types.EndpointConfig {
	headers := make(map[string]string, len(c.Endpoint.Headers))
	for k, v := range c.Endpoint.Headers {
		headers[k] = v
	}
	return types.EndpointConfig{
		URL:        c.Endpoint.URL,
		Iterations: c.Run.Iterations,
		Mode:       c.Mode(),
		Progress:   c.Run.Progress,
		Timeout:    c.Endpoint.Timeout,
		Delay:      c.Run.Delay,
		Headers:    headers,
	}
}

// NewProbe builds the registry probe; slots may be nil.
func (c *Config) NewProbe(slots registry.SlotSource) *registry.Probe {
	return &registry.Probe{
		Account:      c.Probe.Account,
		Owner:        c.Probe.Owner,
		TokenProgram: c.Probe.TokenProgram,
		FallbackSlot: c.Probe.FallbackSlot,
		SlotLag:      c.Probe.SlotLag,
		Slots:        slots,
	}
}

// LoggerConfig converts the logging section for pkg/logger.
func (c *Config) LoggerConfig() *logger.Config {
	return &logger.Config{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		Output:     c.Logging.Output,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}
