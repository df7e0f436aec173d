package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config holds all flight computer configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDFC      string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string

	// Topics
	TopicTelemetry string
	TopicRC        string
	TopicTuning    string
	TopicGPS       string
	TopicTasks     string

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string

	// IMU Sensor Ranges
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// Barometer
	BaroSPIDevice  string
	BaroIntervalMS int

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Timing
	LoopFrequencyHz     int
	SlowTaskIntervalMS  int
	TelemetryIntervalMS int
	TelemetryFlags      string // comma separated frame groups, empty for all

	// RC link
	RCFrameIntervalUS int
	FailsafeTimeoutMS int

	// Frame
	PropsOut     bool
	IdlePermille int // lowest armed motor command, per mille of full range

	TuningProfile string // YAML gains file, empty for the built-in tune

	// Web Server
	WebServerPort int

	UseMockSensors bool
	LogLevel       logrus.Level
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the values used for keys missing from the file.
func Default() *Config {
	return &Config{
		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDFC:      "flight-controller",
		MQTTClientIDConsole: "flight-console",
		MQTTClientIDWeb:     "flight-web",

		TopicTelemetry: "flight/telemetry",
		TopicRC:        "flight/rc",
		TopicTuning:    "flight/tuning",
		TopicGPS:       "flight/gps",
		TopicTasks:     "flight/tasks",

		IMUSPIDevice:  "/dev/spidev0.0",
		IMUCSPin:      "GPIO8",
		IMUAccelRange: 3,
		IMUGyroRange:  3,

		BaroSPIDevice:  "/dev/spidev0.1",
		BaroIntervalMS: 20,

		GPSSerialPort: "/dev/serial0",
		GPSBaudRate:   9600,

		LoopFrequencyHz:     3200,
		SlowTaskIntervalMS:  10,
		TelemetryIntervalMS: 100,

		RCFrameIntervalUS: 4000,
		FailsafeTimeoutMS: 500,

		PropsOut:     true,
		IdlePermille: 25,

		WebServerPort: 8080,
		LogLevel:      logrus.InfoLevel,
	}
}

// Load reads the configuration file over the defaults and returns a Config.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, errors.Wrapf(err, "config line %d", lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// intInRange parses value and checks it against [lo, hi].
func intInRange(key, value string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s %q", key, value)
	}
	if n < lo || n > hi {
		return 0, errors.Errorf("%s must be %d-%d, got %d", key, lo, hi, n)
	}
	return n, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_FC":
		c.MQTTClientIDFC = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_TELEMETRY":
		c.TopicTelemetry = value
	case "TOPIC_RC":
		c.TopicRC = value
	case "TOPIC_TUNING":
		c.TopicTuning = value
	case "TOPIC_GPS":
		c.TopicGPS = value
	case "TOPIC_TASKS":
		c.TopicTasks = value

	// IMU
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		var v int
		v, err = intInRange(key, value, 0, 3)
		c.IMUAccelRange = byte(v)
	case "IMU_GYRO_RANGE":
		var v int
		v, err = intInRange(key, value, 0, 3)
		c.IMUGyroRange = byte(v)

	// Barometer
	case "BARO_SPI_DEVICE":
		c.BaroSPIDevice = value
	case "BARO_INTERVAL_MS":
		c.BaroIntervalMS, err = intInRange(key, value, 1, 1000)

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = intInRange(key, value, 1200, 921600)

	// Timing
	case "LOOP_FREQUENCY_HZ":
		c.LoopFrequencyHz, err = intInRange(key, value, 100, 8000)
	case "SLOW_TASK_INTERVAL_MS":
		c.SlowTaskIntervalMS, err = intInRange(key, value, 1, 1000)
	case "TELEMETRY_INTERVAL_MS":
		c.TelemetryIntervalMS, err = intInRange(key, value, 10, 60000)
	case "TELEMETRY_FLAGS":
		c.TelemetryFlags = value

	// RC
	case "RC_FRAME_INTERVAL_US":
		c.RCFrameIntervalUS, err = intInRange(key, value, 1000, 100000)
	case "FAILSAFE_TIMEOUT_MS":
		c.FailsafeTimeoutMS, err = intInRange(key, value, 50, 5000)

	// Frame
	case "PROPS_OUT":
		c.PropsOut, err = strconv.ParseBool(value)
		if err != nil {
			err = errors.Wrapf(err, "invalid PROPS_OUT %q", value)
		}
	case "IDLE_PERMILLE":
		c.IdlePermille, err = intInRange(key, value, 0, 200)

	case "TUNING_PROFILE":
		c.TuningProfile = value

	case "WEB_SERVER_PORT":
		c.WebServerPort, err = intInRange(key, value, 1, 65535)

	case "USE_MOCK_SENSORS":
		c.UseMockSensors, err = strconv.ParseBool(value)
		if err != nil {
			err = errors.Wrapf(err, "invalid USE_MOCK_SENSORS %q", value)
		}
	case "LOG_LEVEL":
		c.LogLevel, err = logrus.ParseLevel(value)
		if err != nil {
			err = errors.Wrapf(err, "invalid LOG_LEVEL %q", value)
		}

	default:
		return errors.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return errors.New("MQTT_BROKER is required")
	}
	if c.TopicRC == "" || c.TopicTelemetry == "" {
		return errors.New("TOPIC_RC and TOPIC_TELEMETRY are required")
	}
	if !c.UseMockSensors && c.IMUSPIDevice == "" {
		return errors.New("IMU_SPI_DEVICE is required without mock sensors")
	}
	// The RC smoothing divides by the frame interval in ticks.
	if c.RCFrameIntervalUS*c.LoopFrequencyHz < 1000000 {
		return errors.Errorf("RC_FRAME_INTERVAL_US %d is shorter than one loop tick", c.RCFrameIntervalUS)
	}
	return nil
}

// IdleValue returns the idle motor command in the 0..2000 range.
func (c *Config) IdleValue() int32 { return int32(c.IdlePermille) * 2 }

// InitGlobal initializes the global configuration from file. Only the first
// call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
