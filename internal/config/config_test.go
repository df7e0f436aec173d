package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flight_config.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "# only the broker\nMQTT_BROKER=tcp://10.0.0.2:1883\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MQTTBroker != "tcp://10.0.0.2:1883" {
		t.Fatalf("broker = %q", cfg.MQTTBroker)
	}
	def := Default()
	if cfg.LoopFrequencyHz != def.LoopFrequencyHz || cfg.FailsafeTimeoutMS != def.FailsafeTimeoutMS {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.IdleValue() != 50 {
		t.Fatalf("idle = %d", cfg.IdleValue())
	}
}

func TestLoadValues(t *testing.T) {
	body := `
MQTT_CLIENT_ID_FC = quad-1
TOPIC_RC=quad/rc
IMU_GYRO_RANGE=2
LOOP_FREQUENCY_HZ=1600
TELEMETRY_FLAGS=gyro,pid
PROPS_OUT=false
IDLE_PERMILLE=40
USE_MOCK_SENSORS=true
LOG_LEVEL=debug
TUNING_PROFILE=/etc/flight/tune.yaml
`
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MQTTClientIDFC != "quad-1" || cfg.TopicRC != "quad/rc" {
		t.Fatalf("strings: %+v", cfg)
	}
	if cfg.IMUGyroRange != 2 || cfg.LoopFrequencyHz != 1600 || cfg.IdleValue() != 80 {
		t.Fatalf("numbers: %+v", cfg)
	}
	if cfg.PropsOut || !cfg.UseMockSensors || cfg.LogLevel != logrus.DebugLevel {
		t.Fatalf("flags: %+v", cfg)
	}
	if cfg.TelemetryFlags != "gyro,pid" || cfg.TuningProfile != "/etc/flight/tune.yaml" {
		t.Fatalf("paths: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"unknown key", "FOO=1", "unknown config key"},
		{"missing equals", "MQTT_BROKER", "invalid config line 1"},
		{"range", "IMU_ACCEL_RANGE=4", "IMU_ACCEL_RANGE must be 0-3"},
		{"not a number", "GPS_BAUD_RATE=fast", "invalid GPS_BAUD_RATE"},
		{"bad bool", "PROPS_OUT=maybe", "invalid PROPS_OUT"},
		{"bad level", "LOG_LEVEL=loud", "invalid LOG_LEVEL"},
		{"empty broker", "MQTT_BROKER=", "MQTT_BROKER is required"},
		{"frame faster than loop", "LOOP_FREQUENCY_HZ=100\nRC_FRAME_INTERVAL_US=1000", "shorter than one loop tick"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected an error")
	}
}
