package serial

import (
	"errors"
	"testing"
	"time"
)

func TestWithReadTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		wantErr bool
	}{
		{"0ms (non-blocking)", 0, false},
		{"100ms (valid)", 100 * time.Millisecond, false},
		{"2500ms (valid)", 2500 * time.Millisecond, false},
		{"25500ms (max)", 25500 * time.Millisecond, false},
		{"150ms (not multiple of 100ms)", 150 * time.Millisecond, true},
		{"25600ms (exceeds max)", 25600 * time.Millisecond, true},
		{"-100ms (negative)", -100 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			err := WithReadTimeout(tt.timeout)(&config)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithReadTimeout(%v) error = %v, wantErr %v", tt.timeout, err, tt.wantErr)
			}
			if err == nil && config.ReadTimeout != tt.timeout {
				t.Errorf("ReadTimeout = %v, want %v", config.ReadTimeout, tt.timeout)
			}
		})
	}
}

func TestParseFlowControl(t *testing.T) {
	tests := []struct {
		in      string
		want    FlowControl
		wantErr bool
	}{
		{"", FlowControlNone, false},
		{"none", FlowControlNone, false},
		{"RTSCTS", FlowControlHardware, false},
		{"hardware", FlowControlHardware, false},
		{"xonxoff", FlowControlSoftware, false},
		{"dsr", FlowControlNone, true},
	}

	for _, tt := range tests {
		got, err := ParseFlowControl(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFlowControl(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("ParseFlowControl(%q) error = %v, want ErrInvalidConfig", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFlowControl(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseParity(t *testing.T) {
	tests := []struct {
		in      string
		want    Parity
		wantErr bool
	}{
		{"none", ParityNone, false},
		{"N", ParityNone, false},
		{"odd", ParityOdd, false},
		{"e", ParityEven, false},
		{"mark", ParityNone, true},
	}

	for _, tt := range tests {
		got, err := ParseParity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseParity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseParity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfigString(t *testing.T) {
	config := DefaultConfig()
	if got := config.String(); got != "9600 8N1" {
		t.Errorf("String() = %q, want %q", got, "9600 8N1")
	}

	config.Parity = ParityEven
	config.DataBits = 7
	config.StopBits = 2
	if got := config.String(); got != "9600 7E2" {
		t.Errorf("String() = %q, want %q", got, "9600 7E2")
	}
}

func TestWithConfig(t *testing.T) {
	want := Config{
		BaudRate:    115200,
		DataBits:    7,
		StopBits:    2,
		Parity:      ParityOdd,
		FlowControl: FlowControlSoftware,
		ReadTimeout: 200 * time.Millisecond,
	}

	config := DefaultConfig()
	if err := WithConfig(want)(&config); err != nil {
		t.Fatalf("WithConfig failed: %v", err)
	}
	if config != want {
		t.Errorf("WithConfig applied %+v, want %+v", config, want)
	}

	bad := want
	bad.BaudRate = 1234
	if err := WithConfig(bad)(&config); !errors.Is(err, ErrInvalidBaudRate) {
		t.Errorf("WithConfig with bad baud = %v, want ErrInvalidBaudRate", err)
	}
}
